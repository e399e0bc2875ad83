package blacklist

import (
	"context"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerxdx/Ayra/internal/admin"
	"github.com/playerxdx/Ayra/internal/dispatch"
	"github.com/playerxdx/Ayra/internal/logchannel"
	"github.com/playerxdx/Ayra/internal/notify"
	"github.com/playerxdx/Ayra/internal/repository"
)

const sudoUserID = int64(500)

func newTestModule(t *testing.T) (*Module, *fakeClient, *fakeBlacklistRepo, *fakeApprovalRepo) {
	t.Helper()
	api := newFakeClient()
	repo := newFakeBlacklistRepo()
	approvals := newFakeApprovalRepo()
	resolver := admin.NewResolver(testLogger(), api, admin.NewCache(api, 0), []int64{sudoUserID}, nil)
	notifySvc := notify.NewService(testLogger(), api, &fakeTempRepo{}, time.Minute)
	logch := logchannel.NewService(testLogger(), api, 0)
	engine := NewEngine(testLogger(), api, repo, &fakeWarner{}, logch)
	m := NewModule(testLogger(), api, repo, approvals, resolver, notifySvc, logch, engine)
	return m, api, repo, approvals
}

func commandEvent(userID int64, cmd, args string) *dispatch.Event {
	text := "/" + cmd
	cmdLen := len(text)
	if args != "" {
		text += " " + args
	}
	upd := &tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 10,
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
			Chat:      &tgbotapi.Chat{ID: testChatID, Type: "supergroup", Title: "Test Group"},
			From:      &tgbotapi.User{ID: userID, FirstName: "Alice"},
		},
	}
	return dispatch.NewEvent(upd)
}

func memberMessage(userID int64, text string) *dispatch.Event {
	upd := &tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 20,
			Text:      text,
			Chat:      &tgbotapi.Chat{ID: testChatID, Type: "supergroup", Title: "Test Group"},
			From:      &tgbotapi.User{ID: userID, FirstName: "Mallory"},
		},
	}
	return dispatch.NewEvent(upd)
}

func rmallPress(userID int64, data string) *dispatch.Event {
	upd := &tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb1",
			Data: data,
			From: &tgbotapi.User{ID: userID},
			Message: &tgbotapi.Message{
				MessageID: 30,
				Chat:      &tgbotapi.Chat{ID: testChatID, Type: "supergroup", Title: "Test Group"},
			},
		},
	}
	return dispatch.NewEvent(upd)
}

func TestExtractTriggerAction(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		trigger string
		action  Action
	}{
		{name: "bare trigger", input: "casino", trigger: "casino", action: ActionDefault},
		{name: "trailing action", input: "casino {ban}", trigger: "casino", action: ActionBan},
		{name: "timed action", input: "scam link {tmute}", trigger: "scam link", action: ActionTMute},
		{name: "unknown action kept verbatim", input: "casino {explode}", trigger: "casino {explode}", action: ActionDefault},
		{name: "unclosed brace kept verbatim", input: "casino {ban", trigger: "casino {ban", action: ActionDefault},
		{name: "braces in wrong order", input: "}casino{", trigger: "}casino{", action: ActionDefault},
		{name: "spaces inside braces", input: "casino { kick }", trigger: "casino", action: ActionKick},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, action := extractTriggerAction(tt.input)
			assert.Equal(t, tt.trigger, trigger)
			assert.Equal(t, tt.action, action)
		})
	}
}

func TestAddBlacklistMultiline(t *testing.T) {
	m, api, repo, _ := newTestModule(t)

	err := m.addBlacklist(context.Background(), commandEvent(1, "addblacklist", "casino\nScam {ban}\ncasino\n\n"))
	require.NoError(t, err)

	rules, _ := repo.GetRules(testChatID)
	require.Len(t, rules, 2, "duplicates collapse")
	assert.Equal(t, "casino", rules[0].Trigger)
	assert.Equal(t, int(ActionDefault), rules[0].Action)
	assert.Equal(t, "scam", rules[1].Trigger, "triggers stored lowercased")
	assert.Equal(t, int(ActionBan), rules[1].Action)
	require.NotEmpty(t, api.sent)
}

func TestAddBlacklistNoArgs(t *testing.T) {
	m, _, repo, _ := newTestModule(t)

	err := m.addBlacklist(context.Background(), commandEvent(1, "addblacklist", ""))
	require.NoError(t, err)

	rules, _ := repo.GetRules(testChatID)
	assert.Empty(t, rules)
}

func TestAddBlacklistCapReached(t *testing.T) {
	m, api, repo, _ := newTestModule(t)
	for i := 0; i < repository.MaxRulesPerChat; i++ {
		require.NoError(t, repo.AddRule(testChatID, fmt.Sprintf("word%d", i), 0))
	}

	err := m.addBlacklist(context.Background(), commandEvent(1, "addblacklist", "onemore"))
	require.NoError(t, err)

	count, _ := repo.CountRules(testChatID)
	assert.Equal(t, int64(repository.MaxRulesPerChat), count)
	require.NotEmpty(t, api.sent)
}

func TestRemoveBlacklist(t *testing.T) {
	m, api, repo, _ := newTestModule(t)
	require.NoError(t, repo.AddRule(testChatID, "casino", 0))
	require.NoError(t, repo.AddRule(testChatID, "scam", 0))

	err := m.removeBlacklist(context.Background(), commandEvent(1, "unblacklist", "casino\nmissing"))
	require.NoError(t, err)

	count, _ := repo.CountRules(testChatID)
	assert.Equal(t, int64(1), count)
	require.NotEmpty(t, api.sent)
}

func TestSetModeValidation(t *testing.T) {
	m, _, repo, _ := newTestModule(t)
	ctx := context.Background()

	require.NoError(t, m.setMode(ctx, commandEvent(1, "blacklistmode", "tban")))
	mode, _, _ := repo.GetMode(testChatID)
	assert.Equal(t, repository.DefaultMode, mode, "missing duration rejected")

	require.NoError(t, m.setMode(ctx, commandEvent(1, "blacklistmode", "tban forever")))
	mode, _, _ = repo.GetMode(testChatID)
	assert.Equal(t, repository.DefaultMode, mode, "bad duration rejected")

	require.NoError(t, m.setMode(ctx, commandEvent(1, "blacklistmode", "tban 3d")))
	mode, duration, _ := repo.GetMode(testChatID)
	assert.Equal(t, int(ActionTBan), mode)
	assert.Equal(t, "3d", duration)

	require.NoError(t, m.setMode(ctx, commandEvent(1, "blacklistmode", "off")))
	mode, _, _ = repo.GetMode(testChatID)
	assert.Equal(t, int(ActionDefault), mode)
}

func TestRemoveAllCallbackConfirm(t *testing.T) {
	m, api, repo, _ := newTestModule(t)
	require.NoError(t, repo.AddRule(testChatID, "casino", 0))
	require.NoError(t, repo.AddRule(testChatID, "scam", 0))

	err := m.removeAllCallback(context.Background(), rmallPress(sudoUserID, "blacklists_rmall"))
	require.NoError(t, err)

	count, _ := repo.CountRules(testChatID)
	assert.Zero(t, count)
	require.NotEmpty(t, api.edited)
}

func TestRemoveAllCallbackReChecksAuthorization(t *testing.T) {
	m, api, repo, _ := newTestModule(t)
	require.NoError(t, repo.AddRule(testChatID, "casino", 0))

	// The button may sit there after the presser lost their rights; the
	// press must re-check, not trust the prompt.
	err := m.removeAllCallback(context.Background(), rmallPress(42, "blacklists_rmall"))
	require.NoError(t, err)

	count, _ := repo.CountRules(testChatID)
	assert.Equal(t, int64(1), count, "unauthorized press clears nothing")
	require.NotEmpty(t, api.callbacks)
	assert.Empty(t, api.edited)
}

func TestRemoveAllCallbackCancel(t *testing.T) {
	m, api, repo, _ := newTestModule(t)
	require.NoError(t, repo.AddRule(testChatID, "casino", 0))

	err := m.removeAllCallback(context.Background(), rmallPress(sudoUserID, "blacklists_cancel"))
	require.NoError(t, err)

	count, _ := repo.CountRules(testChatID)
	assert.Equal(t, int64(1), count)
	require.NotEmpty(t, api.edited)
}

func TestEnforceMessageDeletes(t *testing.T) {
	m, api, repo, _ := newTestModule(t)
	require.NoError(t, repo.AddRule(testChatID, "spam", int(ActionDelete)))

	err := m.enforceMessage(context.Background(), memberMessage(42, "buy spam now"))
	require.NoError(t, err)

	assert.Equal(t, []int{20}, api.deleted)
}

func TestEnforceMessageSkipsApproved(t *testing.T) {
	m, api, repo, approvals := newTestModule(t)
	require.NoError(t, repo.AddRule(testChatID, "spam", int(ActionDelete)))
	require.NoError(t, approvals.Approve(testChatID, 42))

	err := m.enforceMessage(context.Background(), memberMessage(42, "buy spam now"))
	require.NoError(t, err)

	assert.Empty(t, api.deleted)
}

func TestEnforceMessageCleanText(t *testing.T) {
	m, api, repo, _ := newTestModule(t)
	require.NoError(t, repo.AddRule(testChatID, "spam", int(ActionDelete)))

	err := m.enforceMessage(context.Background(), memberMessage(42, "perfectly fine message"))
	require.NoError(t, err)

	assert.Empty(t, api.deleted)
}

func TestMigrateChat(t *testing.T) {
	m, _, repo, _ := newTestModule(t)
	require.NoError(t, repo.AddRule(testChatID, "casino", 0))
	require.NoError(t, repo.SetMode(testChatID, int(ActionBan), "0"))

	newChatID := int64(-100999)
	require.NoError(t, m.MigrateChat(testChatID, newChatID))

	count, _ := repo.CountRules(newChatID)
	assert.Equal(t, int64(1), count)
	old, _ := repo.CountRules(testChatID)
	assert.Zero(t, old)
	mode, _, _ := repo.GetMode(newChatID)
	assert.Equal(t, int(ActionBan), mode)
}

func TestStatsAndSettings(t *testing.T) {
	m, _, repo, _ := newTestModule(t)
	require.NoError(t, repo.AddRule(testChatID, "casino", 0))
	require.NoError(t, repo.AddRule(-200, "scam", 0))

	line, err := m.ChatSettings(testChatID)
	require.NoError(t, err)
	assert.Contains(t, line, "1")

	stats, err := m.Stats()
	require.NoError(t, err)
	assert.Contains(t, stats, "2 blacklist triggers")
	assert.Contains(t, stats, "2 chats")
}
