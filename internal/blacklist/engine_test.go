package blacklist

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerxdx/Ayra/internal/logchannel"
)

const testChatID = int64(-100500)

func newTestEngine(t *testing.T) (*Engine, *fakeClient, *fakeBlacklistRepo, *fakeWarner) {
	t.Helper()
	api := newFakeClient()
	repo := newFakeBlacklistRepo()
	warner := &fakeWarner{}
	logch := logchannel.NewService(testLogger(), api, 0)
	return NewEngine(testLogger(), api, repo, warner, logch), api, repo, warner
}

func TestEvaluateWordBoundaries(t *testing.T) {
	engine, _, repo, _ := newTestEngine(t)
	require.NoError(t, repo.AddRule(testChatID, "casino", int(ActionBan)))

	tests := []struct {
		name  string
		text  string
		match bool
	}{
		{name: "exact word", text: "casino", match: true},
		{name: "word in sentence", text: "join my casino now", match: true},
		{name: "leading punctuation", text: "(casino)", match: true},
		{name: "trailing punctuation", text: "casino!", match: true},
		{name: "case insensitive", text: "CASINO", match: true},
		{name: "embedded in word", text: "casinos", match: false},
		{name: "prefix of word", text: "encasino", match: false},
		{name: "unrelated text", text: "hello world", match: false},
		{name: "empty text", text: "", match: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := engine.Evaluate(context.Background(), testChatID, tt.text)
			require.NoError(t, err)
			if tt.match {
				require.NotNil(t, match)
				assert.Equal(t, "casino", match.Trigger)
			} else {
				assert.Nil(t, match)
			}
		})
	}
}

func TestEvaluateFirstMatchWins(t *testing.T) {
	engine, _, repo, _ := newTestEngine(t)
	require.NoError(t, repo.AddRule(testChatID, "spam", int(ActionDelete)))
	require.NoError(t, repo.AddRule(testChatID, "scam", int(ActionBan)))

	match, err := engine.Evaluate(context.Background(), testChatID, "this spam is a scam")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "spam", match.Trigger, "earliest stored rule wins")
	assert.Equal(t, ActionDelete, match.Action)
}

func TestEvaluateDefaultActionFallsBackToMode(t *testing.T) {
	engine, _, repo, _ := newTestEngine(t)
	require.NoError(t, repo.AddRule(testChatID, "spam", int(ActionDefault)))
	require.NoError(t, repo.SetMode(testChatID, int(ActionTMute), "3h"))

	match, err := engine.Evaluate(context.Background(), testChatID, "spam here")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, ActionTMute, match.Action)
	assert.Equal(t, "3h", match.Duration)
}

func TestEvaluateTimedRuleUsesChatDuration(t *testing.T) {
	engine, _, repo, _ := newTestEngine(t)
	require.NoError(t, repo.AddRule(testChatID, "spam", int(ActionTBan)))
	require.NoError(t, repo.SetMode(testChatID, int(ActionDelete), "1h"))

	match, err := engine.Evaluate(context.Background(), testChatID, "spam here")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, ActionTBan, match.Action)
	assert.Equal(t, "1h", match.Duration, "per-rule timed action carries the chat duration")
}

func TestTimedRuleEnforcesBan(t *testing.T) {
	engine, api, repo, _ := newTestEngine(t)
	require.NoError(t, repo.AddRule(testChatID, "spam", int(ActionTBan)))
	require.NoError(t, repo.SetMode(testChatID, int(ActionDelete), "1h"))

	match, err := engine.Evaluate(context.Background(), testChatID, "spam here")
	require.NoError(t, err)
	require.NotNil(t, match)

	user := &tgbotapi.User{ID: 42, FirstName: "Mallory"}
	require.NoError(t, engine.Enforce(context.Background(), testChatID, testMessage(), user, match))

	require.Len(t, api.banned, 1, "sender must be temporarily banned")
	assert.Equal(t, int64(42), api.banned[0].userID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), api.banned[0].until, time.Minute)
}

func TestEvaluateExplicitActionIgnoresMode(t *testing.T) {
	engine, _, repo, _ := newTestEngine(t)
	require.NoError(t, repo.AddRule(testChatID, "spam", int(ActionWarn)))
	require.NoError(t, repo.SetMode(testChatID, int(ActionBan), "0"))

	match, err := engine.Evaluate(context.Background(), testChatID, "spam here")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, ActionWarn, match.Action)
}

func TestEvaluateUnconfiguredModeDefaultsToDelete(t *testing.T) {
	engine, _, repo, _ := newTestEngine(t)
	require.NoError(t, repo.AddRule(testChatID, "spam", int(ActionDefault)))

	match, err := engine.Evaluate(context.Background(), testChatID, "spam here")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, ActionDelete, match.Action)
}

func TestEvaluateNoRules(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	match, err := engine.Evaluate(context.Background(), testChatID, "anything at all")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func testMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 55,
		Text:      "spam here",
		Chat:      &tgbotapi.Chat{ID: testChatID, Type: "supergroup"},
		From:      &tgbotapi.User{ID: 42, FirstName: "Mallory"},
	}
}

func TestEnforceDelete(t *testing.T) {
	engine, api, _, _ := newTestEngine(t)
	user := &tgbotapi.User{ID: 42, FirstName: "Mallory"}

	err := engine.Enforce(context.Background(), testChatID, testMessage(), user, &Match{Trigger: "spam", Action: ActionDelete})
	require.NoError(t, err)

	assert.Equal(t, []int{55}, api.deleted)
	assert.Empty(t, api.banned)
	assert.Empty(t, api.restricted)
	assert.Empty(t, api.sent, "plain delete is silent")
}

func TestEnforceWarnDelegates(t *testing.T) {
	engine, api, _, warner := newTestEngine(t)
	user := &tgbotapi.User{ID: 42, FirstName: "Mallory"}

	err := engine.Enforce(context.Background(), testChatID, testMessage(), user, &Match{Trigger: "spam", Action: ActionWarn})
	require.NoError(t, err)

	assert.Equal(t, []int{55}, api.deleted)
	assert.Equal(t, []int64{42}, warner.warned)
}

func TestEnforceMute(t *testing.T) {
	engine, api, _, _ := newTestEngine(t)
	user := &tgbotapi.User{ID: 42, FirstName: "Mallory"}

	err := engine.Enforce(context.Background(), testChatID, testMessage(), user, &Match{Trigger: "spam", Action: ActionMute})
	require.NoError(t, err)

	require.Len(t, api.restricted, 1)
	assert.Equal(t, int64(42), api.restricted[0].userID)
	assert.True(t, api.restricted[0].until.IsZero(), "plain mute has no expiry")
	require.Len(t, api.sent, 1)
	assert.Contains(t, api.sent[0], "Muted Mallory")
}

func TestEnforceKickUsesUnban(t *testing.T) {
	engine, api, _, _ := newTestEngine(t)
	user := &tgbotapi.User{ID: 42, FirstName: "Mallory"}

	err := engine.Enforce(context.Background(), testChatID, testMessage(), user, &Match{Trigger: "spam", Action: ActionKick})
	require.NoError(t, err)

	assert.Equal(t, []int64{42}, api.unbanned)
	assert.Empty(t, api.banned, "kick must not leave a ban behind")
}

func TestEnforceTemporaryBan(t *testing.T) {
	engine, api, _, _ := newTestEngine(t)
	user := &tgbotapi.User{ID: 42, FirstName: "Mallory"}

	err := engine.Enforce(context.Background(), testChatID, testMessage(), user, &Match{Trigger: "spam", Action: ActionTBan, Duration: "3d"})
	require.NoError(t, err)

	require.Len(t, api.banned, 1)
	assert.WithinDuration(t, time.Now().Add(3*24*time.Hour), api.banned[0].until, time.Minute)
}

func TestEnforceBadDurationSkipsPunishment(t *testing.T) {
	engine, api, _, _ := newTestEngine(t)
	user := &tgbotapi.User{ID: 42, FirstName: "Mallory"}

	err := engine.Enforce(context.Background(), testChatID, testMessage(), user, &Match{Trigger: "spam", Action: ActionTMute, Duration: "bogus"})
	require.NoError(t, err)

	assert.Equal(t, []int{55}, api.deleted, "message still removed")
	assert.Empty(t, api.restricted)
}

func TestEnforceDefaultActionIsNoop(t *testing.T) {
	engine, api, _, _ := newTestEngine(t)
	user := &tgbotapi.User{ID: 42}

	err := engine.Enforce(context.Background(), testChatID, testMessage(), user, &Match{Trigger: "spam", Action: ActionDefault})
	require.NoError(t, err)

	assert.Empty(t, api.deleted)
	assert.Empty(t, api.sent)
}

func TestEnforceGoneMessageIsNotAnError(t *testing.T) {
	engine, api, _, _ := newTestEngine(t)
	api.deleteErr = errors.New("Bad Request: message to delete not found")
	user := &tgbotapi.User{ID: 42, FirstName: "Mallory"}

	err := engine.Enforce(context.Background(), testChatID, testMessage(), user, &Match{Trigger: "spam", Action: ActionBan})
	require.NoError(t, err)

	require.Len(t, api.banned, 1, "punishment still applies")
}

func TestSenderNamePrefersSenderChat(t *testing.T) {
	msg := testMessage()
	msg.SenderChat = &tgbotapi.Chat{ID: -200, Title: "Loud Channel"}
	assert.Equal(t, "Loud Channel", senderName(msg, msg.From))

	assert.Equal(t, "Mallory", senderName(testMessage(), &tgbotapi.User{ID: 42, FirstName: "Mallory"}))
	assert.Equal(t, "@mal", senderName(testMessage(), &tgbotapi.User{ID: 42, UserName: "mal"}))
}
