package blacklist

import (
	"io"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/playerxdx/Ayra/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type restriction struct {
	userID int64
	until  time.Time
}

// fakeClient records the moderation calls enforcement makes.
type fakeClient struct {
	self tgbotapi.User

	sent       []string
	deleted    []int
	restricted []restriction
	banned     []restriction
	unbanned   []int64
	forwarded  []int
	edited     []string
	callbacks  []string

	deleteErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{self: tgbotapi.User{ID: 999, UserName: "modbot", IsBot: true}}
}

func (f *fakeClient) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	f.sent = append(f.sent, text)
	return tgbotapi.Message{MessageID: len(f.sent), Chat: &tgbotapi.Chat{ID: chatID}}, nil
}

func (f *fakeClient) ReplyMessage(chatID int64, replyTo int, text string) (tgbotapi.Message, error) {
	return f.SendMessage(chatID, text)
}

func (f *fakeClient) SendMessageWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return f.SendMessage(chatID, text)
}

func (f *fakeClient) ReplyWithMarkup(chatID int64, replyTo int, text string, markup tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return f.SendMessage(chatID, text)
}

func (f *fakeClient) EditMessageText(chatID int64, messageID int, text string) error {
	f.edited = append(f.edited, text)
	return nil
}

func (f *fakeClient) DeleteMessage(chatID int64, messageID int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeClient) ForwardMessage(toChatID, fromChatID int64, messageID int) error {
	f.forwarded = append(f.forwarded, messageID)
	return nil
}

func (f *fakeClient) RestrictChatMember(chatID, userID int64, until time.Time) error {
	f.restricted = append(f.restricted, restriction{userID: userID, until: until})
	return nil
}

func (f *fakeClient) BanChatMember(chatID, userID int64, until time.Time) error {
	f.banned = append(f.banned, restriction{userID: userID, until: until})
	return nil
}

func (f *fakeClient) UnbanChatMember(chatID, userID int64) error {
	f.unbanned = append(f.unbanned, userID)
	return nil
}

func (f *fakeClient) GetChatAdministrators(chatID int64) ([]tgbotapi.ChatMember, error) {
	return nil, nil
}

func (f *fakeClient) GetChatMember(chatID, userID int64) (tgbotapi.ChatMember, error) {
	return tgbotapi.ChatMember{}, nil
}

func (f *fakeClient) AnswerCallbackQuery(callbackID, text string, showAlert bool) error {
	f.callbacks = append(f.callbacks, text)
	return nil
}

func (f *fakeClient) Self() tgbotapi.User {
	return f.self
}

// fakeBlacklistRepo is an in-memory BlacklistRepository preserving insertion
// order, like the id-ordered table scan.
type fakeBlacklistRepo struct {
	rules    map[int64][]repository.BlacklistRule
	mode     map[int64]int
	duration map[int64]string
	nextID   uint
}

func newFakeBlacklistRepo() *fakeBlacklistRepo {
	return &fakeBlacklistRepo{
		rules:    make(map[int64][]repository.BlacklistRule),
		mode:     make(map[int64]int),
		duration: make(map[int64]string),
	}
}

func (f *fakeBlacklistRepo) GetRules(chatID int64) ([]repository.BlacklistRule, error) {
	return f.rules[chatID], nil
}

func (f *fakeBlacklistRepo) AddRule(chatID int64, trigger string, action int) error {
	trigger = repository.NormalizeTrigger(trigger)
	for i, rule := range f.rules[chatID] {
		if rule.Trigger == trigger {
			f.rules[chatID][i].Action = action
			return nil
		}
	}
	if len(f.rules[chatID]) >= repository.MaxRulesPerChat {
		return repository.ErrRuleCapExceeded
	}
	f.nextID++
	f.rules[chatID] = append(f.rules[chatID], repository.BlacklistRule{
		ChatID: chatID, Trigger: trigger, Action: action,
	})
	return nil
}

func (f *fakeBlacklistRepo) RemoveRule(chatID int64, trigger string) (bool, error) {
	trigger = repository.NormalizeTrigger(trigger)
	for i, rule := range f.rules[chatID] {
		if rule.Trigger == trigger {
			f.rules[chatID] = append(f.rules[chatID][:i], f.rules[chatID][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBlacklistRepo) RemoveAllRules(chatID int64) (int64, error) {
	n := int64(len(f.rules[chatID]))
	delete(f.rules, chatID)
	return n, nil
}

func (f *fakeBlacklistRepo) CountRules(chatID int64) (int64, error) {
	return int64(len(f.rules[chatID])), nil
}

func (f *fakeBlacklistRepo) CountAll() (int64, int64, error) {
	var rules int64
	for _, rs := range f.rules {
		rules += int64(len(rs))
	}
	return rules, int64(len(f.rules)), nil
}

func (f *fakeBlacklistRepo) GetMode(chatID int64) (int, string, error) {
	if mode, ok := f.mode[chatID]; ok {
		return mode, f.duration[chatID], nil
	}
	return repository.DefaultMode, "0", nil
}

func (f *fakeBlacklistRepo) SetMode(chatID int64, mode int, duration string) error {
	f.mode[chatID] = mode
	f.duration[chatID] = duration
	return nil
}

func (f *fakeBlacklistRepo) Migrate(oldChatID, newChatID int64) error {
	if rs, ok := f.rules[oldChatID]; ok {
		f.rules[newChatID] = rs
		delete(f.rules, oldChatID)
	}
	if mode, ok := f.mode[oldChatID]; ok {
		f.mode[newChatID] = mode
		f.duration[newChatID] = f.duration[oldChatID]
		delete(f.mode, oldChatID)
		delete(f.duration, oldChatID)
	}
	return nil
}

type fakeWarner struct {
	warned []int64
}

func (f *fakeWarner) Warn(chatID int64, user *tgbotapi.User, reason string) error {
	f.warned = append(f.warned, user.ID)
	return nil
}

type fakeApprovalRepo struct {
	approved map[int64]map[int64]bool
}

func newFakeApprovalRepo() *fakeApprovalRepo {
	return &fakeApprovalRepo{approved: make(map[int64]map[int64]bool)}
}

func (f *fakeApprovalRepo) IsApproved(chatID, userID int64) (bool, error) {
	return f.approved[chatID][userID], nil
}

func (f *fakeApprovalRepo) Approve(chatID, userID int64) error {
	if f.approved[chatID] == nil {
		f.approved[chatID] = make(map[int64]bool)
	}
	f.approved[chatID][userID] = true
	return nil
}

func (f *fakeApprovalRepo) Unapprove(chatID, userID int64) (bool, error) {
	if f.approved[chatID][userID] {
		delete(f.approved[chatID], userID)
		return true, nil
	}
	return false, nil
}

func (f *fakeApprovalRepo) ListApproved(chatID int64) ([]int64, error) {
	var ids []int64
	for id := range f.approved[chatID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeApprovalRepo) Migrate(oldChatID, newChatID int64) error {
	if m, ok := f.approved[oldChatID]; ok {
		f.approved[newChatID] = m
		delete(f.approved, oldChatID)
	}
	return nil
}

type fakeTempRepo struct {
	scheduled []int
}

func (f *fakeTempRepo) Add(chatID int64, messageID int, duration time.Duration) error {
	f.scheduled = append(f.scheduled, messageID)
	return nil
}

func (f *fakeTempRepo) GetExpired(limit int) ([]repository.TemporaryMessage, error) {
	return nil, nil
}

func (f *fakeTempRepo) Delete(ids []int64) error {
	return nil
}
