package admin

import (
	"io"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentMessage struct {
	chatID  int64
	replyTo int
	text    string
}

type answeredCallback struct {
	id        string
	text      string
	showAlert bool
}

// fakeClient records calls and serves configured rosters. onGetAdmins,
// when set, runs inside GetChatAdministrators so tests can stall a fetch.
type fakeClient struct {
	mu   sync.Mutex
	self tgbotapi.User

	admins      map[int64][]tgbotapi.ChatMember
	adminsErr   error
	adminCalls  int
	onGetAdmins func(chatID int64)
	members     map[int64]tgbotapi.ChatMember
	memberCalls int

	sent      []sentMessage
	deleted   []int
	callbacks []answeredCallback

	nextMessageID int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		self:          tgbotapi.User{ID: 999, UserName: "modbot", IsBot: true},
		admins:        make(map[int64][]tgbotapi.ChatMember),
		members:       make(map[int64]tgbotapi.ChatMember),
		nextMessageID: 1000,
	}
}

func (f *fakeClient) send(chatID int64, replyTo int, text string) (tgbotapi.Message, error) {
	f.sent = append(f.sent, sentMessage{chatID: chatID, replyTo: replyTo, text: text})
	f.nextMessageID++
	return tgbotapi.Message{MessageID: f.nextMessageID, Chat: &tgbotapi.Chat{ID: chatID}}, nil
}

func (f *fakeClient) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	return f.send(chatID, 0, text)
}

func (f *fakeClient) ReplyMessage(chatID int64, replyTo int, text string) (tgbotapi.Message, error) {
	return f.send(chatID, replyTo, text)
}

func (f *fakeClient) SendMessageWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return f.send(chatID, 0, text)
}

func (f *fakeClient) ReplyWithMarkup(chatID int64, replyTo int, text string, markup tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return f.send(chatID, replyTo, text)
}

func (f *fakeClient) EditMessageText(chatID int64, messageID int, text string) error {
	return nil
}

func (f *fakeClient) DeleteMessage(chatID int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeClient) ForwardMessage(toChatID, fromChatID int64, messageID int) error {
	return nil
}

func (f *fakeClient) RestrictChatMember(chatID, userID int64, until time.Time) error {
	return nil
}

func (f *fakeClient) BanChatMember(chatID, userID int64, until time.Time) error {
	return nil
}

func (f *fakeClient) UnbanChatMember(chatID, userID int64) error {
	return nil
}

func (f *fakeClient) GetChatAdministrators(chatID int64) ([]tgbotapi.ChatMember, error) {
	f.mu.Lock()
	f.adminCalls++
	hook := f.onGetAdmins
	f.mu.Unlock()
	if hook != nil {
		hook(chatID)
	}
	if f.adminsErr != nil {
		return nil, f.adminsErr
	}
	return f.admins[chatID], nil
}

func (f *fakeClient) adminCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.adminCalls
}

func (f *fakeClient) GetChatMember(chatID, userID int64) (tgbotapi.ChatMember, error) {
	f.mu.Lock()
	f.memberCalls++
	f.mu.Unlock()
	return f.members[chatID], nil
}

func (f *fakeClient) AnswerCallbackQuery(callbackID, text string, showAlert bool) error {
	f.callbacks = append(f.callbacks, answeredCallback{id: callbackID, text: text, showAlert: showAlert})
	return nil
}

func (f *fakeClient) Self() tgbotapi.User {
	return f.self
}

func adminMember(userID int64, canChangeInfo, canRestrict bool) tgbotapi.ChatMember {
	return tgbotapi.ChatMember{
		User:               &tgbotapi.User{ID: userID},
		Status:             "administrator",
		CanChangeInfo:      canChangeInfo,
		CanRestrictMembers: canRestrict,
		CanDeleteMessages:  true,
		CanInviteUsers:     true,
		CanPinMessages:     true,
	}
}

func creatorMember(userID int64) tgbotapi.ChatMember {
	return tgbotapi.ChatMember{
		User:   &tgbotapi.User{ID: userID},
		Status: "creator",
	}
}
