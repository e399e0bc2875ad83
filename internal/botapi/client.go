package botapi

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client is the transport collaborator: the narrow slice of the bot API the
// moderation core needs. Handlers and services depend on this interface, not
// on the SDK, so tests can substitute a recording fake.
type Client interface {
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	ReplyMessage(chatID int64, replyTo int, text string) (tgbotapi.Message, error)
	SendMessageWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	ReplyWithMarkup(chatID int64, replyTo int, text string, markup tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessageText(chatID int64, messageID int, text string) error
	DeleteMessage(chatID int64, messageID int) error
	ForwardMessage(toChatID, fromChatID int64, messageID int) error

	// RestrictChatMember removes the member's send permission. A zero until
	// restricts indefinitely.
	RestrictChatMember(chatID, userID int64, until time.Time) error
	// BanChatMember bans the member. A zero until bans permanently.
	BanChatMember(chatID, userID int64, until time.Time) error
	// UnbanChatMember lifts a ban. On a present member this acts as a kick:
	// the member is removed but may rejoin.
	UnbanChatMember(chatID, userID int64) error

	GetChatAdministrators(chatID int64) ([]tgbotapi.ChatMember, error)
	GetChatMember(chatID, userID int64) (tgbotapi.ChatMember, error)
	AnswerCallbackQuery(callbackID, text string, showAlert bool) error

	Self() tgbotapi.User
}
