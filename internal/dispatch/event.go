package dispatch

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Event is the unit handed to handlers. It wraps the raw update together
// with the effective sender: normally the update's From, but after an
// anonymous identity challenge the resolver substitutes the user who proved
// themselves, so handler bodies never need to care which path they came in
// through.
type Event struct {
	Update *tgbotapi.Update
	User   *tgbotapi.User
}

func NewEvent(upd *tgbotapi.Update) *Event {
	return &Event{Update: upd, User: upd.SentFrom()}
}

// Message returns the message this event concerns: the inbound message
// itself, or the message a callback button is attached to.
func (e *Event) Message() *tgbotapi.Message {
	if e.Update.Message != nil {
		return e.Update.Message
	}
	if e.Update.EditedMessage != nil {
		return e.Update.EditedMessage
	}
	if e.Update.CallbackQuery != nil {
		return e.Update.CallbackQuery.Message
	}
	return nil
}

func (e *Event) Chat() *tgbotapi.Chat {
	if msg := e.Message(); msg != nil {
		return msg.Chat
	}
	return nil
}

func (e *Event) ChatID() int64 {
	if chat := e.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}

// SenderChat is non-nil when the message was sent by an anonymous
// channel-identity rather than a concrete user.
func (e *Event) SenderChat() *tgbotapi.Chat {
	if msg := e.Message(); msg != nil {
		return msg.SenderChat
	}
	return nil
}

func (e *Event) IsAnonymous() bool {
	return e.SenderChat() != nil
}

func (e *Event) CallbackData() string {
	if e.Update.CallbackQuery != nil {
		return e.Update.CallbackQuery.Data
	}
	return ""
}

// Args splits the command arguments on whitespace. Empty for bare commands.
func (e *Event) Args() []string {
	msg := e.Message()
	if msg == nil {
		return nil
	}
	return strings.Fields(msg.CommandArguments())
}
