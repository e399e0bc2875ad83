package botapi

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramClient struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramClient(bot *tgbotapi.BotAPI) *TelegramClient {
	return &TelegramClient{bot: bot}
}

func (c *TelegramClient) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	sent, err := c.bot.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to send message: %w", err)
	}
	return sent, nil
}

func (c *TelegramClient) ReplyMessage(chatID int64, replyTo int, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyToMessageID = replyTo
	sent, err := c.bot.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to send reply: %w", err)
	}
	return sent, nil
}

func (c *TelegramClient) SendMessageWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	sent, err := c.bot.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to send message with markup: %w", err)
	}
	return sent, nil
}

func (c *TelegramClient) ReplyWithMarkup(chatID int64, replyTo int, text string, markup tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = replyTo
	msg.ReplyMarkup = markup
	sent, err := c.bot.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to send reply with markup: %w", err)
	}
	return sent, nil
}

func (c *TelegramClient) EditMessageText(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := c.bot.Send(edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

func (c *TelegramClient) DeleteMessage(chatID int64, messageID int) error {
	if _, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (c *TelegramClient) ForwardMessage(toChatID, fromChatID int64, messageID int) error {
	if _, err := c.bot.Send(tgbotapi.NewForward(toChatID, fromChatID, messageID)); err != nil {
		return fmt.Errorf("failed to forward message: %w", err)
	}
	return nil
}

func (c *TelegramClient) RestrictChatMember(chatID, userID int64, until time.Time) error {
	canSend := false
	cfg := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages: canSend,
		},
	}
	if !until.IsZero() {
		cfg.UntilDate = until.Unix()
	}
	if _, err := c.bot.Request(cfg); err != nil {
		return fmt.Errorf("failed to restrict chat member: %w", err)
	}
	return nil
}

func (c *TelegramClient) BanChatMember(chatID, userID int64, until time.Time) error {
	cfg := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	if !until.IsZero() {
		cfg.UntilDate = until.Unix()
	}
	if _, err := c.bot.Request(cfg); err != nil {
		return fmt.Errorf("failed to ban chat member: %w", err)
	}
	return nil
}

func (c *TelegramClient) UnbanChatMember(chatID, userID int64) error {
	cfg := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	if _, err := c.bot.Request(cfg); err != nil {
		return fmt.Errorf("failed to unban chat member: %w", err)
	}
	return nil
}

func (c *TelegramClient) GetChatAdministrators(chatID int64) ([]tgbotapi.ChatMember, error) {
	admins, err := c.bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get chat administrators: %w", err)
	}
	return admins, nil
}

func (c *TelegramClient) GetChatMember(chatID, userID int64) (tgbotapi.ChatMember, error) {
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return tgbotapi.ChatMember{}, fmt.Errorf("failed to get chat member: %w", err)
	}
	return member, nil
}

func (c *TelegramClient) AnswerCallbackQuery(callbackID, text string, showAlert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = showAlert
	if _, err := c.bot.Request(cb); err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}

func (c *TelegramClient) Self() tgbotapi.User {
	return c.bot.Self
}

// IsMessageGone reports whether err is the API complaining that the message
// was already deleted. Enforcement treats that as success.
func IsMessageGone(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "message to delete not found") ||
		strings.Contains(err.Error(), "message can't be deleted")
}
