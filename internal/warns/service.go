package warns

import (
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/playerxdx/Ayra/internal/botapi"
	"github.com/playerxdx/Ayra/internal/logchannel"
	"github.com/playerxdx/Ayra/internal/messages"
	"github.com/playerxdx/Ayra/internal/repository"
)

const DefaultLimit = 3

// Service is the warning subsystem: it records warnings, notifies the chat,
// and bans once a user hits the limit.
type Service struct {
	logger *slog.Logger
	api    botapi.Client
	repo   repository.WarnRepository
	logch  *logchannel.Service
	limit  int64
}

func NewService(logger *slog.Logger, api botapi.Client, repo repository.WarnRepository, logch *logchannel.Service, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{
		logger: logger,
		api:    api,
		repo:   repo,
		logch:  logch,
		limit:  int64(limit),
	}
}

// Warn issues a warning to user in chat. Reaching the limit bans the user
// and resets their counter.
func (s *Service) Warn(chatID int64, user *tgbotapi.User, reason string) error {
	count, err := s.repo.AddWarn(chatID, user.ID, reason)
	if err != nil {
		return fmt.Errorf("failed to record warn: %w", err)
	}

	name := displayName(user)
	if count >= s.limit {
		if err := s.api.BanChatMember(chatID, user.ID, time.Time{}); err != nil {
			return fmt.Errorf("failed to ban warned user: %w", err)
		}
		if err := s.repo.ResetWarns(chatID, user.ID); err != nil {
			s.logger.Error("Failed to reset warns after ban", "chat_id", chatID, "user_id", user.ID, "error", err)
		}
		text := fmt.Sprintf(messages.MsgWarnBanFmt, name, s.limit)
		if _, err := s.api.SendMessage(chatID, text); err != nil {
			s.logger.Error("Failed to announce warn ban", "chat_id", chatID, "error", err)
		}
		s.logch.Log(fmt.Sprintf("#WARN_BAN chat=%d user=%d (%s) reason=%s", chatID, user.ID, name, reason))
		return nil
	}

	text := fmt.Sprintf(messages.MsgWarnFmt, name, count, s.limit, reason)
	if _, err := s.api.SendMessage(chatID, text); err != nil {
		s.logger.Error("Failed to announce warn", "chat_id", chatID, "error", err)
	}
	s.logch.Log(fmt.Sprintf("#WARN chat=%d user=%d (%s) count=%d reason=%s", chatID, user.ID, name, count, reason))
	return nil
}

func displayName(user *tgbotapi.User) string {
	if user == nil {
		return "User"
	}
	if user.UserName != "" {
		return "@" + user.UserName
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	return fmt.Sprintf("user %d", user.ID)
}
