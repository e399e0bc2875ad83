package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/playerxdx/Ayra/internal/botapi"
	"github.com/playerxdx/Ayra/internal/metrics"
	"github.com/playerxdx/Ayra/internal/repository"
)

// Service sends user-visible notices and keeps the chat tidy: notices can
// be scheduled for deletion and a janitor ticker removes the expired ones.
type Service struct {
	logger     *slog.Logger
	api        botapi.Client
	repo       repository.TemporaryMessageRepository
	defaultTTL time.Duration
}

func NewService(logger *slog.Logger, api botapi.Client, repo repository.TemporaryMessageRepository, defaultTTL time.Duration) *Service {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	return &Service{
		logger:     logger,
		api:        api,
		repo:       repo,
		defaultTTL: defaultTTL,
	}
}

// SendTemporary sends text to the chat and schedules its deletion.
func (s *Service) SendTemporary(chatID int64, text string, ttl time.Duration) {
	sent, err := s.api.SendMessage(chatID, text)
	if err != nil {
		s.logger.Error("Failed to send temporary message", "chat_id", chatID, "error", err)
		return
	}
	if err := s.repo.Add(chatID, sent.MessageID, ttl); err != nil {
		s.logger.Error("Failed to schedule message deletion", "chat_id", chatID, "error", err)
	}
}

// SendAutoDelete sends a notice with the default lifetime.
func (s *Service) SendAutoDelete(chatID int64, text string) {
	s.SendTemporary(chatID, text, s.defaultTTL)
}

// StartJanitor deletes expired temporary messages in the background until
// ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)

	sweep := func() {
		expired, err := s.repo.GetExpired(50)
		if err != nil {
			s.logger.Error("Failed to get expired messages", "error", err)
			return
		}
		if len(expired) == 0 {
			return
		}

		s.logger.Debug("Found expired messages to delete", "count", len(expired))

		toDelete := make([]int64, 0, len(expired))
		for _, msg := range expired {
			if err := s.api.DeleteMessage(msg.ChatID, msg.MessageID); err != nil && !botapi.IsMessageGone(err) {
				s.logger.Warn("Failed to delete expired message", "chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
			} else {
				metrics.IncDeletedMessages("expired_notice")
			}
			toDelete = append(toDelete, msg.ID)
		}
		if err := s.repo.Delete(toDelete); err != nil {
			s.logger.Error("Failed to prune temporary messages", "error", err)
		}
	}

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()
}
