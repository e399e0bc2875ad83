package logchannel

import (
	"log/slog"

	"github.com/playerxdx/Ayra/internal/botapi"
)

// Service mirrors moderation actions into a configured log channel. A zero
// channel id disables it; every method is then a no-op.
type Service struct {
	logger    *slog.Logger
	api       botapi.Client
	channelID int64
}

func NewService(logger *slog.Logger, api botapi.Client, channelID int64) *Service {
	return &Service{
		logger:    logger,
		api:       api,
		channelID: channelID,
	}
}

func (s *Service) Enabled() bool {
	return s.channelID != 0
}

// Log posts an action summary to the log channel.
func (s *Service) Log(text string) {
	if !s.Enabled() {
		return
	}
	if _, err := s.api.SendMessage(s.channelID, text); err != nil {
		s.logger.Error("Failed to post to log channel", "error", err)
	}
}

// Evidence forwards the offending message to the log channel, preserving a
// copy before enforcement deletes the original. Forward failures are logged
// only; enforcement must not depend on the log channel.
func (s *Service) Evidence(fromChatID int64, messageID int) {
	if !s.Enabled() {
		return
	}
	if err := s.api.ForwardMessage(s.channelID, fromChatID, messageID); err != nil {
		s.logger.Warn("Failed to forward evidence to log channel", "chat_id", fromChatID, "message_id", messageID, "error", err)
	}
}
