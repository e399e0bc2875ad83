// Package webhook receives updates over an HTTPS webhook. The path carries
// a random suffix so the endpoint cannot be guessed.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

type Server struct {
	logger *slog.Logger
	bot    *tgbotapi.BotAPI
	host   string
	port   string
	srv    *http.Server
}

func NewServer(logger *slog.Logger, bot *tgbotapi.BotAPI, host, port string) *Server {
	return &Server{logger: logger, bot: bot, host: host, port: port}
}

// Updates registers the webhook with the API and starts the HTTP listener.
// The returned channel closes when the listener shuts down.
func (s *Server) Updates(ctx context.Context) (tgbotapi.UpdatesChannel, error) {
	path := "/webhook/" + uuid.NewString()

	wh, err := tgbotapi.NewWebhook(s.host + path)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook config: %w", err)
	}
	if _, err := s.bot.Request(wh); err != nil {
		return nil, fmt.Errorf("failed to register webhook: %w", err)
	}

	info, err := s.bot.GetWebhookInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook: %w", err)
	}
	if info.LastErrorDate != 0 {
		s.logger.Warn("Webhook reported a delivery error", "message", info.LastErrorMessage)
	}

	updates := s.bot.ListenForWebhook(path)

	s.srv = &http.Server{
		Addr:              ":" + s.port,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Webhook listener failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Webhook shutdown failed", "error", err)
		}
	}()

	s.logger.Info("Webhook registered", "host", s.host, "port", s.port)
	return updates, nil
}
