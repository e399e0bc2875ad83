// Package polling receives updates via long polling, for deployments
// without a public ingress.
package polling

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Poller struct {
	logger *slog.Logger
	bot    *tgbotapi.BotAPI
}

func NewPoller(logger *slog.Logger, bot *tgbotapi.BotAPI) *Poller {
	return &Poller{logger: logger, bot: bot}
}

// Updates starts the long-poll loop and returns its channel. The channel
// closes once ctx is cancelled and the in-flight request drains.
func (p *Poller) Updates(ctx context.Context) tgbotapi.UpdatesChannel {
	// Drop any webhook a previous deployment left behind, otherwise the
	// API refuses getUpdates.
	if _, err := p.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		p.logger.Warn("Failed to delete stale webhook", "error", err)
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := p.bot.GetUpdatesChan(cfg)

	go func() {
		<-ctx.Done()
		p.bot.StopReceivingUpdates()
	}()

	p.logger.Info("Long polling started")
	return updates
}
