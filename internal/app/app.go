// Package app assembles the bot: storage, transport, the dispatch pipeline
// and every feature module.
package app

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/playerxdx/Ayra/internal/admin"
	"github.com/playerxdx/Ayra/internal/approval"
	"github.com/playerxdx/Ayra/internal/blacklist"
	"github.com/playerxdx/Ayra/internal/botapi"
	"github.com/playerxdx/Ayra/internal/config"
	"github.com/playerxdx/Ayra/internal/dispatch"
	"github.com/playerxdx/Ayra/internal/logchannel"
	"github.com/playerxdx/Ayra/internal/metrics"
	"github.com/playerxdx/Ayra/internal/module"
	"github.com/playerxdx/Ayra/internal/notify"
	"github.com/playerxdx/Ayra/internal/repository"
	"github.com/playerxdx/Ayra/internal/transport/polling"
	"github.com/playerxdx/Ayra/internal/transport/webhook"
	"github.com/playerxdx/Ayra/internal/warns"
)

type App struct {
	cfg    *config.Config
	logger *slog.Logger

	api        botapi.Client
	resolver   *admin.Resolver
	dispatcher *dispatch.Dispatcher
	modules    []module.Module
}

func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Run wires everything together and processes updates until ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	db, err := repository.NewPostgresDB(a.cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(a.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to initialize bot api: %w", err)
	}
	a.logger.Info("Authorized", "username", bot.Self.UserName, "id", bot.Self.ID)

	client := botapi.NewTelegramClient(bot)
	a.api = client

	blacklistRepo := repository.NewBlacklistRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	warnRepo := repository.NewWarnRepository(db)
	tempRepo := repository.NewTemporaryMessageRepository(db)

	cache := admin.NewCache(client, a.cfg.AdminCacheTTL)
	a.resolver = admin.NewResolver(a.logger, client, cache, a.cfg.SudoUserIDs, a.cfg.ModUserIDs)

	logch := logchannel.NewService(a.logger, client, a.cfg.LogChannelID)
	notifySvc := notify.NewService(a.logger, client, tempRepo, a.cfg.NoticeTTL)
	warnSvc := warns.NewService(a.logger, client, warnRepo, logch, a.cfg.WarnLimit)
	engine := blacklist.NewEngine(a.logger, client, blacklistRepo, warnSvc, logch)

	a.modules = []module.Module{
		blacklist.NewModule(a.logger, client, blacklistRepo, approvalRepo, a.resolver, notifySvc, logch, engine),
		approval.NewModule(a.logger, client, approvalRepo, a.resolver, notifySvc),
	}

	registry := dispatch.NewRegistry()
	a.registerCore(registry)
	for _, mod := range a.modules {
		mod.Register(registry)
		a.logger.Info("Module registered", "module", mod.Name())
	}
	a.dispatcher = dispatch.NewDispatcher(a.logger, registry)

	notifySvc.StartJanitor(ctx)

	metricsServer := metrics.NewServer(a.logger, a.cfg.MetricsAddr)
	go func() {
		if err := metricsServer.Listen(); err != nil {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()
	go a.refreshGauges(ctx)

	updates, err := a.updates(ctx, bot)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for i := 0; i < a.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for upd := range updates {
				a.dispatcher.Dispatch(ctx, upd)
			}
		}()
	}

	a.logger.Info("Bot is running", "workers", a.cfg.Workers)
	wg.Wait()
	a.logger.Info("All workers drained, shutting down")
	return nil
}

// refreshGauges re-publishes the suspended-challenge count so the gauge
// stays accurate even across restarts of the scrape target.
func (a *App) refreshGauges(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetPendingChallenges(float64(a.resolver.Pending().Len()))
		}
	}
}

// updates picks the transport: webhook when a public host is configured,
// long polling otherwise.
func (a *App) updates(ctx context.Context, bot *tgbotapi.BotAPI) (tgbotapi.UpdatesChannel, error) {
	if a.cfg.WebhookHost != "" {
		return webhook.NewServer(a.logger, bot, a.cfg.WebhookHost, a.cfg.Port).Updates(ctx)
	}
	return polling.NewPoller(a.logger, bot).Updates(ctx), nil
}

// registerCore installs the handlers that belong to the application rather
// than any feature module: the identity-challenge callback, chat migration
// fan-out, and the settings/stats projections.
func (a *App) registerCore(r *dispatch.Registry) {
	// The challenge callback must run before feature callbacks so a press on
	// a challenge button never leaks into another handler.
	r.Callback(admin.ChallengeCallbackPattern, -10, a.resolver.HandleChallengeCallback)

	// Group upgrades re-key every module's storage. Runs first among message
	// handlers and stops propagation: a migration service message carries no
	// user content worth processing further.
	r.Message(nil, -100, nil, a.handleMigration)

	r.Command([]string{"settings"}, 0,
		a.resolver.RequireAdmin(admin.CheckOptions{AnonymousOK: true}), a.handleSettings)
	r.Command([]string{"stats"}, 0, nil, a.handleStats)
}

func (a *App) handleMigration(ctx context.Context, ev *dispatch.Event) error {
	msg := ev.Update.Message
	if msg == nil || msg.MigrateToChatID == 0 {
		return nil
	}
	oldID, newID := msg.Chat.ID, msg.MigrateToChatID
	a.logger.Info("Chat migrated", "old_chat_id", oldID, "new_chat_id", newID)

	for _, mod := range a.modules {
		migrator, ok := mod.(module.Migrator)
		if !ok {
			continue
		}
		if err := migrator.MigrateChat(oldID, newID); err != nil {
			a.logger.Error("Failed to migrate module storage",
				"module", mod.Name(), "old_chat_id", oldID, "new_chat_id", newID, "error", err)
		}
	}
	return dispatch.ErrStopPropagation
}

func (a *App) handleSettings(ctx context.Context, ev *dispatch.Event) error {
	chat := ev.Chat()
	if chat == nil || chat.IsPrivate() {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Settings for %s:</b>\n", html.EscapeString(chat.Title))
	for _, mod := range a.modules {
		provider, ok := mod.(module.SettingsProvider)
		if !ok {
			continue
		}
		line, err := provider.ChatSettings(chat.ID)
		if err != nil {
			a.logger.Error("Failed to collect module settings", "module", mod.Name(), "error", err)
			continue
		}
		fmt.Fprintf(&b, "\n<b>%s</b>\n%s\n", mod.Name(), line)
	}

	if _, err := a.api.SendMessage(chat.ID, b.String()); err != nil {
		a.logger.Error("Failed to send settings", "chat_id", chat.ID, "error", err)
	}
	return nil
}

// handleStats is sudo-only and silent for everyone else.
func (a *App) handleStats(ctx context.Context, ev *dispatch.Event) error {
	if ev.User == nil || !a.resolver.IsSudo(ev.User.ID) {
		return nil
	}
	chat := ev.Chat()
	if chat == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString("<b>Current stats:</b>\n")
	for _, mod := range a.modules {
		provider, ok := mod.(module.StatsProvider)
		if !ok {
			continue
		}
		line, err := provider.Stats()
		if err != nil {
			a.logger.Error("Failed to collect module stats", "module", mod.Name(), "error", err)
			continue
		}
		fmt.Fprintf(&b, "  - %s\n", line)
	}

	if _, err := a.api.SendMessage(chat.ID, b.String()); err != nil {
		a.logger.Error("Failed to send stats", "chat_id", chat.ID, "error", err)
	}
	return nil
}
