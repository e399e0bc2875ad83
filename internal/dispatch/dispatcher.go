package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/playerxdx/Ayra/internal/metrics"
)

// Dispatcher routes inbound updates through the registry. One Dispatch call
// handles one update to completion; concurrent calls for different updates
// are expected (the worker pool owns that).
type Dispatcher struct {
	logger   *slog.Logger
	registry *Registry
	tracer   trace.Tracer
}

func NewDispatcher(logger *slog.Logger, registry *Registry) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		registry: registry,
		tracer:   otel.Tracer("dispatch"),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, upd tgbotapi.Update) {
	updateType := classify(&upd)
	start := time.Now()
	var dispatchErr error
	defer func() {
		metrics.ObserveUpdateProcessing(updateType, time.Since(start).Seconds(), dispatchErr)
	}()
	metrics.IncUpdateDispatched(updateType)

	ctx, span := d.tracer.Start(ctx, "Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("update_type", updateType))

	ev := NewEvent(&upd)
	handlers := d.match(ev)
	if len(handlers) == 0 {
		d.logger.Debug("No handlers matched update", "type", updateType, "update_id", upd.UpdateID)
		return
	}

	for _, h := range handlers {
		metrics.IncHandlerInvoked(h.domain)
		var err error
		if h.guard != nil {
			err = h.guard(ctx, ev, h.fn)
		} else {
			err = h.fn(ctx, ev)
		}
		if err != nil {
			if errors.Is(err, ErrStopPropagation) {
				d.logger.Debug("Handler stopped propagation", "domain", h.domain, "update_id", upd.UpdateID)
				return
			}
			dispatchErr = err
			d.logger.Error("Handler failed", "domain", h.domain, "update_id", upd.UpdateID, "error", err)
		}
	}
}

// match selects the handlers for this event across all domains, ordered by
// group (lower first) with registration order breaking ties.
func (d *Dispatcher) match(ev *Event) []selected {
	d.registry.mu.RLock()
	defer d.registry.mu.RUnlock()

	var out []selected

	if cb := ev.Update.CallbackQuery; cb != nil {
		for _, h := range d.registry.callbacks {
			if h.pattern == nil || h.pattern.MatchString(cb.Data) {
				out = append(out, selected{group: h.group, order: h.order, domain: "callback", fn: h.fn})
			}
		}
		sortSelected(out)
		return out
	}

	msg := ev.Update.Message
	if msg == nil {
		return nil
	}

	if msg.IsCommand() {
		cmd := strings.ToLower(msg.Command())
		// First registered match wins within the command domain.
	matchCmd:
		for _, h := range d.registry.commands {
			for _, name := range h.names {
				if name == cmd {
					out = append(out, selected{group: h.group, order: h.order, domain: "command", guard: h.guard, fn: h.fn})
					break matchCmd
				}
			}
		}
	}

	for _, h := range d.registry.messages {
		if h.pattern != nil && !h.pattern.MatchString(msg.Text) {
			continue
		}
		out = append(out, selected{group: h.group, order: h.order, domain: "message", guard: h.guard, fn: h.fn})
	}

	sortSelected(out)
	return out
}

func classify(upd *tgbotapi.Update) string {
	switch {
	case upd.CallbackQuery != nil:
		return "callback_query"
	case upd.Message != nil && upd.Message.IsCommand():
		return "command"
	case upd.Message != nil && (upd.Message.MigrateToChatID != 0 || upd.Message.MigrateFromChatID != 0):
		return "migration"
	case upd.Message != nil:
		return "message"
	case upd.EditedMessage != nil:
		return "edited_message"
	case upd.MyChatMember != nil:
		return "my_chat_member"
	default:
		return "other"
	}
}
