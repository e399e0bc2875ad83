package blacklist

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/playerxdx/Ayra/internal/botapi"
	"github.com/playerxdx/Ayra/internal/logchannel"
	"github.com/playerxdx/Ayra/internal/messages"
	"github.com/playerxdx/Ayra/internal/metrics"
	"github.com/playerxdx/Ayra/internal/repository"
	"github.com/playerxdx/Ayra/internal/timeutil"
)

// Warner is the external warning subsystem the warn action hands off to.
type Warner interface {
	Warn(chatID int64, user *tgbotapi.User, reason string) error
}

// Match is the outcome of evaluating a message against a chat's rules: the
// trigger that fired and the effective escalation after mode fallback.
type Match struct {
	Trigger  string
	Action   Action
	Duration string
}

// Engine evaluates chat messages against the stored rules and executes the
// resulting escalation against the transport.
type Engine struct {
	logger *slog.Logger
	api    botapi.Client
	repo   repository.BlacklistRepository
	warner Warner
	logch  *logchannel.Service
	tracer trace.Tracer
}

func NewEngine(logger *slog.Logger, api botapi.Client, repo repository.BlacklistRepository, warner Warner, logch *logchannel.Service) *Engine {
	return &Engine{
		logger: logger,
		api:    api,
		repo:   repo,
		warner: warner,
		logch:  logch,
		tracer: otel.Tracer("blacklist"),
	}
}

// boundaryPattern builds the word-boundary-safe matcher for a trigger: the
// trigger must be flanked by whitespace, the string edges, or non-word
// characters. Plain substring containment would match inside unrelated
// words.
func boundaryPattern(trigger string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)( |^|[^\w])` + regexp.QuoteMeta(trigger) + `( |$|[^\w])`)
}

// Evaluate matches text against the chat's rules in storage order; the
// first matching rule wins. A rule carrying the default action falls back
// to the chat's configured mode and duration. Returns nil when nothing
// matches.
func (e *Engine) Evaluate(ctx context.Context, chatID int64, text string) (*Match, error) {
	_, span := e.tracer.Start(ctx, "Evaluate")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat_id", chatID))

	rules, err := e.repo.GetRules(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, nil
	}

	mode, duration, err := e.repo.GetMode(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mode: %w", err)
	}

	for _, rule := range rules {
		pattern, err := boundaryPattern(rule.Trigger)
		if err != nil {
			e.logger.Warn("Skipping unmatchable trigger", "chat_id", chatID, "trigger", rule.Trigger, "error", err)
			continue
		}
		if !pattern.MatchString(text) {
			continue
		}

		match := &Match{Trigger: rule.Trigger, Action: Action(rule.Action)}
		if match.Action == ActionDefault {
			match.Action = Action(mode)
		}
		// Timed actions always take the chat's configured duration,
		// whether the action came from the rule or the mode.
		if match.Action.IsTimed() {
			match.Duration = duration
		}
		return match, nil
	}
	return nil, nil
}

// Enforce executes the match's escalation: delete the message and apply the
// action to the sender. A message that is already gone counts as deleted;
// any other transport failure is logged and swallowed, never surfaced to
// the chat.
func (e *Engine) Enforce(ctx context.Context, chatID int64, msg *tgbotapi.Message, user *tgbotapi.User, match *Match) error {
	_, span := e.tracer.Start(ctx, "Enforce")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("chat_id", chatID),
		attribute.String("action", match.Action.String()),
	)

	metrics.IncBlacklistHit(match.Action.String())

	if match.Action == ActionDefault {
		return nil
	}

	e.logch.Evidence(chatID, msg.MessageID)
	if err := e.api.DeleteMessage(chatID, msg.MessageID); err != nil {
		if !botapi.IsMessageGone(err) {
			e.logger.Error("Failed to delete blacklisted message", "chat_id", chatID, "message_id", msg.MessageID, "error", err)
			return nil
		}
	} else {
		metrics.IncDeletedMessages("blacklist")
	}

	name := senderName(msg, user)

	switch match.Action {
	case ActionDelete:
		// Message removal is the whole punishment.

	case ActionWarn:
		if err := e.warner.Warn(chatID, user, fmt.Sprintf(messages.MsgWarnReason, match.Trigger)); err != nil {
			e.logger.Error("Failed to warn user", "chat_id", chatID, "user_id", user.ID, "error", err)
		}

	case ActionMute:
		if err := e.api.RestrictChatMember(chatID, user.ID, time.Time{}); err != nil {
			e.logger.Error("Failed to mute user", "chat_id", chatID, "user_id", user.ID, "error", err)
			return nil
		}
		e.announce(chatID, fmt.Sprintf(messages.MsgMutedFmt, name, match.Trigger))

	case ActionKick:
		if err := e.api.UnbanChatMember(chatID, user.ID); err != nil {
			e.logger.Error("Failed to kick user", "chat_id", chatID, "user_id", user.ID, "error", err)
			return nil
		}
		e.announce(chatID, fmt.Sprintf(messages.MsgKickedFmt, name, match.Trigger))

	case ActionBan:
		if err := e.api.BanChatMember(chatID, user.ID, time.Time{}); err != nil {
			e.logger.Error("Failed to ban user", "chat_id", chatID, "user_id", user.ID, "error", err)
			return nil
		}
		e.announce(chatID, fmt.Sprintf(messages.MsgBannedFmt, name, match.Trigger))

	case ActionTBan:
		until, err := timeutil.ExtractExpiry(match.Duration)
		if err != nil {
			e.logger.Error("Invalid tban duration configured", "chat_id", chatID, "duration", match.Duration, "error", err)
			return nil
		}
		if err := e.api.BanChatMember(chatID, user.ID, until); err != nil {
			e.logger.Error("Failed to tban user", "chat_id", chatID, "user_id", user.ID, "error", err)
			return nil
		}
		e.announce(chatID, fmt.Sprintf(messages.MsgTBannedFmt, name, match.Duration, match.Trigger))

	case ActionTMute:
		until, err := timeutil.ExtractExpiry(match.Duration)
		if err != nil {
			e.logger.Error("Invalid tmute duration configured", "chat_id", chatID, "duration", match.Duration, "error", err)
			return nil
		}
		if err := e.api.RestrictChatMember(chatID, user.ID, until); err != nil {
			e.logger.Error("Failed to tmute user", "chat_id", chatID, "user_id", user.ID, "error", err)
			return nil
		}
		e.announce(chatID, fmt.Sprintf(messages.MsgTMutedFmt, name, match.Duration, match.Trigger))
	}

	e.logch.Log(fmt.Sprintf("#BLACKLIST chat=%d user=%d action=%s trigger=%s", chatID, user.ID, match.Action, match.Trigger))
	return nil
}

func (e *Engine) announce(chatID int64, text string) {
	if _, err := e.api.SendMessage(chatID, text); err != nil {
		e.logger.Error("Failed to announce enforcement", "chat_id", chatID, "error", err)
	}
}

func senderName(msg *tgbotapi.Message, user *tgbotapi.User) string {
	if msg != nil && msg.SenderChat != nil && msg.SenderChat.Title != "" {
		return msg.SenderChat.Title
	}
	if user == nil {
		return "User"
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.UserName != "" {
		return "@" + user.UserName
	}
	return fmt.Sprintf("user %d", user.ID)
}
