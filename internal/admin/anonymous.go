package admin

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/playerxdx/Ayra/internal/dispatch"
	"github.com/playerxdx/Ayra/internal/messages"
	"github.com/playerxdx/Ayra/internal/metrics"
)

// ChallengeCallbackPattern matches the opaque payload carried by the
// identity-challenge button: anoncb/<chat_id>/<message_id>/<perm>.
var ChallengeCallbackPattern = regexp.MustCompile(`^anoncb/`)

type pendingKey struct {
	chatID    int64
	messageID int
}

// PendingAction is a suspended guarded handler: the original event plus the
// handler body it was about to run, waiting for someone to prove they are
// an admin.
type PendingAction struct {
	Event        *dispatch.Event
	Continuation dispatch.HandlerFunc
	Permission   Permission
	PromptID     int
}

// PendingActions is the process-wide table of suspended anonymous actions,
// keyed by the originating (chat, message). Entries have no expiry; a
// challenge button stays live until its single use. The table size is
// exported as a gauge so growth is at least visible.
type PendingActions struct {
	mu sync.Mutex
	m  map[pendingKey]*PendingAction
}

func NewPendingActions() *PendingActions {
	return &PendingActions{m: make(map[pendingKey]*PendingAction)}
}

func (p *PendingActions) Put(chatID int64, messageID int, action *PendingAction) {
	p.mu.Lock()
	p.m[pendingKey{chatID, messageID}] = action
	p.mu.Unlock()
	metrics.SetPendingChallenges(float64(p.Len()))
}

// Take removes and returns the entry. Removal happens before any resumption
// so a pressed button can never fire twice: of two racing presses exactly
// one sees ok.
func (p *PendingActions) Take(chatID int64, messageID int) (*PendingAction, bool) {
	p.mu.Lock()
	key := pendingKey{chatID, messageID}
	action, ok := p.m[key]
	if ok {
		delete(p.m, key)
	}
	p.mu.Unlock()
	metrics.SetPendingChallenges(float64(p.Len()))
	return action, ok
}

// Peek reports whether an entry exists without consuming it.
func (p *PendingActions) Peek(chatID int64, messageID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[pendingKey{chatID, messageID}]
	return ok
}

func (p *PendingActions) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// issueChallenge suspends next and replies to the anonymous sender with a
// single proof-of-identity button. Execution resumes, on a different
// worker, when HandleChallengeCallback processes the press.
func (r *Resolver) issueChallenge(ctx context.Context, ev *dispatch.Event, perm Permission, next dispatch.HandlerFunc) error {
	_, span := r.tracer.Start(ctx, "issueChallenge")
	defer span.End()

	msg := ev.Message()
	if msg == nil {
		return nil
	}

	payload := fmt.Sprintf("anoncb/%d/%d/%s", msg.Chat.ID, msg.MessageID, perm)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.MsgAnonChallengeBtn, payload),
		),
	)

	prompt, err := r.api.ReplyWithMarkup(msg.Chat.ID, msg.MessageID, messages.MsgAnonChallenge, markup)
	if err != nil {
		return fmt.Errorf("failed to send identity challenge: %w", err)
	}

	r.pending.Put(msg.Chat.ID, msg.MessageID, &PendingAction{
		Event:        ev,
		Continuation: next,
		Permission:   perm,
		PromptID:     prompt.MessageID,
	})
	r.logger.Info("Suspended anonymous action pending identity proof",
		"chat_id", msg.Chat.ID, "message_id", msg.MessageID, "permission", perm.String())
	return nil
}

// HandleChallengeCallback processes a press on the challenge button. An
// unauthorized presser gets an alert and the action stays pending; the
// first authorized presser consumes the entry, becomes the effective
// sender, and the suspended handler resumes. Anyone pressing after
// consumption gets the expired alert.
func (r *Resolver) HandleChallengeCallback(ctx context.Context, ev *dispatch.Event) error {
	cb := ev.Update.CallbackQuery
	if cb == nil {
		return nil
	}

	chatID, messageID, perm, err := parseChallengePayload(cb.Data)
	if err != nil {
		r.logger.Warn("Malformed challenge payload", "data", cb.Data, "error", err)
		return r.api.AnswerCallbackQuery(cb.ID, messages.MsgButtonExpired, true)
	}

	if !r.pending.Peek(chatID, messageID) {
		return r.api.AnswerCallbackQuery(cb.ID, messages.MsgButtonExpired, true)
	}

	userID := cb.From.ID
	ok, err := r.IsAuthorized(ctx, ev, userID, CheckOptions{Permission: perm})
	if err != nil {
		return fmt.Errorf("failed to check presser authorization: %w", err)
	}
	if !ok {
		// Wrong presser; the original action stays pending for the real
		// admin.
		text := messages.MsgNotAdmin
		if perm != PermNone {
			text = fmt.Sprintf(messages.MsgMissingPermFmt, perm)
		}
		return r.api.AnswerCallbackQuery(cb.ID, text, true)
	}

	action, taken := r.pending.Take(chatID, messageID)
	if !taken {
		// Lost the race against a concurrent authorized press.
		return r.api.AnswerCallbackQuery(cb.ID, messages.MsgButtonExpired, true)
	}

	if err := r.api.AnswerCallbackQuery(cb.ID, "", false); err != nil {
		r.logger.Warn("Failed to answer challenge callback", "error", err)
	}
	if err := r.api.DeleteMessage(chatID, action.PromptID); err != nil {
		r.logger.Warn("Failed to delete challenge message", "chat_id", chatID, "error", err)
	}

	// Resume with the presser as the effective sender.
	resumed := *action.Event
	resumed.User = cb.From
	r.logger.Info("Resuming suspended action", "chat_id", chatID, "message_id", messageID, "user_id", userID)
	return action.Continuation(ctx, &resumed)
}

func parseChallengePayload(data string) (chatID int64, messageID int, perm Permission, err error) {
	parts := strings.Split(data, "/")
	if len(parts) != 4 || parts[0] != "anoncb" {
		return 0, 0, PermNone, fmt.Errorf("bad challenge payload %q", data)
	}
	chatID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, PermNone, fmt.Errorf("bad chat id in payload %q", data)
	}
	messageID, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, PermNone, fmt.Errorf("bad message id in payload %q", data)
	}
	return chatID, messageID, ParsePermission(parts[3]), nil
}
