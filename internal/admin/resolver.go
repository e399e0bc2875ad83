package admin

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/playerxdx/Ayra/internal/botapi"
	"github.com/playerxdx/Ayra/internal/dispatch"
	"github.com/playerxdx/Ayra/internal/messages"
)

// CheckOptions tune a single authorization decision.
type CheckOptions struct {
	// Permission, when not PermNone, additionally requires the specific
	// admin right (the creator implicitly satisfies any).
	Permission Permission
	// AllowModerators widens the superuser bypass from the sudo set to the
	// moderator set as well.
	AllowModerators bool
	// AnonymousOK authorizes anonymous channel-identities outright instead
	// of issuing an identity challenge.
	AnonymousOK bool
	// NoReply suppresses the user-visible rejection message on denial.
	NoReply bool
}

// Resolver decides whether the acting principal may perform a privileged
// action, and runs the anonymous challenge protocol when the principal
// cannot be known up front.
type Resolver struct {
	logger  *slog.Logger
	api     botapi.Client
	cache   *Cache
	pending *PendingActions
	sudo    map[int64]struct{}
	mods    map[int64]struct{}
	tracer  trace.Tracer
}

func NewResolver(logger *slog.Logger, api botapi.Client, cache *Cache, sudoIDs, modIDs []int64) *Resolver {
	sudo := make(map[int64]struct{}, len(sudoIDs))
	for _, id := range sudoIDs {
		sudo[id] = struct{}{}
	}
	// Sudo users are moderators too.
	mods := make(map[int64]struct{}, len(modIDs)+len(sudoIDs))
	for _, id := range modIDs {
		mods[id] = struct{}{}
	}
	for _, id := range sudoIDs {
		mods[id] = struct{}{}
	}
	return &Resolver{
		logger:  logger,
		api:     api,
		cache:   cache,
		pending: NewPendingActions(),
		sudo:    sudo,
		mods:    mods,
		tracer:  otel.Tracer("admin"),
	}
}

// Pending exposes the suspended-action table, mainly for the metrics
// updater.
func (r *Resolver) Pending() *PendingActions {
	return r.pending
}

func (r *Resolver) IsSudo(userID int64) bool {
	_, ok := r.sudo[userID]
	return ok
}

// IsChatOwner reports whether userID is the chat's creator or a sudo user.
// Used by operations gated above plain adminship, like bulk clears.
func (r *Resolver) IsChatOwner(ctx context.Context, chatID, userID int64) (bool, error) {
	if r.IsSudo(userID) {
		return true, nil
	}
	member, found, err := r.cache.Member(chatID, userID)
	if err != nil {
		return false, err
	}
	return found && member.IsCreator(), nil
}

// IsChatAdmin reports roster adminship without the event-level shortcuts.
func (r *Resolver) IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	member, found, err := r.cache.Member(chatID, userID)
	if err != nil {
		return false, err
	}
	return found && (member.IsAdministrator() || member.IsCreator()), nil
}

// IsAuthorized evaluates the authorization rules for a concrete user, in
// order: private chats always pass; superuser sets pass; anonymous opt-in
// passes; otherwise the user must be in the chat's admin roster with the
// required permission.
func (r *Resolver) IsAuthorized(ctx context.Context, ev *dispatch.Event, userID int64, opts CheckOptions) (bool, error) {
	_, span := r.tracer.Start(ctx, "IsAuthorized")
	defer span.End()

	chat := ev.Chat()
	if chat == nil {
		return false, nil
	}
	if chat.IsPrivate() {
		return true, nil
	}

	if opts.AllowModerators {
		if _, ok := r.mods[userID]; ok {
			return true, nil
		}
	} else if _, ok := r.sudo[userID]; ok {
		return true, nil
	}

	if opts.AnonymousOK && ev.IsAnonymous() {
		return true, nil
	}

	member, found, err := r.cache.Member(chat.ID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve member %d in chat %d: %w", userID, chat.ID, err)
	}
	if !found {
		return false, nil
	}
	if !member.IsAdministrator() && !member.IsCreator() {
		return false, nil
	}
	return HasPermission(member, opts.Permission), nil
}

// IsUserAdmin is the watcher-side convenience check: anonymous channel
// senders count as admins, moderators are allowed.
func (r *Resolver) IsUserAdmin(ctx context.Context, ev *dispatch.Event, userID int64) (bool, error) {
	return r.IsAuthorized(ctx, ev, userID, CheckOptions{AnonymousOK: true, AllowModerators: true})
}

// RequireAdmin produces a guard enforcing the check before the handler body
// runs. Anonymous senders get an identity challenge and the body is
// suspended until the button press resolves them (see anonymous.go).
func (r *Resolver) RequireAdmin(opts CheckOptions) dispatch.Guard {
	return func(ctx context.Context, ev *dispatch.Event, next dispatch.HandlerFunc) error {
		chat := ev.Chat()
		if chat == nil {
			return nil
		}
		if chat.IsPrivate() {
			return next(ctx, ev)
		}

		if ev.IsAnonymous() && !opts.AnonymousOK {
			return r.issueChallenge(ctx, ev, opts.Permission, next)
		}

		if ev.User == nil {
			return nil
		}
		ok, err := r.IsAuthorized(ctx, ev, ev.User.ID, opts)
		if err != nil {
			return err
		}
		if ok {
			return next(ctx, ev)
		}

		if !opts.NoReply {
			r.replyDenied(ev, opts.Permission)
		}
		return nil
	}
}

// RequireNotAdmin runs the handler only for ordinary members: admins,
// moderators, anonymous channel-identities and automatic channel forwards
// are all exempt. This is the enforcement-side guard; it never replies.
func (r *Resolver) RequireNotAdmin() dispatch.Guard {
	return func(ctx context.Context, ev *dispatch.Event, next dispatch.HandlerFunc) error {
		msg := ev.Message()
		if msg == nil || msg.IsAutomaticForward {
			return nil
		}
		if ev.IsAnonymous() {
			return nil
		}
		if ev.User == nil {
			return nil
		}
		isAdmin, err := r.IsUserAdmin(ctx, ev, ev.User.ID)
		if err != nil {
			return err
		}
		if isAdmin {
			return nil
		}
		return next(ctx, ev)
	}
}

// RequireBotAdmin guards on the bot's own membership: the handler only runs
// when the bot is an administrator holding perm in the chat.
func (r *Resolver) RequireBotAdmin(perm Permission) dispatch.Guard {
	return func(ctx context.Context, ev *dispatch.Event, next dispatch.HandlerFunc) error {
		chat := ev.Chat()
		if chat == nil {
			return nil
		}
		if chat.IsPrivate() {
			return next(ctx, ev)
		}

		member, err := r.cache.BotMember(chat.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch bot membership for chat %d: %w", chat.ID, err)
		}
		if !member.IsAdministrator() {
			r.replyTo(ev, messages.MsgBotNotAdmin)
			return nil
		}
		if perm != PermNone && !HasPermission(member, perm) {
			r.replyTo(ev, fmt.Sprintf(messages.MsgBotMissingPermFmt, perm))
			return nil
		}
		return next(ctx, ev)
	}
}

func (r *Resolver) replyDenied(ev *dispatch.Event, perm Permission) {
	text := messages.MsgNotAdmin
	if perm != PermNone {
		text = fmt.Sprintf(messages.MsgMissingPermFmt, perm)
	}
	r.replyTo(ev, text)
}

func (r *Resolver) replyTo(ev *dispatch.Event, text string) {
	msg := ev.Message()
	if msg == nil {
		return
	}
	if _, err := r.api.ReplyMessage(msg.Chat.ID, msg.MessageID, text); err != nil {
		r.logger.Error("Failed to send rejection reply", "chat_id", msg.Chat.ID, "error", err)
	}
}
