package blacklist

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"github.com/playerxdx/Ayra/internal/admin"
	"github.com/playerxdx/Ayra/internal/botapi"
	"github.com/playerxdx/Ayra/internal/dispatch"
	"github.com/playerxdx/Ayra/internal/logchannel"
	"github.com/playerxdx/Ayra/internal/messages"
	"github.com/playerxdx/Ayra/internal/notify"
	"github.com/playerxdx/Ayra/internal/repository"
	"github.com/playerxdx/Ayra/internal/timeutil"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Watcher handlers run late so command handlers in earlier groups see the
// message first.
const watcherGroup = -3

var rmallCallbackPattern = regexp.MustCompile(`^blacklists_`)

// Module wires the blacklist commands, the enforcement watcher and the
// bulk-clear callback into the registry.
type Module struct {
	logger    *slog.Logger
	api       botapi.Client
	repo      repository.BlacklistRepository
	approvals repository.ApprovalRepository
	resolver  *admin.Resolver
	notify    *notify.Service
	logch     *logchannel.Service
	engine    *Engine
}

func NewModule(
	logger *slog.Logger,
	api botapi.Client,
	repo repository.BlacklistRepository,
	approvals repository.ApprovalRepository,
	resolver *admin.Resolver,
	notifySvc *notify.Service,
	logch *logchannel.Service,
	engine *Engine,
) *Module {
	return &Module{
		logger:    logger,
		api:       api,
		repo:      repo,
		approvals: approvals,
		resolver:  resolver,
		notify:    notifySvc,
		logch:     logch,
		engine:    engine,
	}
}

func (m *Module) Name() string {
	return "Blacklists"
}

func (m *Module) Register(r *dispatch.Registry) {
	r.Command([]string{"blacklist", "blacklists", "blocklist", "blocklists"}, 0,
		m.resolver.RequireAdmin(admin.CheckOptions{AnonymousOK: true}), m.listBlacklist)

	mutationGuard := dispatch.Chain(
		m.resolver.RequireBotAdmin(admin.PermCanRestrictMembers),
		m.resolver.RequireAdmin(admin.CheckOptions{Permission: admin.PermCanChangeInfo}),
	)
	r.Command([]string{"addblacklist", "addblocklist"}, 0, mutationGuard, m.addBlacklist)
	r.Command([]string{"unblacklist", "unblocklist"}, 0, mutationGuard, m.removeBlacklist)
	r.Command([]string{"blacklistmode", "blocklistmode"}, 0, mutationGuard, m.setMode)

	r.Command([]string{"unblacklistall", "removeallblacklists", "removeallblocklists"}, 0, nil, m.promptRemoveAll)
	r.Callback(rmallCallbackPattern, 0, m.removeAllCallback)

	r.Message(nil, watcherGroup, m.resolver.RequireNotAdmin(), m.enforceMessage)
}

func (m *Module) listBlacklist(ctx context.Context, ev *dispatch.Event) error {
	chat := ev.Chat()
	if chat == nil {
		return nil
	}

	rules, err := m.repo.GetRules(chat.ID)
	if err != nil {
		return fmt.Errorf("failed to list blacklist: %w", err)
	}
	if len(rules) == 0 {
		if _, err := m.api.SendMessage(chat.ID, fmt.Sprintf(messages.MsgBlacklistEmptyFmt, html.EscapeString(chat.Title))); err != nil {
			m.logger.Error("Failed to send empty blacklist notice", "chat_id", chat.ID, "error", err)
		}
		return nil
	}

	mode, duration, err := m.repo.GetMode(chat.ID)
	if err != nil {
		return fmt.Errorf("failed to get blacklist mode: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Blacklist settings for %s</b>:\n", html.EscapeString(chat.Title))
	fmt.Fprintf(&b, "<b>Current blacklist mode:</b> %s\n", describeMode(Action(mode), duration))
	fmt.Fprintf(&b, "\n<b>Current blacklisted words (<i>%d</i>):</b>\n", len(rules))
	for _, rule := range rules {
		fmt.Fprintf(&b, "  - <code>%s</code> [%s]\n", html.EscapeString(rule.Trigger), Action(rule.Action))
	}

	if _, err := m.api.SendMessage(chat.ID, b.String()); err != nil {
		m.logger.Error("Failed to send blacklist listing", "chat_id", chat.ID, "error", err)
	}
	return nil
}

// extractTriggerAction splits an optional trailing "{action}" off a trigger
// line: "casino {ban}" blacklists "casino" with the ban action.
func extractTriggerAction(text string) (string, Action) {
	open := strings.LastIndex(text, "{")
	end := strings.LastIndex(text, "}")
	if open == -1 || end == -1 || end < open {
		return text, ActionDefault
	}
	action, ok := ParseAction(strings.TrimSpace(text[open+1 : end]))
	if !ok {
		return text, ActionDefault
	}
	return strings.TrimSpace(text[:open]), action
}

func (m *Module) addBlacklist(ctx context.Context, ev *dispatch.Event) error {
	msg := ev.Message()
	chat := ev.Chat()
	if msg == nil || chat == nil {
		return nil
	}

	args := msg.CommandArguments()
	if strings.TrimSpace(args) == "" {
		m.notify.SendAutoDelete(chat.ID, messages.MsgBlacklistAddUsage)
		return nil
	}

	// One trigger per line; duplicates collapse at input time.
	seen := make(map[string]struct{})
	var triggers []string
	for _, line := range strings.Split(args, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		triggers = append(triggers, line)
	}

	var lastTrigger string
	var lastAction Action
	for _, raw := range triggers {
		trigger, action := extractTriggerAction(raw)
		if err := m.repo.AddRule(chat.ID, trigger, int(action)); err != nil {
			if errors.Is(err, repository.ErrRuleCapExceeded) {
				m.notify.SendAutoDelete(chat.ID, messages.MsgBlacklistCapReached)
				return nil
			}
			return fmt.Errorf("failed to add blacklist trigger: %w", err)
		}
		lastTrigger, lastAction = repository.NormalizeTrigger(trigger), action
	}

	if len(triggers) == 1 {
		text := fmt.Sprintf(messages.MsgBlacklistAddedFmt, html.EscapeString(lastTrigger), lastAction)
		if _, err := m.api.SendMessage(chat.ID, text); err != nil {
			m.logger.Error("Failed to confirm blacklist add", "chat_id", chat.ID, "error", err)
		}
		return nil
	}
	text := fmt.Sprintf(messages.MsgBlacklistAddedAllFmt, len(triggers), html.EscapeString(chat.Title))
	if _, err := m.api.SendMessage(chat.ID, text); err != nil {
		m.logger.Error("Failed to confirm blacklist add", "chat_id", chat.ID, "error", err)
	}
	return nil
}

func (m *Module) removeBlacklist(ctx context.Context, ev *dispatch.Event) error {
	msg := ev.Message()
	chat := ev.Chat()
	if msg == nil || chat == nil {
		return nil
	}

	args := msg.CommandArguments()
	if strings.TrimSpace(args) == "" {
		m.notify.SendAutoDelete(chat.ID, messages.MsgBlacklistRemoveUsage)
		return nil
	}

	seen := make(map[string]struct{})
	var triggers []string
	for _, line := range strings.Split(args, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		triggers = append(triggers, line)
	}

	removed := 0
	for _, trigger := range triggers {
		ok, err := m.repo.RemoveRule(chat.ID, trigger)
		if err != nil {
			return fmt.Errorf("failed to remove blacklist trigger: %w", err)
		}
		if ok {
			removed++
		}
	}

	var text string
	switch {
	case len(triggers) == 1 && removed == 1:
		text = fmt.Sprintf(messages.MsgBlacklistRemovedFmt, html.EscapeString(triggers[0]), html.EscapeString(chat.Title))
	case len(triggers) == 1:
		text = messages.MsgBlacklistNotTrigger
	case removed == 0:
		text = messages.MsgBlacklistNoneRemoved
	case removed == len(triggers):
		text = fmt.Sprintf(messages.MsgBlacklistRemovedFmt, fmt.Sprintf("%d", removed), html.EscapeString(chat.Title))
	default:
		text = fmt.Sprintf(messages.MsgBlacklistRemovedN, removed, len(triggers)-removed)
	}
	if _, err := m.api.SendMessage(chat.ID, text); err != nil {
		m.logger.Error("Failed to confirm blacklist removal", "chat_id", chat.ID, "error", err)
	}
	return nil
}

func (m *Module) setMode(ctx context.Context, ev *dispatch.Event) error {
	chat := ev.Chat()
	if chat == nil {
		return nil
	}
	args := ev.Args()

	if len(args) == 0 {
		mode, duration, err := m.repo.GetMode(chat.ID)
		if err != nil {
			return fmt.Errorf("failed to get blacklist mode: %w", err)
		}
		text := fmt.Sprintf("Current blacklist mode: <b>%s</b>.", describeMode(Action(mode), duration))
		if _, err := m.api.SendMessage(chat.ID, text); err != nil {
			m.logger.Error("Failed to send blacklist mode", "chat_id", chat.ID, "error", err)
		}
		return nil
	}

	var action Action
	duration := "0"
	mode := strings.ToLower(args[0])
	switch mode {
	case "off", "nothing", "no":
		action = ActionDefault
	case "del", "delete":
		action = ActionDelete
	case "warn":
		action = ActionWarn
	case "mute":
		action = ActionMute
	case "kick":
		action = ActionKick
	case "ban":
		action = ActionBan
	case "tban", "tmute":
		if mode == "tban" {
			action = ActionTBan
		} else {
			action = ActionTMute
		}
		if len(args) < 2 {
			m.notify.SendAutoDelete(chat.ID, messages.MsgBlacklistModeTimeReq)
			return nil
		}
		if _, err := timeutil.ParseShortDuration(args[1]); err != nil {
			m.notify.SendAutoDelete(chat.ID, messages.MsgBlacklistModeBadTime)
			return nil
		}
		duration = args[1]
	default:
		m.notify.SendAutoDelete(chat.ID, messages.MsgBlacklistModeUsage)
		return nil
	}

	if err := m.repo.SetMode(chat.ID, int(action), duration); err != nil {
		return fmt.Errorf("failed to set blacklist mode: %w", err)
	}

	text := fmt.Sprintf(messages.MsgBlacklistModeSetFmt, describeMode(action, duration))
	if _, err := m.api.SendMessage(chat.ID, text); err != nil {
		m.logger.Error("Failed to confirm blacklist mode", "chat_id", chat.ID, "error", err)
	}
	if ev.User != nil {
		m.logch.Log(fmt.Sprintf("#BLACKLIST_MODE chat=%d admin=%d mode=%s duration=%s", chat.ID, ev.User.ID, action, duration))
	}
	return nil
}

func describeMode(action Action, duration string) string {
	switch action {
	case ActionDefault:
		return "Do nothing"
	case ActionDelete:
		return "Delete"
	case ActionWarn:
		return "Warn"
	case ActionMute:
		return "Mute"
	case ActionKick:
		return "Kick"
	case ActionBan:
		return "Ban"
	case ActionTBan:
		return fmt.Sprintf("Temporarily ban for %s", duration)
	case ActionTMute:
		return fmt.Sprintf("Temporarily mute for %s", duration)
	default:
		return "Do nothing"
	}
}

// promptRemoveAll asks for confirmation before clearing every rule. Gated
// to the chat owner or a sudo user; the gate runs again at confirmation
// time since admin status can change while the prompt sits there.
func (m *Module) promptRemoveAll(ctx context.Context, ev *dispatch.Event) error {
	chat := ev.Chat()
	if chat == nil || ev.User == nil || chat.IsPrivate() {
		return nil
	}

	isOwner, err := m.resolver.IsChatOwner(ctx, chat.ID, ev.User.ID)
	if err != nil {
		return fmt.Errorf("failed to check owner status: %w", err)
	}
	if !isOwner {
		m.notify.SendAutoDelete(chat.ID, messages.MsgBlacklistOwnerOnly)
		return nil
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Remove all blacklists", "blacklists_rmall"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel", "blacklists_cancel"),
		),
	)
	text := fmt.Sprintf(messages.MsgBlacklistRmallAskFmt, html.EscapeString(chat.Title))
	if _, err := m.api.SendMessageWithMarkup(chat.ID, text, markup); err != nil {
		return fmt.Errorf("failed to send bulk-clear prompt: %w", err)
	}
	return nil
}

// removeAllCallback handles both branches of the confirmation prompt. The
// two buttons share the blacklists_ data prefix and split here.
func (m *Module) removeAllCallback(ctx context.Context, ev *dispatch.Event) error {
	cb := ev.Update.CallbackQuery
	if cb == nil || cb.Message == nil {
		return nil
	}
	chat := cb.Message.Chat
	userID := cb.From.ID

	isOwner, err := m.resolver.IsChatOwner(ctx, chat.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to re-check owner status: %w", err)
	}
	if !isOwner {
		isAdmin, err := m.resolver.IsChatAdmin(ctx, chat.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to check admin status: %w", err)
		}
		text := messages.MsgCbAdminOnly
		if isAdmin {
			text = messages.MsgCbOwnerOnly
		}
		return m.api.AnswerCallbackQuery(cb.ID, text, false)
	}

	switch cb.Data {
	case "blacklists_rmall":
		count, err := m.repo.RemoveAllRules(chat.ID)
		if err != nil {
			return fmt.Errorf("failed to clear blacklist: %w", err)
		}
		if count == 0 {
			if err := m.api.EditMessageText(chat.ID, cb.Message.MessageID, messages.MsgBlacklistRmallNone); err != nil {
				m.logger.Error("Failed to edit bulk-clear prompt", "chat_id", chat.ID, "error", err)
			}
			return m.api.AnswerCallbackQuery(cb.ID, "", false)
		}
		text := fmt.Sprintf(messages.MsgBlacklistClearedFmt, count, html.EscapeString(chat.Title))
		if err := m.api.EditMessageText(chat.ID, cb.Message.MessageID, text); err != nil {
			m.logger.Error("Failed to edit bulk-clear prompt", "chat_id", chat.ID, "error", err)
		}
		m.logch.Log(fmt.Sprintf("#CLEAREDALLBLACKLISTS chat=%d admin=%d count=%d", chat.ID, userID, count))
		return m.api.AnswerCallbackQuery(cb.ID, "", false)

	case "blacklists_cancel":
		if err := m.api.EditMessageText(chat.ID, cb.Message.MessageID, messages.MsgBlacklistCancelled); err != nil {
			m.logger.Error("Failed to edit bulk-clear prompt", "chat_id", chat.ID, "error", err)
		}
		return m.api.AnswerCallbackQuery(cb.ID, "", false)
	}
	return nil
}

// enforceMessage is the watcher: evaluates group text against the chat's
// rules and executes the escalation. Approved users are exempt; admins were
// already filtered by the guard.
func (m *Module) enforceMessage(ctx context.Context, ev *dispatch.Event) error {
	msg := ev.Message()
	chat := ev.Chat()
	if msg == nil || chat == nil || ev.User == nil {
		return nil
	}
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		return nil
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" {
		return nil
	}

	approved, err := m.approvals.IsApproved(chat.ID, ev.User.ID)
	if err != nil {
		return fmt.Errorf("failed to check approval: %w", err)
	}
	if approved {
		return nil
	}

	match, err := m.engine.Evaluate(ctx, chat.ID, text)
	if err != nil {
		return err
	}
	if match == nil {
		return nil
	}

	m.logger.Info("Blacklist trigger matched",
		"chat_id", chat.ID, "user_id", ev.User.ID, "trigger", match.Trigger, "action", match.Action.String())
	return m.engine.Enforce(ctx, chat.ID, msg, ev.User, match)
}

// MigrateChat re-keys this module's storage after a group upgrade. The
// approve list migrates with its own module.
func (m *Module) MigrateChat(oldChatID, newChatID int64) error {
	return m.repo.Migrate(oldChatID, newChatID)
}

// ChatSettings is the per-chat summary line for the settings projection.
func (m *Module) ChatSettings(chatID int64) (string, error) {
	count, err := m.repo.CountRules(chatID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("There are %d blacklisted words.", count), nil
}

// Stats is the aggregate line for the stats projection.
func (m *Module) Stats() (string, error) {
	rules, chats, err := m.repo.CountAll()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d blacklist triggers, across %d chats.", rules, chats), nil
}
