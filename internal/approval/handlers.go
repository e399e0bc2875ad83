// Package approval implements the approved-users exemption list: approved
// members are ignored by the automated watchers.
package approval

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/playerxdx/Ayra/internal/admin"
	"github.com/playerxdx/Ayra/internal/botapi"
	"github.com/playerxdx/Ayra/internal/dispatch"
	"github.com/playerxdx/Ayra/internal/messages"
	"github.com/playerxdx/Ayra/internal/notify"
	"github.com/playerxdx/Ayra/internal/repository"
)

type Module struct {
	logger   *slog.Logger
	api      botapi.Client
	repo     repository.ApprovalRepository
	resolver *admin.Resolver
	notify   *notify.Service
}

func NewModule(logger *slog.Logger, api botapi.Client, repo repository.ApprovalRepository, resolver *admin.Resolver, notifySvc *notify.Service) *Module {
	return &Module{logger: logger, api: api, repo: repo, resolver: resolver, notify: notifySvc}
}

func (m *Module) Name() string {
	return "Approvals"
}

func (m *Module) Register(r *dispatch.Registry) {
	guard := m.resolver.RequireAdmin(admin.CheckOptions{Permission: admin.PermCanRestrictMembers})
	r.Command([]string{"approve"}, 0, guard, m.approve)
	r.Command([]string{"unapprove", "disapprove"}, 0, guard, m.unapprove)
	r.Command([]string{"approved"}, 0, m.resolver.RequireAdmin(admin.CheckOptions{AnonymousOK: true}), m.listApproved)
}

// target resolves the user a moderation command acts on: the author of the
// replied-to message.
func (m *Module) target(ev *dispatch.Event) *tgbotapi.User {
	msg := ev.Message()
	if msg == nil || msg.ReplyToMessage == nil {
		return nil
	}
	return msg.ReplyToMessage.From
}

func (m *Module) approve(ctx context.Context, ev *dispatch.Event) error {
	chat := ev.Chat()
	if chat == nil || chat.IsPrivate() {
		return nil
	}
	user := m.target(ev)
	if user == nil {
		m.notify.SendAutoDelete(chat.ID, messages.MsgReplyTarget)
		return nil
	}

	if err := m.repo.Approve(chat.ID, user.ID); err != nil {
		return fmt.Errorf("failed to approve user: %w", err)
	}
	text := fmt.Sprintf(messages.MsgApprovedFmt, mention(user))
	if _, err := m.api.SendMessage(chat.ID, text); err != nil {
		m.logger.Error("Failed to confirm approval", "chat_id", chat.ID, "error", err)
	}
	return nil
}

func (m *Module) unapprove(ctx context.Context, ev *dispatch.Event) error {
	chat := ev.Chat()
	if chat == nil || chat.IsPrivate() {
		return nil
	}
	user := m.target(ev)
	if user == nil {
		m.notify.SendAutoDelete(chat.ID, messages.MsgReplyTarget)
		return nil
	}

	if _, err := m.repo.Unapprove(chat.ID, user.ID); err != nil {
		return fmt.Errorf("failed to unapprove user: %w", err)
	}
	text := fmt.Sprintf(messages.MsgUnapproved, mention(user))
	if _, err := m.api.SendMessage(chat.ID, text); err != nil {
		m.logger.Error("Failed to confirm unapproval", "chat_id", chat.ID, "error", err)
	}
	return nil
}

func (m *Module) listApproved(ctx context.Context, ev *dispatch.Event) error {
	chat := ev.Chat()
	if chat == nil || chat.IsPrivate() {
		return nil
	}

	ids, err := m.repo.ListApproved(chat.ID)
	if err != nil {
		return fmt.Errorf("failed to list approved users: %w", err)
	}
	if len(ids) == 0 {
		if _, err := m.api.SendMessage(chat.ID, messages.MsgApproveNone); err != nil {
			m.logger.Error("Failed to send approved list", "chat_id", chat.ID, "error", err)
		}
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Approved users in %s:</b>\n", html.EscapeString(chat.Title))
	for _, id := range ids {
		fmt.Fprintf(&b, `  - <a href="tg://user?id=%d">%d</a>`+"\n", id, id)
	}
	if _, err := m.api.SendMessage(chat.ID, b.String()); err != nil {
		m.logger.Error("Failed to send approved list", "chat_id", chat.ID, "error", err)
	}
	return nil
}

// MigrateChat re-keys the approvals row after a group upgrade.
func (m *Module) MigrateChat(oldChatID, newChatID int64) error {
	return m.repo.Migrate(oldChatID, newChatID)
}

func mention(user *tgbotapi.User) string {
	name := user.FirstName
	if name == "" {
		name = fmt.Sprintf("user %d", user.ID)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, user.ID, html.EscapeString(name))
}
