package admin

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Permission is the fixed set of admin rights the bot cares about. Lookups
// are explicit field checks rather than string-keyed reflection.
type Permission int

const (
	PermNone Permission = iota
	PermCanRestrictMembers
	PermCanPromoteMembers
	PermCanInviteUsers
	PermCanDeleteMessages
	PermCanChangeInfo
	PermCanPinMessages
	PermIsAnonymous
)

var permNames = map[Permission]string{
	PermNone:               "none",
	PermCanRestrictMembers: "can_restrict_members",
	PermCanPromoteMembers:  "can_promote_members",
	PermCanInviteUsers:     "can_invite_users",
	PermCanDeleteMessages:  "can_delete_messages",
	PermCanChangeInfo:      "can_change_info",
	PermCanPinMessages:     "can_pin_messages",
	PermIsAnonymous:        "is_anonymous",
}

func (p Permission) String() string {
	if name, ok := permNames[p]; ok {
		return name
	}
	return "unknown"
}

func ParsePermission(s string) Permission {
	for p, name := range permNames {
		if name == s {
			return p
		}
	}
	return PermNone
}

// HasPermission reports whether member holds p. The chat creator implicitly
// holds every permission regardless of the explicit flags.
func HasPermission(member tgbotapi.ChatMember, p Permission) bool {
	if member.IsCreator() {
		return true
	}
	switch p {
	case PermNone:
		return true
	case PermCanRestrictMembers:
		return member.CanRestrictMembers
	case PermCanPromoteMembers:
		return member.CanPromoteMembers
	case PermCanInviteUsers:
		return member.CanInviteUsers
	case PermCanDeleteMessages:
		return member.CanDeleteMessages
	case PermCanChangeInfo:
		return member.CanChangeInfo
	case PermCanPinMessages:
		return member.CanPinMessages
	case PermIsAnonymous:
		return member.IsAnonymous
	default:
		return false
	}
}
