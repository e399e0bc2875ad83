package blacklist

// Action is the escalation tied to a matched trigger. The integer values are
// persisted, so the order is part of the storage contract.
type Action int

const (
	ActionDefault Action = iota
	ActionDelete
	ActionWarn
	ActionMute
	ActionKick
	ActionBan
	ActionTBan
	ActionTMute
)

var actionNames = map[Action]string{
	ActionDefault: "default",
	ActionDelete:  "delete",
	ActionWarn:    "warn",
	ActionMute:    "mute",
	ActionKick:    "kick",
	ActionBan:     "ban",
	ActionTBan:    "tban",
	ActionTMute:   "tmute",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAction maps a user-supplied action name to an Action.
func ParseAction(s string) (Action, bool) {
	for a, name := range actionNames {
		if name == s {
			return a, true
		}
	}
	return ActionDefault, false
}

// IsTimed reports whether the action carries a duration.
func (a Action) IsTimed() bool {
	return a == ActionTBan || a == ActionTMute
}
