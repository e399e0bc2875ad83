// Package module defines the contracts a feature module can satisfy. The
// application root discovers the optional capabilities via type assertion
// at wiring time.
package module

import "github.com/playerxdx/Ayra/internal/dispatch"

// Module is a self-contained feature: it names itself and registers its
// handlers on the shared registry.
type Module interface {
	Name() string
	Register(r *dispatch.Registry)
}

// SettingsProvider contributes a per-chat line to the /settings projection.
type SettingsProvider interface {
	ChatSettings(chatID int64) (string, error)
}

// StatsProvider contributes an aggregate line to the sudo /stats projection.
type StatsProvider interface {
	Stats() (string, error)
}

// Migrator re-keys a module's chat-scoped storage after a group upgrade
// changes the chat identifier.
type Migrator interface {
	MigrateChat(oldChatID, newChatID int64) error
}
