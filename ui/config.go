package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	// Play notes by clicking their keys
	EnableMouse bool

	// Highlight color of the key that is sounding
	HighlightColor string `env:"KEYPIANO_HIGHLIGHT_COLOR" envDefault:"#FFD700"`

	// Minimum gap between two plays of the same key; swallows terminal
	// auto-repeat
	KeyRepeatInterval time.Duration `env:"KEYPIANO_KEY_REPEAT" envDefault:"80ms"`

	// For debugging the UI
	AltScreen bool `env:"KEYPIANO_ALT_SCREEN" envDefault:"true"`
}
