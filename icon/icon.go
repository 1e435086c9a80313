// Package icon renders feedback symbols for CLI output in a configurable variant.
package icon

import (
	"github.com/gauravRathod674/OtakuRealm/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	plain   = "plain"
	squares = "squares"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, plain, squares}
}

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Cache
	Fresh
	Stale
)

type iconDef struct {
	emoji   string
	plain   string
	squares string
}

var icons = map[Icon]*iconDef{
	Success:  {emoji: "🎉", plain: "✓", squares: "🟩"},
	Fail:     {emoji: "💀", plain: "✗", squares: "🟥"},
	Progress: {emoji: "⏳", plain: "…", squares: "🟦"},
	Cache:    {emoji: "📦", plain: "#", squares: "🟫"},
	Fresh:    {emoji: "🟢", plain: "+", squares: "🟩"},
	Stale:    {emoji: "🟠", plain: "~", squares: "🟧"},
}

// Get retrieves the representation for the receiver based on the configured variant.
func (d *iconDef) Get() string {
	switch viper.GetString(key.CliIcons) {
	case emoji:
		return d.emoji
	case plain:
		return d.plain
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Get returns the rendered string for an icon.
func Get(i Icon) string {
	def, ok := icons[i]
	if !ok {
		return ""
	}
	return def.Get()
}
