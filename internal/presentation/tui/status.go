package tui

import (
	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/transport"
	"github.com/muesli/termenv"
)

// StatusFormatter returns a function formatting session status lines.
// A "primary" or "button" color from the conversation theme, when present,
// is used for the connected state.
func StatusFormatter(theme domain.Theme) func(transport.Status) string {
	p := termenv.ColorProfile()
	connected := "#22c55e"
	for _, key := range []string{"primary", "button"} {
		if c, ok := theme.Colors[key]; ok && c != "" {
			connected = c
			break
		}
	}

	return func(st transport.Status) string {
		switch st {
		case transport.StatusConnected:
			return termenv.String("● connected").Foreground(p.Color(connected)).String()
		case transport.StatusConnecting:
			return termenv.String("○ connecting…").Foreground(p.Color("#eab308")).Faint().String()
		}
		return string(st)
	}
}
