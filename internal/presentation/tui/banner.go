package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the smoc banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  ___ _ __ ___   ___   ___ ", "#818cf8"},
		{" / __| '_ ` _ \\ / _ \\ / __|", "#a78bfa"},
		{" \\__ \\ | | | | | (_) | (__ ", "#e879f9"},
		{" |___/_| |_| |_|\\___/ \\___|", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String(" v"+version).Faint())
	fmt.Fprintln(w)
}
