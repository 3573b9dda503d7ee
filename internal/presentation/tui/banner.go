package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the recoma banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _ __ ___  ___ ___  _ __ ___   __ _ ", "#818cf8"},
		{" | '__/ _ \\/ __/ _ \\| '_ ` _ \\ / _` |", "#a78bfa"},
		{" | | |  __/ (_| (_) | | | | | | (_| |", "#c084fc"},
		{" |_|  \\___|\\___\\___/|_| |_| |_|\\__,_|", "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  reasoning search "+version).Faint())
	fmt.Fprintln(w)
}
