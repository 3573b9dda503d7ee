package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/render"
)

// NewRenderer returns a function that renders markdown using glamour.
// It falls back to the raw markdown when no renderer can be built.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ResultMarkdown formats a demo answer with its reasoning tree.
func ResultMarkdown(res *domain.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Answer\n\n**%s**\n\n", res.Answer)
	fmt.Fprintf(&b, "_outcome: %s, iterations: %d_\n\n", res.Outcome, res.Iterations)
	if res.FinalTree != nil {
		b.WriteString("## Reasoning\n\n```text\n")
		b.WriteString(render.Tree(res.FinalTree))
		b.WriteString("```\n")
		if calls := res.FinalTree.CounterSum(domain.MetricCalls); calls > 0 {
			fmt.Fprintf(&b, "\n%g generator calls, cost %.4f\n", calls, res.FinalTree.CounterSum(domain.MetricCost))
		}
	}
	if res.Error != nil {
		fmt.Fprintf(&b, "\n> error: %s\n", res.Error)
	}
	return b.String()
}
