package tui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/recoma/pkg/domain"
)

func TestResultMarkdown(t *testing.T) {
	tree := domain.NewTree(&domain.Task{ID: "t", Question: "Q"})
	id, err := tree.AddChild(domain.NoParent, domain.Step{Input: "Q", Target: "gen"})
	require.NoError(t, err)
	require.NoError(t, tree.Close(id, "42"))
	tree.UpdateCounter(domain.CounterKey{Provider: "static", Model: "m", Metric: domain.MetricCalls}, 2)

	md := ResultMarkdown(&domain.Result{Answer: "42", FinalTree: tree, Outcome: domain.OutcomeSolved, Iterations: 3})
	assert.Contains(t, md, "**42**")
	assert.Contains(t, md, "outcome: solved, iterations: 3")
	assert.Contains(t, md, "<gen> Q => 42")
	assert.Contains(t, md, "2 generator calls")

	md = ResultMarkdown(&domain.Result{Outcome: domain.OutcomeFailed, Error: errors.New("boom")})
	assert.Contains(t, md, "> error: boom")
	assert.NotContains(t, md, "Reasoning")
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("# Title")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}
