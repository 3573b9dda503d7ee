package policy

import (
	"testing"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(t *testing.T, depth int) *domain.Tree {
	t.Helper()
	tree := domain.NewTree(nil)
	id, err := tree.AddChild(domain.NoParent, domain.Step{Target: "x"})
	require.NoError(t, err)
	for i := 0; i < depth; i++ {
		id, err = tree.AddChild(id, domain.Step{Target: "x"})
		require.NoError(t, err)
	}
	return tree
}

func TestMaxDepth(t *testing.T) {
	p := MaxDepth{Limit: 3}
	assert.False(t, p.ShouldStop(chain(t, 3), 0, nil))
	assert.True(t, p.ShouldStop(chain(t, 4), 0, nil), "depth == limit+1 must be rejected")
}

func TestMaxIterations(t *testing.T) {
	p := MaxIterations{Limit: 10}
	tree := chain(t, 0)
	assert.False(t, p.ShouldStop(tree, 9, nil))
	assert.True(t, p.ShouldStop(tree, 10, nil))
}

func TestCounterPolicies(t *testing.T) {
	tree := chain(t, 0)
	tree.UpdateCounter(domain.CounterKey{Provider: "openai", Model: "a", Metric: domain.MetricCalls}, 2)
	tree.UpdateCounter(domain.CounterKey{Provider: "litellm", Model: "b", Metric: domain.MetricCalls}, 1)
	tree.UpdateCounter(domain.CounterKey{Provider: "openai", Model: "a", Metric: domain.MetricCost}, 0.5)

	tests := []struct {
		name   string
		policy ports.StoppingPolicy
		want   bool
	}{
		{"calls below", MaxCalls{Limit: 4}, false},
		{"calls at limit", MaxCalls{Limit: 3}, true},
		{"cost below", MaxCost{Limit: 0.6}, false},
		{"cost at limit", MaxCost{Limit: 0.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.ShouldStop(tree, 0, nil))
		})
	}
}

func TestSet_ShortCircuits(t *testing.T) {
	var evaluated []string
	track := func(name string, stop bool) ports.StoppingPolicy {
		return Func{Label: name, Fn: func(*domain.Tree, int, ports.FrontierView) bool {
			evaluated = append(evaluated, name)
			return stop
		}}
	}
	set := Set{track("a", false), track("b", true), track("c", true)}

	name, stop := set.Check(chain(t, 0), 0, nil)
	assert.True(t, stop)
	assert.Equal(t, "b", name)
	assert.Equal(t, []string{"a", "b"}, evaluated)

	_, stop = Set{}.Check(chain(t, 0), 0, nil)
	assert.False(t, stop)
}

func TestRegister(t *testing.T) {
	c := registry.NewCatalog[ports.StoppingPolicy]("early_stopping")
	Register(c)

	tests := []struct {
		record map[string]any
		want   ports.StoppingPolicy
	}{
		{map[string]any{"type": "max_search_depth"}, MaxDepth{Limit: 100}},
		{map[string]any{"type": "max_search_depth", "max_search_depth": 5}, MaxDepth{Limit: 5}},
		{map[string]any{"type": "max_search_iters"}, MaxIterations{Limit: 100}},
		{map[string]any{"type": "max_llm_calls"}, MaxCalls{Limit: 200}},
		{map[string]any{"type": "max_llm_cost", "max_llm_cost": "0.5"}, MaxCost{Limit: 0.5}},
	}
	for _, tt := range tests {
		got, err := c.New(tt.record)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "max_llm_cost", Name(MaxCost{}))
}
