package observability_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/recoma/internal/runtime"
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/observability"
	"github.com/aretw0/recoma/pkg/policy"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
)

func TestMetrics_Hooks(t *testing.T) {
	m, err := observability.NewMetrics(nil)
	require.NoError(t, err)
	hooks := m.Hooks()

	hooks.OnPop(domain.PopEvent{Depth: 3})
	hooks.OnPop(domain.PopEvent{Depth: 1})
	hooks.OnPrune(domain.PruneEvent{Reason: domain.PrunePolicy, Policy: "max_search_depth"})
	hooks.OnPrune(domain.PruneEvent{Reason: domain.PruneDispatch, Kind: "handler_panicked"})
	hooks.OnFinish(domain.FinishEvent{Outcome: domain.OutcomeSolved, Iterations: 4})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Pops))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Prunes.WithLabelValues("policy", "max_search_depth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Prunes.WithLabelValues("dispatch", "handler_panicked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("solved")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Iterations))
}

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err, "registering twice on the same registry fails")
}

func TestMetrics_WithEngine(t *testing.T) {
	m, err := observability.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	// Each call deepens the tree by one open child.
	deepen := ports.HandlerFunc(func(_ context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
		c := tree.Clone()
		id, _ := c.OpenNode()
		_, err := c.AddChild(id, domain.Step{Input: "x", Target: "deep"})
		return []*domain.Tree{c}, err
	})
	reg, err := registry.NewBuilder().Register("deep", deepen).Build()
	require.NoError(t, err)

	e := runtime.NewEngine(reg, "deep",
		runtime.WithPolicies(policy.MaxDepth{Limit: 2}),
		runtime.WithLifecycleHooks(m.Hooks()),
	)
	res, err := e.Search(context.Background(), &domain.Task{ID: "1", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeExhausted, res.Outcome)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("exhausted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Prunes.WithLabelValues("policy", "max_search_depth")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Pops))
}
