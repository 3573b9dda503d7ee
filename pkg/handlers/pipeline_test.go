package handlers

import (
	"context"
	"testing"

	"github.com/aretw0/recoma/internal/runtime"
	"github.com/aretw0/recoma/pkg/answer"
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogs() (*registry.Catalog[ports.Handler], *registry.Catalog[ports.Generator]) {
	h := registry.NewCatalog[ports.Handler]("handler")
	g := registry.NewCatalog[ports.Generator]("generator")
	Register(h, g, nil)
	return h, g
}

func build(t *testing.T, records map[string]map[string]any) *registry.Registry {
	t.Helper()
	handlers, _ := catalogs()
	b := registry.NewBuilder()
	for name, record := range records {
		h, err := handlers.New(record)
		require.NoError(t, err, name)
		b.Register(name, h)
	}
	reg, err := b.Build()
	require.NoError(t, err)
	return reg
}

func static(outputs []any, responses ...map[string]any) map[string]any {
	rs := make([]any, len(responses))
	for i, r := range responses {
		rs[i] = r
	}
	return map[string]any{"type": "generator", "generator": map[string]any{
		"type":          "static",
		"outputs":       outputs,
		"responses":     rs,
		"cost_per_call": 0.5,
	}}
}

func TestRegister_Names(t *testing.T) {
	handlers, generators := catalogs()
	assert.Equal(t, []string{"decomp_control", "generator", "l2m_control", "math_exec", "passthrough", "regex_ext", "router"}, handlers.Names())
	assert.Equal(t, []string{"static"}, generators.Names())

	_, err := handlers.New(map[string]any{"type": "decomp_control", "qa_model": "qa"})
	assert.Error(t, err, "decomp_model is required")

	_, err = handlers.New(map[string]any{"type": "passthrough", "nope": 1})
	assert.Error(t, err, "unknown keys are rejected")

	_, err = handlers.New(map[string]any{"type": "generator", "generator": map[string]any{"type": "missing"}})
	assert.Error(t, err)
}

func TestDecomposition_EndToEnd(t *testing.T) {
	reg := build(t, map[string]map[string]any{
		"decomp": {"type": "decomp_control", "decomp_model": "decomposer", "qa_model": "route"},
		"decomposer": static([]any{"[qa] first?"},
			map[string]any{"match": "A: one", "outputs": []any{"[EOQ]"}}),
		"route": {"type": "router"},
		"qa":    static([]any{"one"}),
	})

	e := runtime.NewEngine(reg, "decomp", runtime.WithAnswerer(answer.Root{}))
	res, err := e.Search(context.Background(), &domain.Task{ID: "1", Question: "Q"})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeSolved, res.Outcome)
	assert.Equal(t, "one", res.Answer)
	assert.Equal(t, 3.0, res.FinalTree.CounterSum(domain.MetricCalls))
	assert.Equal(t, 1.5, res.FinalTree.CounterSum(domain.MetricCost))

	root, _ := res.FinalTree.Root()
	kids, err := res.FinalTree.Children(root)
	require.NoError(t, err)
	require.Len(t, kids, 3)
	first, _ := res.FinalTree.Node(kids[0])
	assert.Equal(t, "Q\nQS: ", first.Input())
	last, _ := res.FinalTree.Node(kids[2])
	assert.Equal(t, "Q\nQS: [qa] first?\nA: one\nQS: ", last.Input())
}

func TestLeastToMost_EndToEnd(t *testing.T) {
	reg := build(t, map[string]map[string]any{
		"l2m": {"type": "l2m_control", "l2m_decomp_model": "planner", "l2m_qa_model": "qa"},
		"planner": static([]any{`To answer the question "Q?", we need to know: "A?", "B?".`}),
		"qa": static(nil,
			map[string]any{"match": `Q: A\?\nA:$`, "outputs": []any{"a"}},
			map[string]any{"match": `Q: B\?\nA:$`, "outputs": []any{"b"}},
			map[string]any{"match": `Q: Q\?\nA:$`, "outputs": []any{"final"}},
		),
	})

	e := runtime.NewEngine(reg, "l2m", runtime.WithAnswerer(answer.Root{}))
	res, err := e.Search(context.Background(), &domain.Task{ID: "1", Question: "Q?"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSolved, res.Outcome)
	assert.Equal(t, "final", res.Answer)

	root, _ := res.FinalTree.Root()
	n, _ := res.FinalTree.Node(root)
	qs, ok := n.Data().Strings("questions")
	require.True(t, ok)
	assert.Equal(t, []string{"A?", "B?", "Q?"}, qs)

	kids := n.Children()
	require.Len(t, kids, 4)
	third, _ := res.FinalTree.Node(kids[2])
	assert.Equal(t, "Q: A?\nA: a\n\nQ: B?\nA:", third.Input())
	assert.Equal(t, "...Q: B?\nA:", third.InputForDisplay())
}

func TestLeastToMost_UnparseablePlanIsFatal(t *testing.T) {
	reg := build(t, map[string]map[string]any{
		"l2m":     {"type": "l2m_control", "l2m_decomp_model": "planner", "l2m_qa_model": "qa"},
		"planner": static([]any{"I have no plan"}),
		"qa":      static([]any{"x"}),
	})

	res, err := runtime.NewEngine(reg, "l2m").Search(context.Background(), &domain.Task{ID: "1", Question: "Q?"})
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
}

func TestMathPipeline_EndToEnd(t *testing.T) {
	coder := static([]any{"answer = 6 * 7"})
	coder["next_model"] = "exec"
	reg := build(t, map[string]map[string]any{
		"coder": coder,
		"exec":  {"type": "math_exec"},
	})

	res, err := runtime.NewEngine(reg, "coder").Search(context.Background(), &domain.Task{ID: "1", Question: "six times seven"})
	require.NoError(t, err)
	assert.Equal(t, "42", res.Answer)
}
