package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/recoma/internal/presentation/graph"
	"github.com/aretw0/recoma/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		models   []graph.Model
		contains []string
	}{
		{
			name:   "Start Node Shape",
			start:  "root",
			models: []graph.Model{{Name: "root", Type: "passthrough"}},
			contains: []string{
				`root(("root <br/> passthrough"))`,
			},
		},
		{
			name:   "Generator Node Shape",
			models: []graph.Model{{Name: "gen", Type: "generator"}},
			contains: []string{
				`gen[["gen <br/> generator"]]`,
			},
		},
		{
			name:   "Controller Node Shape",
			models: []graph.Model{{Name: "decomp", Type: "decomp_control"}},
			contains: []string{
				`decomp{"decomp <br/> decomp_control"}`,
			},
		},
		{
			name:   "ID Sanitization",
			models: []graph.Model{{Name: "gpt-4.qa", Type: "generator"}},
			contains: []string{
				`gpt_4_qa[["gpt-4.qa <br/> generator"]]`,
			},
		},
		{
			name:  "Labeled References",
			start: "decomp",
			models: []graph.Model{
				{Name: "decomp", Type: "decomp_control", Targets: map[string]string{"qa_model": "qa", "decomp_model": "gen"}},
			},
			contains: []string{
				`decomp -- "decomp_model" --> gen`,
				`decomp -- "qa_model" --> qa`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.start, tt.models)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestTreeMermaid(t *testing.T) {
	tree := domain.NewTree(&domain.Task{ID: "t", Question: "Q"})
	root, err := tree.AddChild(domain.NoParent, domain.Step{Input: `say "hi"`, Target: "gen"})
	require.NoError(t, err)
	require.NoError(t, tree.Close(root, "hi"))
	_, err = tree.AddChild(root, domain.Step{Input: "hi", Target: "ext"})
	require.NoError(t, err)

	got := graph.TreeMermaid(tree)
	assert.Contains(t, got, `n0["<gen> say 'hi' => hi"]`)
	assert.Contains(t, got, "n0 --> n1")
	assert.Contains(t, got, "class n0 visited;")
	assert.Contains(t, got, "class n1 current;")

	data, err := graph.Renderer{}.Render(tree)
	require.NoError(t, err)
	assert.Equal(t, got, string(data))
	assert.Equal(t, "mmd", graph.Renderer{}.Format())
}
