package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *domain.Tree {
	t.Helper()
	tree := domain.NewTree(&domain.Task{ID: "qa/1.2", Question: "q"})
	root, err := tree.AddChild(domain.NoParent, domain.Step{Input: "q", Target: "decomp"})
	require.NoError(t, err)
	a, _ := tree.AddChild(root, domain.Step{Input: "sub a", Target: "qa"})
	b, _ := tree.AddChild(root, domain.Step{Input: "sub b", Target: "qa"})
	require.NoError(t, tree.Close(a, "A"))
	n, _ := tree.Node(a)
	n.AddPrompt("prompt a", []string{"A", "A'"})
	_ = b
	return tree
}

func TestSimpleJSON(t *testing.T) {
	raw, err := SimpleJSON{}.Render(sample(t))
	require.NoError(t, err)

	var leaves []map[string]any
	require.NoError(t, json.Unmarshal(raw, &leaves))
	require.Len(t, leaves, 2)
	assert.Equal(t, map[string]any{"input": "sub a", "output": "A", "model": "qa"}, leaves[0])
	assert.Equal(t, map[string]any{"input": "sub b", "output": nil, "model": "qa"}, leaves[1])
}

func TestFullJSON(t *testing.T) {
	raw, err := FullJSON{}.Render(sample(t))
	require.NoError(t, err)

	var decoded struct {
		Task domain.Task `json:"task"`
		Tree domain.Tree `json:"tree"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "qa/1.2", decoded.Task.ID)
	assert.Equal(t, 3, decoded.Tree.Len())
}

func TestTree(t *testing.T) {
	want := "*<decomp> q => ...\n" +
		"├── <qa> sub a => A\n" +
		"└── *<qa> sub b => ...\n"
	assert.Equal(t, want, Tree(sample(t)))
	assert.Equal(t, "", Tree(domain.NewTree(nil)))
}

func TestPrompts(t *testing.T) {
	out := Prompts(sample(t))
	assert.Contains(t, out, "Input:\nprompt a\n     ==>\n\tOutput: A\n\tOutput: A'\n")
	assert.Contains(t, out, "Node: <qa> sub a => A")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	tree := sample(t)

	for _, r := range []ports.Renderer{SimpleJSON{}, FullJSON{}, Text{}} {
		require.NoError(t, WriteFile(dir, tree.Task().ID, r, tree))
	}

	for _, name := range []string{"qa_1_2.json", "qa_1_2_full.json", "qa_1_2_tree.txt"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	err := WriteFile(filepath.Join(dir, "missing"), "x", Text{}, tree)
	assert.Error(t, err)
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "a_b_c_d", CleanName(`a/b\c.d`))
}

func TestRegister(t *testing.T) {
	c := registry.NewCatalog[ports.Renderer]("renderer")
	Register(c)
	assert.Equal(t, []string{"full_json", "simple_json", "text"}, c.Names())

	r, err := c.New(map[string]any{"type": "text"})
	require.NoError(t, err)
	assert.Equal(t, "_tree", r.Suffix())
}
