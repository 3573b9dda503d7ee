// Package render serializes trees for offline inspection.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SimpleJSON lists the leaves in postorder as {input, output, model}.
type SimpleJSON struct{}

func (SimpleJSON) Format() string { return "json" }
func (SimpleJSON) Suffix() string { return "" }

type leaf struct {
	Input  string  `json:"input"`
	Output *string `json:"output"`
	Model  string  `json:"model"`
}

func (SimpleJSON) Render(tree *domain.Tree) ([]byte, error) {
	leaves := []leaf{}
	for id := range tree.Postorder() {
		n, err := tree.Node(id)
		if err != nil {
			return nil, err
		}
		if len(n.Children()) > 0 {
			continue
		}
		l := leaf{Input: n.Input(), Model: n.Target()}
		if out, ok := n.Output(); ok {
			l.Output = &out
		}
		leaves = append(leaves, l)
	}
	return json.MarshalIndent(leaves, "", "    ")
}

// FullJSON encodes the complete arena together with the task.
type FullJSON struct{}

func (FullJSON) Format() string { return "json" }
func (FullJSON) Suffix() string { return "_full" }

func (FullJSON) Render(tree *domain.Tree) ([]byte, error) {
	return json.MarshalIndent(struct {
		Task *domain.Task `json:"task"`
		Tree *domain.Tree `json:"tree"`
	}{tree.Task(), tree}, "", "  ")
}

// Text draws the tree with box-drawing guides, one node label per line.
type Text struct{}

func (Text) Format() string { return "txt" }
func (Text) Suffix() string { return "_tree" }

func (Text) Render(tree *domain.Tree) ([]byte, error) {
	return []byte(Tree(tree)), nil
}

// Tree returns the text rendering of tree. An empty tree renders as "".
func Tree(tree *domain.Tree) string {
	root, ok := tree.Root()
	if !ok {
		return ""
	}
	var b strings.Builder
	writeNode(&b, tree, root, "", "")
	return b.String()
}

func writeNode(b *strings.Builder, tree *domain.Tree, id domain.NodeID, lead, childLead string) {
	n, err := tree.Node(id)
	if err != nil {
		return
	}
	label := strings.ReplaceAll(n.Label(), "\n", " ")
	b.WriteString(lead + label + "\n")
	children := n.Children()
	for i, c := range children {
		if i == len(children)-1 {
			writeNode(b, tree, c, childLead+"└── ", childLead+"    ")
		} else {
			writeNode(b, tree, c, childLead+"├── ", childLead+"│   ")
		}
	}
}

// Prompts dumps every recorded generator call, node by node in postorder.
func Prompts(tree *domain.Tree) string {
	var b strings.Builder
	for id := range tree.Postorder() {
		n, err := tree.Node(id)
		if err != nil {
			continue
		}
		b.WriteString("Node: " + n.Label() + "\n")
		for _, p := range n.Prompts() {
			b.WriteString("Input:\n" + p.Input + "\n     ==>\n")
			for _, out := range p.Outputs {
				b.WriteString("\tOutput: " + out + "\n")
			}
			b.WriteString(strings.Repeat("_", 40) + "\n")
		}
		b.WriteString("\n" + strings.Repeat("=", 40) + "\n")
	}
	return b.String()
}

// CleanName makes a task ID safe to use as a file name.
func CleanName(id string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ".", "_").Replace(id)
}

// FileName is the path a renderer writes a task's tree to.
func FileName(dir, taskID string, r ports.Renderer) string {
	return filepath.Join(dir, CleanName(taskID)+r.Suffix()+"."+r.Format())
}

// WriteFile renders tree and writes it to FileName(dir, taskID, r).
// The file is replaced on every call, so it always holds the latest popped tree.
func WriteFile(dir, taskID string, r ports.Renderer, tree *domain.Tree) error {
	data, err := r.Render(tree)
	if err != nil {
		return fmt.Errorf("render %T: %w", r, err)
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	return os.WriteFile(FileName(dir, taskID, r), data, 0644)
}

// Register adds the built-in renderers to c.
func Register(c *registry.Catalog[ports.Renderer]) {
	plain := func(r ports.Renderer) registry.Factory[ports.Renderer] {
		return func(params map[string]any) (ports.Renderer, error) {
			if err := registry.Decode(params, &struct{}{}); err != nil {
				return nil, err
			}
			return r, nil
		}
	}
	c.Register("simple_json", plain(SimpleJSON{}))
	c.Register("full_json", plain(FullJSON{}))
	c.Register("text", plain(Text{}))
}
