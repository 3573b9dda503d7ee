// Package answer provides the built-in answer extractors.
//
// Extractors never fail: on an empty tree, an out-of-range index or a node that is still
// open they return the empty string, so they can be used for degraded answers.
package answer

import (
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
)

// Tail returns the output of the n-th node of a preorder walk.
type Tail struct {
	N int
}

// NewTail returns an extractor for the n-th preorder node; -1 is the last one.
func NewTail(n int) *Tail { return &Tail{N: n} }

func (t *Tail) Name() string { return "tail" }

func (t *Tail) Answer(tree *domain.Tree) string {
	if tree == nil {
		return ""
	}
	id, ok := tree.NthPreorder(t.N)
	if !ok {
		return ""
	}
	return output(tree, id)
}

// Root returns the output of the root node.
type Root struct{}

func (Root) Name() string { return "root" }

func (Root) Answer(tree *domain.Tree) string {
	if tree == nil {
		return ""
	}
	id, ok := tree.Root()
	if !ok {
		return ""
	}
	return output(tree, id)
}

func output(tree *domain.Tree, id domain.NodeID) string {
	n, err := tree.Node(id)
	if err != nil {
		return ""
	}
	out, _ := n.Output()
	return out
}

type tailParams struct {
	NTail int `mapstructure:"n_tail"`
}

// Register adds the built-in extractors to c.
func Register(c *registry.Catalog[ports.Answerer]) {
	c.Register("tail", func(params map[string]any) (ports.Answerer, error) {
		p := tailParams{NTail: -1}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		return NewTail(p.NTail), nil
	})
	c.Register("root", func(params map[string]any) (ports.Answerer, error) {
		if err := registry.Decode(params, &struct{}{}); err != nil {
			return nil, err
		}
		return Root{}, nil
	})
}
