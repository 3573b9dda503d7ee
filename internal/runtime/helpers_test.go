package runtime

import (
	"context"
	"testing"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
	"github.com/stretchr/testify/require"
)

// handler builds a ports.Handler that clones the tree and applies fn to the open node.
func handler(fn func(tree *domain.Tree, open domain.NodeID) ([]*domain.Tree, error)) ports.Handler {
	return ports.HandlerFunc(func(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
		c := tree.Clone()
		open, ok := c.OpenNode()
		if !ok {
			return nil, domain.ErrNoOpenNode
		}
		return fn(c, open)
	})
}

// echo closes the open node with its own input.
var echo = handler(func(tree *domain.Tree, open domain.NodeID) ([]*domain.Tree, error) {
	n, _ := tree.Node(open)
	if err := tree.Close(open, n.Input()); err != nil {
		return nil, err
	}
	return []*domain.Tree{tree}, nil
})

// closeWith closes the open node with a fixed output.
func closeWith(output string) ports.Handler {
	return handler(func(tree *domain.Tree, open domain.NodeID) ([]*domain.Tree, error) {
		if err := tree.Close(open, output); err != nil {
			return nil, err
		}
		return []*domain.Tree{tree}, nil
	})
}

// closeAndContinue closes the open node and appends one child targeting next.
func closeAndContinue(output, next string) ports.Handler {
	return handler(func(tree *domain.Tree, open domain.NodeID) ([]*domain.Tree, error) {
		n, _ := tree.Node(open)
		if err := tree.Close(open, output); err != nil {
			return nil, err
		}
		if _, err := tree.AddChild(open, domain.Step{Input: n.Input(), Target: next}); err != nil {
			return nil, err
		}
		return []*domain.Tree{tree}, nil
	})
}

// deepen never closes anything and keeps growing a chain under the open node.
var deepen = handler(func(tree *domain.Tree, open domain.NodeID) ([]*domain.Tree, error) {
	if _, err := tree.AddChild(open, domain.Step{Input: "deeper", Target: "deepen"}); err != nil {
		return nil, err
	}
	return []*domain.Tree{tree}, nil
})

var prune = ports.HandlerFunc(func(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
	return nil, nil
})

func build(t *testing.T, handlers map[string]ports.Handler) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder()
	for name, h := range handlers {
		b.Register(name, h)
	}
	reg, err := b.Build()
	require.NoError(t, err)
	return reg
}
