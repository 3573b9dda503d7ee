package handlers

import (
	"context"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
)

// Passthrough closes the open node with its own input.
type Passthrough struct {
	Next string `mapstructure:"next_model"`
}

func (p *Passthrough) Dispatch(_ context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
	id, ok := tree.OpenNode()
	if !ok {
		return nil, domain.ErrNoOpenNode
	}
	n, err := tree.Node(id)
	if err != nil {
		return nil, err
	}
	return Expand(tree, ports.Generation{Outputs: []string{n.Input()}}, p.Next)
}
