package ports

import (
	"context"

	"github.com/aretw0/recoma/pkg/domain"
)

// Handler resolves the open node of a tree it has been assigned to.
//
// It must Clone the input before mutating it. It returns the successors in order:
// none prunes the branch, one continues it, several branch the search.
type Handler interface {
	Dispatch(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error)

// Dispatch calls f(ctx, tree).
func (f HandlerFunc) Dispatch(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
	return f(ctx, tree)
}
