package ports

import "github.com/aretw0/recoma/pkg/domain"

// Renderer serializes a tree to a file named after the task ID plus Suffix, with
// extension Format.
type Renderer interface {
	Format() string
	Suffix() string
	Render(tree *domain.Tree) ([]byte, error)
}
