package ports

import "github.com/aretw0/recoma/pkg/domain"

// FrontierView is a read-only snapshot of the trees waiting to be expanded.
type FrontierView interface {
	Len() int
	Trees() []*domain.Tree
}

// StoppingPolicy decides whether a candidate should be dropped instead of enqueued.
// iteration is the search-wide loop counter, not a per-tree value.
type StoppingPolicy interface {
	ShouldStop(candidate *domain.Tree, iteration int, frontier FrontierView) bool
}

// Named is implemented by components that report a stable name in logs and metrics.
type Named interface {
	Name() string
}
