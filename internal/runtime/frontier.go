package runtime

import (
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/emirpasic/gods/utils"
)

// frontier is the min-priority queue of candidate trees keyed by score.
// The order of equal scores is unspecified.
type frontier struct {
	queue *priorityqueue.Queue
}

func byScore(a, b interface{}) int {
	return utils.Float64Comparator(a.(*domain.Tree).Score(), b.(*domain.Tree).Score())
}

func newFrontier() *frontier {
	return &frontier{queue: priorityqueue.NewWith(byScore)}
}

func (f *frontier) push(t *domain.Tree) { f.queue.Enqueue(t) }

func (f *frontier) pop() (*domain.Tree, bool) {
	v, ok := f.queue.Dequeue()
	if !ok {
		return nil, false
	}
	return v.(*domain.Tree), true
}

func (f *frontier) Len() int { return f.queue.Size() }

// Trees returns the waiting trees in no particular order.
func (f *frontier) Trees() []*domain.Tree {
	values := f.queue.Values()
	out := make([]*domain.Tree, len(values))
	for i, v := range values {
		out[i] = v.(*domain.Tree)
	}
	return out
}
