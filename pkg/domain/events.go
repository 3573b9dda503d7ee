package domain

// PruneReason tells why a candidate was dropped.
type PruneReason string

const (
	PruneDispatch PruneReason = "dispatch"
	PrunePolicy   PruneReason = "policy"
)

// PopEvent is emitted every time the loop takes a tree from the frontier.
type PopEvent struct {
	TaskID    string
	Iteration int
	Score     float64
	Depth     int
	Frontier  int
}

// PruneEvent is emitted for every discarded candidate.
// Policy is empty for dispatch prunes; Kind is empty for policy prunes.
type PruneEvent struct {
	TaskID string
	Reason PruneReason
	Policy string
	Kind   string
	Depth  int
}

// FinishEvent is emitted once per search.
type FinishEvent struct {
	TaskID     string
	Outcome    Outcome
	Iterations int
}

// SearchHooks are optional lifecycle callbacks. They run synchronously on the search
// goroutine and must not block.
type SearchHooks struct {
	OnPop    func(PopEvent)
	OnPrune  func(PruneEvent)
	OnFinish func(FinishEvent)
}

// Merge returns hooks that call h first and then other.
func (h SearchHooks) Merge(other SearchHooks) SearchHooks {
	return SearchHooks{
		OnPop:    chain(h.OnPop, other.OnPop),
		OnPrune:  chain(h.OnPrune, other.OnPrune),
		OnFinish: chain(h.OnFinish, other.OnFinish),
	}
}

func chain[E any](a, b func(E)) func(E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e E) {
		a(e)
		b(e)
	}
}
