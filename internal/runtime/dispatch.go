package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
)

var (
	// ErrUnknownHandler is wrapped when the open node targets a name nobody registered.
	ErrUnknownHandler = errors.New("unknown handler")
	// ErrAliasedSuccessor is wrapped when a handler returns a successor that shares
	// nodes with the tree it was given.
	ErrAliasedSuccessor = errors.New("successor aliases input tree")
)

// DispatchErrorKind classifies branch-level dispatch failures.
type DispatchErrorKind string

const (
	KindUnknownHandler    DispatchErrorKind = "unknown_handler"
	KindHandlerPanicked   DispatchErrorKind = "handler_panicked"
	KindRecursionLimit    DispatchErrorKind = "recursion_limit"
	KindContractViolation DispatchErrorKind = "contract_violation"
)

// DispatchError is returned by Dispatch when the branch must be pruned.
// Any other error returned by Dispatch is fatal for the task.
type DispatchError struct {
	Kind   DispatchErrorKind
	Target string
	Node   domain.NodeID
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s (node %d, handler %q): %v", e.Kind, e.Node, e.Target, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// HandlerLookup resolves handler names. *registry.Registry implements it.
type HandlerLookup interface {
	Lookup(name string) (ports.Handler, bool)
}

// Dispatch hands the open node of tree to the handler it targets and returns the
// successors.
func Dispatch(ctx context.Context, handlers HandlerLookup, tree *domain.Tree) (successors []*domain.Tree, err error) {
	id, ok := tree.OpenNode()
	if !ok {
		return nil, &DispatchError{Kind: KindContractViolation, Node: domain.NoParent, Err: domain.ErrNoOpenNode}
	}
	node, err := tree.Node(id)
	if err != nil {
		return nil, &DispatchError{Kind: KindContractViolation, Node: id, Err: err}
	}
	target := node.Target()

	h, ok := handlers.Lookup(target)
	if !ok {
		return nil, &DispatchError{Kind: KindUnknownHandler, Target: target, Node: id, Err: ErrUnknownHandler}
	}

	defer func() {
		if r := recover(); r != nil {
			successors = nil
			err = &DispatchError{Kind: KindHandlerPanicked, Target: target, Node: id, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	successors, err = h.Dispatch(ctx, tree)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecursionLimit):
			return nil, &DispatchError{Kind: KindRecursionLimit, Target: target, Node: id, Err: err}
		case domain.IsStructural(err):
			return nil, &DispatchError{Kind: KindContractViolation, Target: target, Node: id, Err: err}
		default:
			return nil, fmt.Errorf("handler %q on node %d: %w", target, id, err)
		}
	}

	for i, s := range successors {
		if s == nil {
			return nil, &DispatchError{Kind: KindContractViolation, Target: target, Node: id,
				Err: fmt.Errorf("successor %d is nil", i)}
		}
		if tree.Aliases(s) {
			return nil, &DispatchError{Kind: KindContractViolation, Target: target, Node: id,
				Err: fmt.Errorf("successor %d: %w", i, ErrAliasedSuccessor)}
		}
	}
	return successors, nil
}
