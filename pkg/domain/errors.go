package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidParent is returned when a child is attached to a node that does not exist,
// or when a second root is added to a non-empty tree.
var ErrInvalidParent = errors.New("invalid parent")

// ErrAlreadyClosed is returned when closing a node that is no longer open.
var ErrAlreadyClosed = errors.New("node already closed")

// ErrNodeNotFound is returned when a node ID is not part of the tree.
var ErrNodeNotFound = errors.New("node not found")

// ErrNoOpenNode is returned when an operation needs an open node but the tree is resolved.
var ErrNoOpenNode = errors.New("no open node")

// ErrRecursionLimit signals unbounded self-referential expansion inside a handler.
// Handlers wrap it to have the branch pruned instead of failing the whole task.
var ErrRecursionLimit = errors.New("recursion limit exceeded")

// ErrResultNotFound is returned when a task ID cannot be found in a result store.
var ErrResultNotFound = errors.New("result not found")

// NodeError reports a structural contract violation on a specific node.
type NodeError struct {
	Op   string
	Node NodeID
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s node %d: %v", e.Op, e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// IsStructural reports whether err is one of the tree contract violations.
func IsStructural(err error) bool {
	return errors.Is(err, ErrInvalidParent) ||
		errors.Is(err, ErrAlreadyClosed) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrNoOpenNode)
}
