package ports

import "github.com/aretw0/recoma/pkg/domain"

// Answerer extracts the final answer from a tree.
// It is also called on unresolved trees and must return partial output instead of failing.
type Answerer interface {
	Answer(tree *domain.Tree) string
}

// AnswererFunc adapts a plain function to the Answerer interface.
type AnswererFunc func(tree *domain.Tree) string

func (f AnswererFunc) Answer(tree *domain.Tree) string { return f(tree) }
