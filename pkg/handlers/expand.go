package handlers

import (
	"fmt"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
)

// Open clones tree and returns the clone with its open node.
func Open(tree *domain.Tree) (*domain.Tree, *domain.Node, error) {
	c := tree.Clone()
	id, ok := c.OpenNode()
	if !ok {
		return nil, nil, domain.ErrNoOpenNode
	}
	n, err := c.Node(id)
	if err != nil {
		return nil, nil, err
	}
	return c, n, nil
}

// Expand builds one successor per generated output: the open node is closed with the
// output, the output's score is added, and when next is set a child targeting next
// receives the output as its input.
func Expand(tree *domain.Tree, gen ports.Generation, next string) ([]*domain.Tree, error) {
	if len(gen.Scores) > 0 && len(gen.Scores) != len(gen.Outputs) {
		return nil, fmt.Errorf("generation has %d outputs but %d scores", len(gen.Outputs), len(gen.Scores))
	}
	successors := make([]*domain.Tree, 0, len(gen.Outputs))
	for i, output := range gen.Outputs {
		c, n, err := Open(tree)
		if err != nil {
			return nil, err
		}
		if err := c.Close(n.ID(), output); err != nil {
			return nil, err
		}
		if len(gen.Scores) > 0 {
			c.UpdateScore(gen.Scores[i])
		}
		if next != "" {
			if _, err := c.AddChild(n.ID(), domain.Step{Input: output, Target: next}); err != nil {
				return nil, err
			}
		}
		successors = append(successors, c)
	}
	return successors, nil
}

// closeAndContinue closes n with output and, if next is set, appends a child that
// receives output as its input.
func closeAndContinue(tree *domain.Tree, n *domain.Node, output, next string) error {
	if err := tree.Close(n.ID(), output); err != nil {
		return err
	}
	if next == "" {
		return nil
	}
	_, err := tree.AddChild(n.ID(), domain.Step{Input: output, Target: next})
	return err
}

// outputs returns the outputs of the given children, in order.
func outputs(tree *domain.Tree, ids []domain.NodeID) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		n, err := tree.Node(id)
		if err != nil {
			return nil, err
		}
		out[i], _ = n.Output()
	}
	return out, nil
}
