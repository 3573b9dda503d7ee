package ports

import (
	"context"

	"github.com/aretw0/recoma/pkg/domain"
)

// Generation is the outcome of one generator call.
// Scores is either empty or aligned with Outputs; lower is better.
type Generation struct {
	Outputs          []string
	Scores           []float64
	Provider         string
	Model            string
	Cost             float64
	PromptTokens     int
	CompletionTokens int
}

// Generator produces text continuations for a prompt. Model clients implement it.
type Generator interface {
	Generate(ctx context.Context, input string, tree *domain.Tree) (Generation, error)
}
