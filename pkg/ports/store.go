package ports

import (
	"context"

	"github.com/aretw0/recoma/pkg/domain"
)

// ResultStore persists the result of each task so a batch can be inspected or resumed.
type ResultStore interface {
	// Save persists the result under result.Task.ID, replacing any previous one.
	Save(ctx context.Context, result *domain.Result) error

	// Load retrieves a result by task ID.
	// Returns domain.ErrResultNotFound if it does not exist.
	Load(ctx context.Context, taskID string) (*domain.Result, error)

	// Delete removes a result. Deleting a missing result is not an error.
	Delete(ctx context.Context, taskID string) error

	// List returns the stored task IDs.
	List(ctx context.Context) ([]string, error)
}
