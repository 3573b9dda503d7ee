package ports

import (
	"context"

	"github.com/aretw0/recoma/pkg/domain"
)

// TaskReader loads the tasks of a dataset file.
type TaskReader interface {
	Read(ctx context.Context, path string) ([]*domain.Task, error)
}
