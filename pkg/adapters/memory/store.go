package memory

import (
	"context"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/aretw0/recoma/pkg/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store implements ports.ResultStore in memory.
// Results are kept encoded so callers never share trees with the store.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the result in memory.
func (s *Store) Save(ctx context.Context, result *domain.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[result.Task.ID] = data
	return nil
}

// Load retrieves a copy of the result.
func (s *Store) Load(ctx context.Context, taskID string) (*domain.Result, error) {
	s.mu.RLock()
	data, ok := s.data[taskID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrResultNotFound
	}

	var res domain.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Delete removes the result.
func (s *Store) Delete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, taskID)
	return nil
}

// List returns the stored task IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
