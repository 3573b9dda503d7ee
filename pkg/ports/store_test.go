package ports_test

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
)

// MockStore is a map-backed ResultStore that round-trips through JSON like real adapters.
type MockStore struct {
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

func (m *MockStore) Save(ctx context.Context, result *domain.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	m.data[result.Task.ID] = raw
	return nil
}

func (m *MockStore) Load(ctx context.Context, taskID string) (*domain.Result, error) {
	raw, ok := m.data[taskID]
	if !ok {
		return nil, domain.ErrResultNotFound
	}
	var res domain.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (m *MockStore) Delete(ctx context.Context, taskID string) error {
	delete(m.data, taskID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func TestResultStore_Contract(t *testing.T) {
	ports.RunResultStoreContract(t, NewMockStore())
}

func TestHandlerFunc(t *testing.T) {
	called := false
	h := ports.HandlerFunc(func(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
		called = true
		return []*domain.Tree{tree.Clone()}, nil
	})
	out, err := h.Dispatch(context.Background(), domain.NewTree(nil))
	if err != nil || len(out) != 1 || !called {
		t.Fatalf("unexpected dispatch result: %v %d %v", err, len(out), called)
	}
}
