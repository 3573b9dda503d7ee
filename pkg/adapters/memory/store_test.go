package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/recoma/pkg/adapters/memory"
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunResultStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	task := &domain.Task{ID: "1", Question: "q"}
	tree := domain.NewTree(task)
	root, _ := tree.AddChild(domain.NoParent, domain.Step{Input: "q", Target: "qa"})
	res := &domain.Result{Task: task, Answer: "a", FinalTree: tree, Outcome: domain.OutcomeCapped}
	require.NoError(t, store.Save(ctx, res))

	require.NoError(t, tree.Close(root, "changed"))

	loaded, err := store.Load(ctx, "1")
	require.NoError(t, err)
	assert.False(t, loaded.FinalTree.Resolved(), "later mutations must not leak into the store")
	assert.Same(t, loaded.Task, loaded.FinalTree.Task())
}

func TestMemoryLocker(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "task-1", time.Minute)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "task-1", time.Minute)
	assert.ErrorIs(t, err, ports.ErrLockHeld)

	_, err = locker.Lock(ctx, "task-2", time.Minute)
	assert.NoError(t, err, "keys are independent")

	require.NoError(t, unlock(ctx))
	_, err = locker.Lock(ctx, "task-1", time.Minute)
	assert.NoError(t, err)
}

func TestMemoryLocker_Expiry(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "k", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = locker.Lock(ctx, "k", time.Minute)
	require.NoError(t, err, "expired leases can be taken over")

	require.NoError(t, stale(ctx))
	_, err = locker.Lock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ports.ErrLockHeld, "a stale unlock must not release the new owner")
}
