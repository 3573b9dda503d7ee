package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/recoma/pkg/adapters/redis"
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func result(id string) *domain.Result {
	return &domain.Result{Task: &domain.Task{ID: id, Question: "q"}, Answer: "a", Outcome: domain.OutcomeSolved}
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunResultStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, result("r-ttl")))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "r-ttl")

	mr.FastForward(2 * time.Second)
	_, err = store.Load(ctx, "r-ttl")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)

	// The index is pruned against wall-clock time, which FastForward does not move.
	time.Sleep(1200 * time.Millisecond)
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, result("my-task")))
	assert.True(t, mr.Exists("custom:app:my-task"))
	assert.True(t, mr.Exists("custom:app:index"))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"my-task"}, ids)
}
