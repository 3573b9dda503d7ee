package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractResult(id string) *domain.Result {
	task := &domain.Task{ID: id, Question: "what is 2+2", Answer: "4"}
	tree := domain.NewTree(task)
	root, _ := tree.AddChild(domain.NoParent, domain.Step{Input: task.Question, Target: "qa"})
	_ = tree.Close(root, "4")
	tree.UpdateCounter(domain.CounterKey{Provider: "static", Model: "m", Metric: domain.MetricCalls}, 1)
	return &domain.Result{
		Task:       task,
		Answer:     "4",
		FinalTree:  tree,
		Outcome:    domain.OutcomeSolved,
		Iterations: 1,
	}
}

// RunResultStoreContract runs a suite of tests to verify that a ResultStore implementation
// adheres to the defined interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	taskID := "contract-test-task-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		res := contractResult(taskID)

		require.NoError(t, store.Save(ctx, res), "Save should not return error")

		loaded, err := store.Load(ctx, taskID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, res.Answer, loaded.Answer)
		assert.Equal(t, res.Outcome, loaded.Outcome)
		assert.Equal(t, res.Task.Question, loaded.Task.Question)
		require.NotNil(t, loaded.FinalTree)
		assert.Equal(t, 1, loaded.FinalTree.Len())
		assert.Equal(t, 1.0, loaded.FinalTree.CounterSum(domain.MetricCalls))
		assert.True(t, loaded.FinalTree.Resolved())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+taskID)
		assert.ErrorIs(t, err, domain.ErrResultNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		res := contractResult(taskID)
		res.Answer = "five"
		res.Outcome = domain.OutcomeExhausted
		require.NoError(t, store.Save(ctx, res))

		loaded, err := store.Load(ctx, taskID)
		require.NoError(t, err)
		assert.Equal(t, "five", loaded.Answer)
		assert.Equal(t, domain.OutcomeExhausted, loaded.Outcome)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, contractResult(taskID)))

		require.NoError(t, store.Delete(ctx, taskID), "Delete should not return error")

		_, err := store.Load(ctx, taskID)
		assert.ErrorIs(t, err, domain.ErrResultNotFound, "Load after Delete should return ErrResultNotFound")
		assert.NoError(t, store.Delete(ctx, taskID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := taskID + "-1"
		id2 := taskID + "-2"
		require.NoError(t, store.Save(ctx, contractResult(id1)))
		require.NoError(t, store.Save(ctx, contractResult(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
