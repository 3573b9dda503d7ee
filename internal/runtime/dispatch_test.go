package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootTree(target string) *domain.Tree {
	tree := domain.NewTree(&domain.Task{ID: "t1", Question: "hello"})
	_, _ = tree.AddChild(domain.NoParent, domain.Step{Input: "hello", Target: target})
	return tree
}

func TestDispatch_Success(t *testing.T) {
	reg := build(t, map[string]ports.Handler{"echo": echo})
	input := rootTree("echo")

	out, err := Dispatch(context.Background(), reg, input)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Resolved())
	assert.False(t, input.Resolved(), "input tree must not be mutated")
}

func TestDispatch_PrunableErrors(t *testing.T) {
	boomPanic := ports.HandlerFunc(func(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
		panic("boom")
	})
	recursion := ports.HandlerFunc(func(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
		return nil, fmt.Errorf("decompose: %w", domain.ErrRecursionLimit)
	})
	doubleClose := handler(func(tree *domain.Tree, open domain.NodeID) ([]*domain.Tree, error) {
		_ = tree.Close(open, "x")
		return nil, tree.Close(open, "y")
	})
	aliasing := ports.HandlerFunc(func(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
		return []*domain.Tree{tree}, nil
	})
	nilSuccessor := ports.HandlerFunc(func(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
		return []*domain.Tree{nil}, nil
	})

	reg := build(t, map[string]ports.Handler{
		"panic":     boomPanic,
		"recursion": recursion,
		"double":    doubleClose,
		"alias":     aliasing,
		"nil":       nilSuccessor,
	})

	tests := []struct {
		target string
		kind   DispatchErrorKind
		is     error
	}{
		{"missing", KindUnknownHandler, ErrUnknownHandler},
		{"panic", KindHandlerPanicked, nil},
		{"recursion", KindRecursionLimit, domain.ErrRecursionLimit},
		{"double", KindContractViolation, domain.ErrAlreadyClosed},
		{"alias", KindContractViolation, ErrAliasedSuccessor},
		{"nil", KindContractViolation, nil},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			out, err := Dispatch(context.Background(), reg, rootTree(tt.target))
			assert.Nil(t, out)
			var de *DispatchError
			require.True(t, errors.As(err, &de), "expected DispatchError, got %v", err)
			assert.Equal(t, tt.kind, de.Kind)
			assert.Equal(t, tt.target, de.Target)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestDispatch_NoOpenNode(t *testing.T) {
	tree := rootTree("echo")
	require.NoError(t, tree.Close(0, "done"))

	_, err := Dispatch(context.Background(), build(t, nil), tree)
	var de *DispatchError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, KindContractViolation, de.Kind)
	assert.ErrorIs(t, err, domain.ErrNoOpenNode)
}

func TestDispatch_FatalError(t *testing.T) {
	boom := errors.New("provider unavailable")
	reg := build(t, map[string]ports.Handler{
		"fail": ports.HandlerFunc(func(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
			return nil, boom
		}),
	})

	_, err := Dispatch(context.Background(), reg, rootTree("fail"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var de *DispatchError
	assert.False(t, errors.As(err, &de), "handler errors other than recursion limits are fatal")
}
