package registry

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noop = ports.HandlerFunc(func(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
	return nil, nil
})

func TestBuilder(t *testing.T) {
	b := NewBuilder().Register("b", noop).Register("a", noop)
	reg, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, reg.Names())
	assert.Equal(t, 2, reg.Len())
	_, ok := reg.Lookup("a")
	assert.True(t, ok)
	_, ok = reg.Lookup("missing")
	assert.False(t, ok)

	// later registrations do not leak into an already built registry
	b.Register("c", noop)
	assert.Equal(t, 2, reg.Len())
}

func TestBuilder_Duplicate(t *testing.T) {
	_, err := NewBuilder().Register("a", noop).Register("a", noop).Build()
	assert.ErrorIs(t, err, ErrDuplicateHandler)
}

type depthParams struct {
	Max   int           `mapstructure:"max"`
	Label string        `mapstructure:"label"`
	TTL   time.Duration `mapstructure:"ttl"`
}

func TestCatalog(t *testing.T) {
	c := NewCatalog[depthParams]("policy")
	c.Register("depth", func(params map[string]any) (depthParams, error) {
		p := depthParams{Max: 100}
		err := Decode(params, &p)
		return p, err
	})

	t.Run("Defaults", func(t *testing.T) {
		p, err := c.New(map[string]any{"type": "depth"})
		require.NoError(t, err)
		assert.Equal(t, 100, p.Max)
	})

	t.Run("WeaklyTyped", func(t *testing.T) {
		p, err := c.New(map[string]any{"type": "depth", "max": "5", "ttl": "1m"})
		require.NoError(t, err)
		assert.Equal(t, 5, p.Max)
		assert.Equal(t, time.Minute, p.TTL)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := c.New(map[string]any{"type": "depth", "mxa": 5})
		assert.ErrorContains(t, err, "mxa")
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := c.New(map[string]any{"type": "nope"})
		assert.ErrorContains(t, err, `unknown type "nope"`)
	})

	t.Run("MissingType", func(t *testing.T) {
		_, err := c.New(map[string]any{"max": 1})
		assert.ErrorContains(t, err, "missing")
	})

	assert.True(t, c.Has("depth"))
	assert.Equal(t, []string{"depth"}, c.Names())
}
