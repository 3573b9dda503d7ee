package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/recoma/internal/runtime"
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/handlers"
	"github.com/aretw0/recoma/pkg/registry"
)

func TestFileProvider_RecordsSearchSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	tp, shutdown, err := NewFileProvider(path, "recoma-test")
	require.NoError(t, err)

	reg, err := registry.NewBuilder().Register("echo", &handlers.Passthrough{}).Build()
	require.NoError(t, err)
	engine := runtime.NewEngine(reg, "echo", runtime.WithTracerProvider(tp))

	res, err := engine.Search(context.Background(), &domain.Task{ID: "t1", Question: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Answer)

	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"Name":"recoma.Search"`)
	assert.Contains(t, out, `"Name":"recoma.Dispatch"`)
	assert.Contains(t, out, "recoma-test")
	assert.Contains(t, out, "t1")
}

func TestFileProvider_BadPath(t *testing.T) {
	_, _, err := NewFileProvider(filepath.Join(t.TempDir(), "missing", "trace.json"), "x")
	assert.Error(t, err)
}
