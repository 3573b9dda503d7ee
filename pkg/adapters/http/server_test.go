package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recomahttp "github.com/aretw0/recoma/pkg/adapters/http"
	"github.com/aretw0/recoma/pkg/adapters/memory"
	"github.com/aretw0/recoma/pkg/domain"
)

type solverFunc func(ctx context.Context, task *domain.Task) (*domain.Result, error)

func (f solverFunc) Search(ctx context.Context, task *domain.Task) (*domain.Result, error) {
	return f(ctx, task)
}

// upper answers with the question in upper case, with a one-node tree.
var upper = solverFunc(func(_ context.Context, task *domain.Task) (*domain.Result, error) {
	tree := domain.NewTree(task)
	root, _ := tree.AddChild(domain.NoParent, domain.Step{Input: task.Question, Target: "upper"})
	answer := strings.ToUpper(task.Question)
	_ = tree.Close(root, answer)
	return &domain.Result{Task: task, Answer: answer, FinalTree: tree, Outcome: domain.OutcomeSolved, Iterations: 1}, nil
})

func newServer(t *testing.T, solver recomahttp.Solver, opts ...recomahttp.Option) *httptest.Server {
	t.Helper()
	h, err := recomahttp.NewHandler(solver, opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/solve", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, decode(resp, &out))
	return resp, out
}

func get(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, decode(resp, v))
	}
	return resp
}

func TestSpecIsValid(t *testing.T) {
	doc, err := recomahttp.LoadSpec(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Value("/solve"))
}

func TestSolve(t *testing.T) {
	store := memory.NewStore()
	srv := newServer(t, upper, recomahttp.WithStore(store))

	resp, out := post(t, srv, `{"id": "t1", "question": "hello", "answer": "HELLO", "include_tree": true}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "t1", out["id"])
	assert.Equal(t, "HELLO", out["answer"])
	assert.Equal(t, "solved", out["outcome"])
	assert.Equal(t, true, out["correct"])
	assert.Contains(t, out, "tree")

	stored, err := store.Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", stored.Answer)
}

func TestSolve_GeneratesID(t *testing.T) {
	srv := newServer(t, upper)
	_, out := post(t, srv, `{"question": "hi"}`)
	assert.NotEmpty(t, out["id"])
	assert.NotContains(t, out, "correct", "no gold answer, no correctness")
	assert.NotContains(t, out, "tree")
}

func TestSolve_RejectsInvalidBodies(t *testing.T) {
	srv := newServer(t, upper)
	for name, body := range map[string]string{
		"missing question": `{"id": "x"}`,
		"empty question":   `{"question": ""}`,
		"unknown field":    `{"question": "q", "model": "gpt"}`,
		"wrong type":       `{"question": 42}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, out := post(t, srv, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, out, "error")
		})
	}
}

func TestSolve_Failure(t *testing.T) {
	failing := solverFunc(func(_ context.Context, task *domain.Task) (*domain.Result, error) {
		err := errors.New("handler exploded")
		return &domain.Result{Task: task, Outcome: domain.OutcomeFailed, Error: err}, err
	})
	srv := newServer(t, failing)

	resp, out := post(t, srv, `{"question": "q"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "failed", out["outcome"])
	assert.Equal(t, "handler exploded", out["error"])
}

func TestResults(t *testing.T) {
	store := memory.NewStore()
	srv := newServer(t, upper, recomahttp.WithStore(store))
	post(t, srv, `{"id": "a", "question": "x"}`)
	post(t, srv, `{"id": "b", "question": "y"}`)

	var list struct{ IDs []string }
	resp := get(t, srv.URL+"/results", &list)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"a", "b"}, list.IDs)

	var res domain.Result
	resp = get(t, srv.URL+"/results/a", &res)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "X", res.Answer)
	require.NotNil(t, res.FinalTree)
	assert.True(t, res.FinalTree.Resolved())

	resp = get(t, srv.URL+"/results/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/results/a", nil)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
	_, err = store.Load(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)
}

func TestResults_WithoutStore(t *testing.T) {
	srv := newServer(t, upper)
	resp := get(t, srv.URL+"/results", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "recoma_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()
	srv := newServer(t, upper, recomahttp.WithGatherer(reg))

	var health map[string]string
	resp := get(t, srv.URL+"/healthz", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health["status"])

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var b strings.Builder
	_, _ = io.Copy(&b, resp.Body)
	assert.Contains(t, b.String(), "recoma_test_total 1")
}

func TestOpenAPIDocument(t *testing.T) {
	srv := newServer(t, upper)
	resp, err := http.Get(srv.URL + "/openapi.yaml")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/yaml", resp.Header.Get("Content-Type"))
}
