package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/recoma/pkg/adapters/memory"
	"github.com/aretw0/recoma/pkg/domain"
)

type solverFunc func(ctx context.Context, task *domain.Task) (*domain.Result, error)

func (f solverFunc) Search(ctx context.Context, task *domain.Task) (*domain.Result, error) {
	return f(ctx, task)
}

func echo() solverFunc {
	return func(ctx context.Context, task *domain.Task) (*domain.Result, error) {
		tree := domain.NewTree(task)
		id, _ := tree.AddChild(domain.NoParent, domain.Step{Input: task.Question, Target: "echo"})
		_ = tree.Close(id, "42")
		return &domain.Result{Task: task, Answer: "42", FinalTree: tree, Outcome: domain.OutcomeSolved, Iterations: 1}, nil
	}
}

func connect(t *testing.T, s *Server) *client.Client {
	t.Helper()
	c, err := client.NewInProcessClient(s.MCPServer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "test-client", Version: "1.0.0"}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)
	return c
}

func call(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestServer_Tools(t *testing.T) {
	t.Run("without store", func(t *testing.T) {
		c := connect(t, NewServer(echo()))
		tools, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
		require.NoError(t, err)

		var names []string
		for _, tool := range tools.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"solve"}, names)
	})

	t.Run("with store", func(t *testing.T) {
		c := connect(t, NewServer(echo(), WithStore(memory.NewStore())))
		tools, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
		require.NoError(t, err)

		var names []string
		for _, tool := range tools.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"solve", "list_results", "get_result"}, names)
	})
}

func TestServer_Solve(t *testing.T) {
	store := memory.NewStore()
	c := connect(t, NewServer(echo(), WithStore(store)))

	res := call(t, c, "solve", map[string]any{"id": "t1", "question": "What is 6 * 7?", "answer": "42"})
	require.False(t, res.IsError, text(t, res))

	var out SolveResult
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, "t1", out.ID)
	assert.Equal(t, "42", out.Answer)
	assert.Equal(t, string(domain.OutcomeSolved), out.Outcome)
	require.NotNil(t, out.Correct)
	assert.True(t, *out.Correct)
	assert.Nil(t, out.Tree)

	saved, err := store.Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "What is 6 * 7?", saved.Task.Question)
}

func TestServer_Solve_GeneratesIDAndTree(t *testing.T) {
	c := connect(t, NewServer(echo()))

	res := call(t, c, "solve", map[string]any{"question": "Q", "include_tree": true})
	require.False(t, res.IsError, text(t, res))

	var out SolveResult
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.NotEmpty(t, out.ID)
	assert.Nil(t, out.Correct)
	assert.NotNil(t, out.Tree)
}

func TestServer_Solve_Errors(t *testing.T) {
	failing := solverFunc(func(ctx context.Context, task *domain.Task) (*domain.Result, error) {
		err := errors.New("generator down")
		return &domain.Result{Task: task, Outcome: domain.OutcomeFailed, Error: err}, err
	})
	store := memory.NewStore()
	c := connect(t, NewServer(failing, WithStore(store)))

	res := call(t, c, "solve", map[string]any{"id": "bad", "question": "Q"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "generator down")

	saved, err := store.Load(context.Background(), "bad")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, saved.Outcome)

	res = call(t, c, "solve", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "question is required")

	t.Setenv("RECOMA_MAX_INPUT_SIZE", "4")
	res = call(t, c, "solve", map[string]any{"question": "far too long"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "input rejected")
}

func TestServer_Results(t *testing.T) {
	store := memory.NewStore()
	c := connect(t, NewServer(echo(), WithStore(store)))

	res := call(t, c, "list_results", nil)
	assert.Equal(t, "[]", text(t, res))

	call(t, c, "solve", map[string]any{"id": "a", "question": "Q"})
	call(t, c, "solve", map[string]any{"id": "b", "question": "Q"})

	res = call(t, c, "list_results", nil)
	var ids []string
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &ids))
	assert.Equal(t, []string{"a", "b"}, ids)

	res = call(t, c, "get_result", map[string]any{"id": "a"})
	require.False(t, res.IsError, text(t, res))
	var loaded domain.Result
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &loaded))
	assert.Equal(t, "42", loaded.Answer)
	require.NotNil(t, loaded.FinalTree)
	assert.Same(t, loaded.Task, loaded.FinalTree.Task())

	res = call(t, c, "get_result", map[string]any{"id": "missing"})
	assert.True(t, res.IsError)
}

func TestServer_HandlersResource(t *testing.T) {
	c := connect(t, NewServer(echo(), WithHandlers([]string{"generator", "passthrough"})))

	req := mcp.ReadResourceRequest{}
	req.Params.URI = HandlersURI
	res, err := c.ReadResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	rc, ok := mcp.AsTextResourceContents(res.Contents[0])
	require.True(t, ok)
	assert.Equal(t, "application/json", rc.MIMEType)
	assert.JSONEq(t, `["generator","passthrough"]`, rc.Text)
}
