package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
)

// ErrNotRegistered is returned for a tool that is neither allow-listed nor allowed inline.
var ErrNotRegistered = errors.New("process tool not registered")

// Runner executes local processes that act as generators.
// It follows a Strict Registry pattern for security (Allow-Listing).
type Runner struct {
	registry    map[string]RegisteredProcess
	allowInline bool
	baseDir     string
	timeout     time.Duration
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(tools map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			r.registry[name] = RegisteredProcess{Command: tool.Command, Args: tool.Args, Env: tool.Environment}
		}
	}
}

// WithInlineExecution lets generator records name a command directly (Dangerous).
func WithInlineExecution(allow bool) RunnerOption {
	return func(r *Runner) {
		r.allowInline = allow
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout bounds every execution.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted script/command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Tools returns the allow-listed names, sorted.
func (r *Runner) Tools() []string {
	names := make([]string, 0, len(r.registry))
	for n := range r.registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Reply is the decoded stdout of a generator process.
//
// A process may print a JSON object with these fields, a JSON array of strings (one output
// each), or plain text (a single output).
type Reply struct {
	Outputs          []string  `json:"outputs"`
	Scores           []float64 `json:"scores"`
	Model            string    `json:"model"`
	Cost             float64   `json:"cost"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
}

// Execute runs proc with input on stdin. Task fields are passed as RECOMA_ARG_<KEY>
// environment variables rather than flags so they cannot inject options.
func (r *Runner) Execute(ctx context.Context, proc RegisteredProcess, input string, fields map[string]any) (Reply, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir

	env := make([]string, 0, len(fields)+len(proc.Env))
	for k, v := range proc.Env {
		env = append(env, k+"="+v)
	}
	for k, v := range fields {
		var val string
		switch v.(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			if inJSON, err := json.Marshal(v); err == nil {
				val = string(inJSON)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, fmt.Sprintf("RECOMA_ARG_%s=%s", strings.ToUpper(k), val))
	}
	cmd.Env = append(cmd.Environ(), env...)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Reply{}, fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseReply(stdout.String())
}

func parseReply(output string) (Reply, error) {
	trimmed := strings.TrimSpace(output)

	switch {
	case strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}"):
		var reply Reply
		if err := json.Unmarshal([]byte(trimmed), &reply); err != nil {
			return Reply{}, fmt.Errorf("invalid reply: %w", err)
		}
		if len(reply.Scores) > 0 && len(reply.Scores) != len(reply.Outputs) {
			return Reply{}, fmt.Errorf("invalid reply: %d scores for %d outputs", len(reply.Scores), len(reply.Outputs))
		}
		return reply, nil
	case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
		var outputs []string
		if err := json.Unmarshal([]byte(trimmed), &outputs); err == nil {
			return Reply{Outputs: outputs}, nil
		}
	}
	return Reply{Outputs: []string{trimmed}}, nil
}

// Generator is a ports.Generator backed by an external process.
type Generator struct {
	Runner      *Runner
	Process     RegisteredProcess
	Provider    string
	Model       string
	CostPerCall float64
}

func (g *Generator) Generate(ctx context.Context, input string, tree *domain.Tree) (ports.Generation, error) {
	var fields map[string]any
	if task := tree.Task(); task != nil {
		fields = task.Fields()
		delete(fields, "answer")
	}
	reply, err := g.Runner.Execute(ctx, g.Process, input, fields)
	if err != nil {
		return ports.Generation{}, err
	}
	model := g.Model
	if reply.Model != "" {
		model = reply.Model
	}
	return ports.Generation{
		Outputs:          reply.Outputs,
		Scores:           reply.Scores,
		Provider:         g.Provider,
		Model:            model,
		Cost:             g.CostPerCall + reply.Cost,
		PromptTokens:     reply.PromptTokens,
		CompletionTokens: reply.CompletionTokens,
	}, nil
}

// Register adds the "process" generator type, resolving records against r.
//
//	{type: process, tool: <allow-listed name>, model: ..., cost_per_call: ...}
//	{type: process, command: python, args: [gen.py]}   # inline, only when allowed
func Register(generators *registry.Catalog[ports.Generator], r *Runner) {
	generators.Register("process", func(params map[string]any) (ports.Generator, error) {
		var p struct {
			Tool        string   `mapstructure:"tool"`
			Command     string   `mapstructure:"command"`
			Args        []string `mapstructure:"args"`
			Provider    string   `mapstructure:"provider"`
			Model       string   `mapstructure:"model"`
			CostPerCall float64  `mapstructure:"cost_per_call"`
		}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}

		var proc RegisteredProcess
		switch {
		case p.Tool != "":
			registered, ok := r.registry[p.Tool]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrNotRegistered, p.Tool)
			}
			proc = registered
		case p.Command != "" && r.allowInline:
			proc = RegisteredProcess{Command: p.Command, Args: p.Args}
		case p.Command != "":
			return nil, fmt.Errorf("%w: inline command %q (inline execution not enabled)", ErrNotRegistered, p.Command)
		default:
			return nil, errors.New("tool or command is required")
		}

		g := &Generator{Runner: r, Process: proc, Provider: p.Provider, Model: p.Model, CostPerCall: p.CostPerCall}
		if g.Provider == "" {
			g.Provider = "process"
		}
		if g.Model == "" {
			g.Model = p.Tool
			if g.Model == "" {
				g.Model = p.Command
			}
		}
		return g, nil
	})
}
