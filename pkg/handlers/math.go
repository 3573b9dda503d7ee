package handlers

import (
	"context"
	"log/slog"
	"strings"

	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
)

// DefaultMaxSteps bounds the execution of a single program.
const DefaultMaxSteps = 1_000_000

// Generated programs are written like scripts, with loops and reassignment at top level.
var programOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// MathExec runs the open node's input as a Starlark program and closes the node with the
// JSON encoding of the program's global "answer". Programs that fail or do not define
// answer produce "".
type MathExec struct {
	Next     string
	MaxSteps uint64
	Logger   *slog.Logger
}

func (m *MathExec) Dispatch(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
	c, n, err := Open(tree)
	if err != nil {
		return nil, err
	}
	program := n.Input()
	output := m.eval(ctx, program)
	if err := n.SetInput("```\n" + program + "\n```"); err != nil {
		return nil, err
	}
	if err := closeAndContinue(c, n, output, m.Next); err != nil {
		return nil, err
	}
	return []*domain.Tree{c}, nil
}

func (m *MathExec) eval(ctx context.Context, program string) string {
	log := orDiscard(m.Logger)
	program = strings.ReplaceAll(program, `\n`, "\n")

	thread := &starlark.Thread{Name: "math_exec"}
	steps := m.MaxSteps
	if steps == 0 {
		steps = DefaultMaxSteps
	}
	thread.SetMaxExecutionSteps(steps)
	stop := context.AfterFunc(ctx, func() { thread.Cancel(ctx.Err().Error()) })
	defer stop()

	predeclared := starlark.StringDict{
		"math":   math.Module,
		"json":   json.Module,
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
	}
	globals, err := starlark.ExecFileOptions(programOptions, thread, "program.star", program, predeclared)
	if err != nil {
		log.Error("could not execute program", "program", program, "error", err)
		return ""
	}
	answer, ok := globals["answer"]
	if !ok {
		log.Error("program did not set answer", "program", program)
		return ""
	}
	encoded, err := starlark.Call(thread, json.Module.Members["encode"], starlark.Tuple{answer}, nil)
	if err != nil {
		log.Error("could not encode answer", "error", err)
		return ""
	}
	s, ok := starlark.AsString(encoded)
	if !ok {
		return ""
	}
	return s
}

var _ ports.Handler = (*MathExec)(nil)
