package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/recoma"
	"github.com/aretw0/recoma/internal/presentation/tui"
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/runner"
)

// DemoOptions configures the interactive demo.
type DemoOptions struct {
	LogOptions
	ConfigPath string
	TraceFile  string
	// Pretty renders answers with glamour. RunDemo enables it when stdout is a terminal.
	Pretty bool
}

// errQuit ends the demo loop on an empty question or "quit".
var errQuit = errors.New("quit")

// RunDemo reads a task id, a question and an optional context paragraph from in,
// searches, and prints the answer with its reasoning tree. An empty question or
// "quit" ends the loop. Ctrl+C aborts the current search only.
func RunDemo(opts DemoOptions, in io.Reader, out io.Writer) error {
	s, err := openSession(sessionOptions{
		LogOptions: opts.LogOptions,
		ConfigPath: opts.ConfigPath,
		TraceFile:  opts.TraceFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if f, ok := out.(*os.File); ok && tui.IsTerminal(f) {
		opts.Pretty = true
		tui.PrintBanner(out, strings.TrimSpace(recoma.Version))
	}
	render := func(md string) (string, error) { return md, nil }
	if opts.Pretty {
		render = tui.NewRenderer()
	}

	sm := runner.NewSignalManager()
	defer sm.Stop()
	return demoLoop(s, sm, render, in, out)
}

func demoLoop(s *session, sm *runner.SignalManager, render func(string) (string, error), in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for n := 1; ; n++ {
		task, err := readTask(reader, out, n)
		if errors.Is(err, runner.ErrInputTooLarge) || errors.Is(err, runner.ErrInvalidUTF8) {
			fmt.Fprintf(out, "Rejected: %v\n", err)
			continue
		}
		if errors.Is(err, errQuit) {
			fmt.Fprintln(out, "\nBye.")
			return nil
		}
		if err != nil {
			if !isInterrupted(err) {
				return err
			}
			// Ctrl+C may close stdin just before the signal arrives.
			sm.CheckRace()
			if sm.Context().Err() != nil {
				fmt.Fprint(out, "\nInterrupted.")
			}
			fmt.Fprintln(out, "\nBye.")
			return nil
		}

		res, err := s.components.Engine.Search(sm.Context(), task)
		if err != nil && sm.Context().Err() != nil {
			fmt.Fprintln(out, "\nSearch interrupted.")
			sm.Reset()
			continue
		}
		if res == nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		text, rerr := render(tui.ResultMarkdown(res))
		if rerr != nil {
			text = tui.ResultMarkdown(res)
		}
		fmt.Fprintln(out, text)
	}
}

func readTask(r *bufio.Reader, out io.Writer, n int) (*domain.Task, error) {
	qid, err := prompt(r, out, fmt.Sprintf("QID [%d]: ", n))
	if err != nil {
		return nil, err
	}
	if qid == "" {
		qid = fmt.Sprint(n)
	}

	question, err := prompt(r, out, "Question: ")
	if err != nil {
		return nil, err
	}
	if question == "" || strings.EqualFold(question, "quit") {
		return nil, errQuit
	}
	if question, err = runner.SanitizeInput(question); err != nil {
		return nil, err
	}

	task := &domain.Task{ID: qid, Question: question}
	para, err := prompt(r, out, "Context (optional): ")
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if para != "" {
		task.Paras = []string{para}
	}
	return task, nil
}

func prompt(r *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return line, err
	}
	return line, nil
}
