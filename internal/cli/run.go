package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/render"
	"github.com/aretw0/recoma/pkg/runner"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Output layout of a batch run.
const (
	PredictionsFile  = "predictions.json"
	AllDataFile      = "all_data.jsonl"
	SourceConfigFile = "source_config.json"
	FilesDir         = "files"
	PromptsDir       = "prompts_dump"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	LogOptions
	ConfigPath  string
	InputPath   string
	OutputDir   string
	Workers     int
	DumpPrompts bool
	TraceFile   string
	RateLimit   float64
	Resume      bool
}

// Execute runs batch inference over the input dataset and writes the output layout
// into opts.OutputDir. The EM score is printed to out.
func Execute(ctx context.Context, opts RunOptions, out io.Writer) (runner.Summary, error) {
	if opts.InputPath == "" {
		return runner.Summary{}, errors.New("--input is required")
	}
	if opts.OutputDir == "" {
		return runner.Summary{}, errors.New("--output-dir is required")
	}
	if err := os.MkdirAll(filepath.Join(opts.OutputDir, FilesDir), 0o755); err != nil {
		return runner.Summary{}, fmt.Errorf("failed to create output dir: %w", err)
	}

	s, err := openSession(sessionOptions{
		LogOptions: opts.LogOptions,
		ConfigPath: opts.ConfigPath,
		OutputDir:  filepath.Join(opts.OutputDir, FilesDir),
		TraceFile:  opts.TraceFile,
	})
	if err != nil {
		return runner.Summary{}, err
	}
	defer func() { _ = s.Close() }()

	if s.components.Reader == nil {
		return runner.Summary{}, errors.New("config has no reader")
	}
	tasks, err := s.components.Reader.Read(ctx, opts.InputPath)
	if err != nil {
		return runner.Summary{}, err
	}
	s.logger.Info("loaded tasks", "count", len(tasks), "input", opts.InputPath)

	data, err := s.cfg.Marshal()
	if err != nil {
		return runner.Summary{}, err
	}
	if err := os.WriteFile(filepath.Join(opts.OutputDir, SourceConfigFile), data, 0o644); err != nil {
		return runner.Summary{}, err
	}

	workers := opts.Workers
	if workers == 0 {
		workers = s.components.Workers
	}
	rateLimit := opts.RateLimit
	if rateLimit == 0 {
		rateLimit = s.cfg.RateLimit
	}

	var dumpErrs []error
	onResult := func(res *domain.Result) {
		if opts.DumpPrompts && res.FinalTree != nil {
			if err := dumpPrompts(opts.OutputDir, res); err != nil {
				dumpErrs = append(dumpErrs, err)
			}
		}
	}

	runOpts := []runner.Option{
		runner.WithWorkers(workers),
		runner.WithStore(s.components.Store),
		runner.WithResume(opts.Resume),
		runner.WithRateLimit(rateLimit, workers),
		runner.WithLogger(s.logger),
		runner.WithOnResult(onResult),
	}
	if s.components.Locker != nil {
		runOpts = append(runOpts, runner.WithLocker(s.components.Locker, 0))
	}
	r := runner.New(s.components.Engine, runOpts...)

	batch, runErr := r.Run(ctx, tasks)
	if batch == nil {
		return runner.Summary{}, runErr
	}
	if err := writeOutputs(opts.OutputDir, batch); err != nil {
		return runner.Summary{}, err
	}

	summary := batch.Summary()
	printSummary(out, summary, len(batch.Skipped), len(batch.Resumed))
	return summary, errors.Join(append(dumpErrs, runErr)...)
}

func writeOutputs(dir string, batch *runner.Batch) error {
	preds, err := json.MarshalIndent(batch.Predictions(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, PredictionsFile), preds, 0o644); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, AllDataFile))
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, res := range batch.Results {
		line, err := json.Marshal(res)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("task %s: %w", res.Task.ID, err)
		}
		_, _ = w.Write(line)
		_ = w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func dumpPrompts(dir string, res *domain.Result) error {
	prompts := render.Prompts(res.FinalTree)
	if prompts == "" {
		return nil
	}
	path := filepath.Join(dir, PromptsDir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	name := render.CleanName(res.Task.ID) + "_prompts.txt"
	return os.WriteFile(filepath.Join(path, name), []byte(prompts), 0o644)
}

func printSummary(w io.Writer, s runner.Summary, skipped, resumed int) {
	fmt.Fprintf(w, "Tasks: %d", s.Total)
	if resumed > 0 {
		fmt.Fprintf(w, " (resumed %d)", resumed)
	}
	if skipped > 0 {
		fmt.Fprintf(w, " (skipped %d)", skipped)
	}
	fmt.Fprintln(w)

	outcomes := make([]string, 0, len(s.Outcomes))
	for o := range s.Outcomes {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(w, "  %s: %d\n", o, s.Outcomes[domain.Outcome(o)])
	}
	if s.Scored > 0 {
		fmt.Fprintf(w, "EM: %.4f (%d/%d)\n", s.EM(), s.Correct, s.Scored)
	}
}
