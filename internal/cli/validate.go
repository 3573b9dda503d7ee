package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/recoma/internal/presentation/graph"
	"github.com/aretw0/recoma/internal/validator"
)

// ValidateOptions configures the validate command.
type ValidateOptions struct {
	LogOptions
	ConfigPath string
	// Graph prints the model graph as a Mermaid flowchart.
	Graph bool
}

// Validate builds every component of the config and crawls its model graph.
func Validate(opts ValidateOptions, out io.Writer) error {
	s, err := openSession(sessionOptions{LogOptions: opts.LogOptions, ConfigPath: opts.ConfigPath})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	models := s.cfg.Graph()
	report, err := validator.ValidateGraph(models, s.cfg.StartModel)
	if err != nil {
		return err
	}
	for _, name := range report.Unreachable {
		fmt.Fprintf(out, "warning: model %q is not referenced from %q (fine if a router targets it)\n", name, s.cfg.StartModel)
	}

	if opts.Graph {
		fmt.Fprintln(out, graph.GenerateMermaid(s.cfg.StartModel, models))
	}
	return nil
}
