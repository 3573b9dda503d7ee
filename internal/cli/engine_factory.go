package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/recoma/internal/telemetry"
	"github.com/aretw0/recoma/pkg/config"
	"github.com/aretw0/recoma/pkg/domain"
)

// session bundles what every command needs: the loaded config, the built components
// and the logger, plus whatever must be released on exit.
type session struct {
	cfg        *config.Config
	components *config.Components
	logger     *slog.Logger

	closers  []io.Closer
	shutdown telemetry.ShutdownFunc
}

// Close flushes traces and releases stores and the log file.
func (s *session) Close() error {
	var errs []error
	if s.shutdown != nil {
		errs = append(errs, s.shutdown(context.Background()))
	}
	if s.components != nil {
		errs = append(errs, s.components.Close())
	}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// sessionOptions adds to the options derived from the config file.
type sessionOptions struct {
	LogOptions
	ConfigPath string
	OutputDir  string
	TraceFile  string
	Hooks      domain.SearchHooks
}

// openSession loads the config and builds its components with standard CLI conventions.
func openSession(opts sessionOptions) (*session, error) {
	if opts.ConfigPath == "" {
		return nil, errors.New("--config is required")
	}

	logger, logCloser, err := createLogger(opts.LogOptions)
	if err != nil {
		return nil, err
	}
	s := &session{logger: logger, closers: []io.Closer{logCloser}}

	s.cfg, err = config.Load(opts.ConfigPath)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	hooks := opts.Hooks
	if opts.Debug {
		hooks = hooks.Merge(createDebugHooks(logger))
	}
	buildOpts := []config.BuildOption{
		config.WithLogger(logger),
		config.WithHooks(hooks),
	}
	if opts.OutputDir != "" {
		buildOpts = append(buildOpts, config.WithOutputDir(opts.OutputDir))
	}
	if opts.TraceFile != "" {
		tp, shutdown, err := telemetry.NewFileProvider(opts.TraceFile, "recoma")
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.shutdown = shutdown
		buildOpts = append(buildOpts, config.WithTracerProvider(tp))
	}

	s.components, err = config.Build(s.cfg, buildOpts...)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return s, nil
}
