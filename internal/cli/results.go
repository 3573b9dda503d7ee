package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/recoma/pkg/ports"
)

// ResultsOptions selects the store to manage.
type ResultsOptions struct {
	LogOptions
	ConfigPath string
}

func withStore(opts ResultsOptions, fn func(ports.ResultStore) error) error {
	s, err := openSession(sessionOptions{LogOptions: opts.LogOptions, ConfigPath: opts.ConfigPath})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if s.components.Store == nil {
		return errors.New("config has no store")
	}
	return fn(s.components.Store)
}

// ListResults prints the ids of every stored result.
func ListResults(ctx context.Context, opts ResultsOptions, out io.Writer) error {
	return withStore(opts, func(store ports.ResultStore) error {
		ids, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("error listing results: %w", err)
		}
		if len(ids) == 0 {
			fmt.Fprintln(out, "No stored results found.")
			return nil
		}
		fmt.Fprintln(out, "Stored Results:")
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	})
}

// InspectResult prints one stored result as indented JSON.
func InspectResult(ctx context.Context, opts ResultsOptions, id string, out io.Writer) error {
	return withStore(opts, func(store ports.ResultStore) error {
		res, err := store.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("error loading result '%s': %w", id, err)
		}
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	})
}

// RemoveResults deletes each id, reporting every failure.
func RemoveResults(ctx context.Context, opts ResultsOptions, ids []string, out io.Writer) error {
	return withStore(opts, func(store ports.ResultStore) error {
		var errs []error
		for _, id := range ids {
			if err := store.Delete(ctx, id); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
				continue
			}
			fmt.Fprintf(out, "Removed result '%s'\n", id)
		}
		return errors.Join(errs...)
	})
}
