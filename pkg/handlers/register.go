package handlers

import (
	"errors"
	"log/slog"

	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
)

// Register adds the built-in handler types to handlers. The generator handler builds its
// nested generator record from generators.
func Register(handlers *registry.Catalog[ports.Handler], generators *registry.Catalog[ports.Generator], logger *slog.Logger) {
	handlers.Register("passthrough", func(params map[string]any) (ports.Handler, error) {
		h := &Passthrough{}
		return h, registry.Decode(params, h)
	})

	handlers.Register("regex_ext", func(params map[string]any) (ports.Handler, error) {
		var p struct {
			Regex string `mapstructure:"regex"`
			Next  string `mapstructure:"next_model"`
		}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		if p.Regex == "" {
			return nil, errors.New("regex is required")
		}
		return NewRegexExtractor(p.Regex, p.Next, logger)
	})

	handlers.Register("router", func(params map[string]any) (ports.Handler, error) {
		var p struct {
			Regex string `mapstructure:"regex"`
		}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		return NewRouter(p.Regex, logger)
	})

	handlers.Register("decomp_control", func(params map[string]any) (ports.Handler, error) {
		h := &DecompController{EOQ: "[EOQ]"}
		if err := registry.Decode(params, h); err != nil {
			return nil, err
		}
		if h.DecompModel == "" || h.QAModel == "" {
			return nil, errors.New("decomp_model and qa_model are required")
		}
		return h, nil
	})

	handlers.Register("l2m_control", func(params map[string]any) (ports.Handler, error) {
		var p struct {
			DecompModel string `mapstructure:"l2m_decomp_model"`
			QAModel     string `mapstructure:"l2m_qa_model"`
			StepRegex   string `mapstructure:"step_regex"`
			QuesRegex   string `mapstructure:"ques_regex"`
			Next        string `mapstructure:"next_model"`
		}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		if p.DecompModel == "" || p.QAModel == "" {
			return nil, errors.New("l2m_decomp_model and l2m_qa_model are required")
		}
		return NewLeastToMost(p.DecompModel, p.QAModel, p.Next, p.StepRegex, p.QuesRegex)
	})

	handlers.Register("generator", func(params map[string]any) (ports.Handler, error) {
		var p struct {
			Generator map[string]any `mapstructure:"generator"`
			Next      string         `mapstructure:"next_model"`
		}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		if p.Generator == nil {
			return nil, errors.New("generator is required")
		}
		gen, err := generators.New(p.Generator)
		if err != nil {
			return nil, err
		}
		return &Generate{Generator: gen, Next: p.Next}, nil
	})

	handlers.Register("math_exec", func(params map[string]any) (ports.Handler, error) {
		var p struct {
			Next     string `mapstructure:"next_model"`
			MaxSteps uint64 `mapstructure:"max_steps"`
		}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		return &MathExec{Next: p.Next, MaxSteps: p.MaxSteps, Logger: logger}, nil
	})

	generators.Register("static", func(params map[string]any) (ports.Generator, error) {
		s := &Static{}
		if err := registry.Decode(params, s); err != nil {
			return nil, err
		}
		if err := s.Compile(); err != nil {
			return nil, err
		}
		return s, nil
	})
}
