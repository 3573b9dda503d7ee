package handlers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
)

// Generate asks a Generator for continuations of the open node's input and branches once
// per output. Every successor records the prompt trace, the call and its cost.
type Generate struct {
	Generator ports.Generator
	Next      string
}

func (g *Generate) Dispatch(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
	id, ok := tree.OpenNode()
	if !ok {
		return nil, domain.ErrNoOpenNode
	}
	n, err := tree.Node(id)
	if err != nil {
		return nil, err
	}
	gen, err := g.Generator.Generate(ctx, n.Input(), tree)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	successors, err := Expand(tree, gen, g.Next)
	if err != nil {
		return nil, err
	}
	for _, s := range successors {
		sn, err := s.Node(id)
		if err != nil {
			return nil, err
		}
		sn.AddPrompt(n.Input(), gen.Outputs)
		key := func(metric string) domain.CounterKey {
			return domain.CounterKey{Provider: gen.Provider, Model: gen.Model, Metric: metric}
		}
		s.UpdateCounter(key(domain.MetricCalls), 1)
		s.UpdateCounter(key(domain.MetricCost), gen.Cost)
		if gen.PromptTokens > 0 {
			s.UpdateCounter(key(domain.MetricPromptTokens), float64(gen.PromptTokens))
		}
		if gen.CompletionTokens > 0 {
			s.UpdateCounter(key(domain.MetricCompletionTokens), float64(gen.CompletionTokens))
		}
	}
	return successors, nil
}

// StaticResponse answers inputs matching Match with Outputs.
type StaticResponse struct {
	Match   string    `mapstructure:"match"`
	Outputs []string  `mapstructure:"outputs"`
	Scores  []float64 `mapstructure:"scores"`

	re *regexp.Regexp
}

// Static is an offline Generator that replays configured outputs. The first response
// whose Match expression is found in the input wins; otherwise Outputs is used.
type Static struct {
	Outputs     []string         `mapstructure:"outputs"`
	Scores      []float64        `mapstructure:"scores"`
	Responses   []StaticResponse `mapstructure:"responses"`
	Provider    string           `mapstructure:"provider"`
	Model       string           `mapstructure:"model"`
	CostPerCall float64          `mapstructure:"cost_per_call"`
}

// Compile validates the configured expressions and fills in defaults.
func (s *Static) Compile() error {
	if s.Provider == "" {
		s.Provider = "static"
	}
	if s.Model == "" {
		s.Model = "static"
	}
	for i := range s.Responses {
		re, err := regexp.Compile(s.Responses[i].Match)
		if err != nil {
			return fmt.Errorf("responses[%d]: %w", i, err)
		}
		s.Responses[i].re = re
	}
	return nil
}

func (s *Static) Generate(_ context.Context, input string, _ *domain.Tree) (ports.Generation, error) {
	outputs, scores := s.Outputs, s.Scores
	for _, r := range s.Responses {
		if r.re != nil && r.re.MatchString(input) {
			outputs, scores = r.Outputs, r.Scores
			break
		}
	}
	return ports.Generation{
		Outputs:  append([]string(nil), outputs...),
		Scores:   append([]float64(nil), scores...),
		Provider: s.Provider,
		Model:    s.Model,
		Cost:     s.CostPerCall,
	}, nil
}
