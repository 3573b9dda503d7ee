// Package policy implements the built-in early-stopping policies.
package policy

import (
	"fmt"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
)

// Defaults used when a policy is configured without its limit.
const (
	DefaultMaxDepth = 100
	DefaultMaxIters = 100
	DefaultMaxCalls = 200
	DefaultMaxCost  = 2.0
)

// MaxDepth rejects candidates deeper than Limit.
type MaxDepth struct{ Limit int }

func (MaxDepth) Name() string { return "max_search_depth" }

func (p MaxDepth) ShouldStop(candidate *domain.Tree, _ int, _ ports.FrontierView) bool {
	return candidate.Depth() > p.Limit
}

// MaxIterations rejects every candidate once the loop has run Limit iterations.
type MaxIterations struct{ Limit int }

func (MaxIterations) Name() string { return "max_search_iters" }

func (p MaxIterations) ShouldStop(_ *domain.Tree, iteration int, _ ports.FrontierView) bool {
	return iteration >= p.Limit
}

// MaxCalls rejects candidates whose generator calls, summed over providers and models,
// reach Limit.
type MaxCalls struct{ Limit float64 }

func (MaxCalls) Name() string { return "max_llm_calls" }

func (p MaxCalls) ShouldStop(candidate *domain.Tree, _ int, _ ports.FrontierView) bool {
	return candidate.CounterSum(domain.MetricCalls) >= p.Limit
}

// MaxCost rejects candidates whose accumulated cost reaches Limit.
type MaxCost struct{ Limit float64 }

func (MaxCost) Name() string { return "max_llm_cost" }

func (p MaxCost) ShouldStop(candidate *domain.Tree, _ int, _ ports.FrontierView) bool {
	return candidate.CounterSum(domain.MetricCost) >= p.Limit
}

// Func adapts a predicate to a named StoppingPolicy.
type Func struct {
	Label string
	Fn    func(candidate *domain.Tree, iteration int, frontier ports.FrontierView) bool
}

func (f Func) Name() string { return f.Label }

func (f Func) ShouldStop(candidate *domain.Tree, iteration int, frontier ports.FrontierView) bool {
	return f.Fn(candidate, iteration, frontier)
}

// Set evaluates policies in order and stops at the first rejection.
type Set []ports.StoppingPolicy

// Check returns the name of the rejecting policy, or "" if the candidate survives.
func (s Set) Check(candidate *domain.Tree, iteration int, frontier ports.FrontierView) (string, bool) {
	for _, p := range s {
		if p.ShouldStop(candidate, iteration, frontier) {
			return Name(p), true
		}
	}
	return "", false
}

func (s Set) ShouldStop(candidate *domain.Tree, iteration int, frontier ports.FrontierView) bool {
	_, stop := s.Check(candidate, iteration, frontier)
	return stop
}

// Name reports p's name, falling back to its Go type.
func Name(p ports.StoppingPolicy) string {
	if n, ok := p.(ports.Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}

// Register adds the built-in policies to c under their configuration names.
func Register(c *registry.Catalog[ports.StoppingPolicy]) {
	c.Register("max_search_depth", func(params map[string]any) (ports.StoppingPolicy, error) {
		p := struct {
			Limit int `mapstructure:"max_search_depth"`
		}{DefaultMaxDepth}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		return MaxDepth{Limit: p.Limit}, nil
	})
	c.Register("max_search_iters", func(params map[string]any) (ports.StoppingPolicy, error) {
		p := struct {
			Limit int `mapstructure:"max_search_iters"`
		}{DefaultMaxIters}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		return MaxIterations{Limit: p.Limit}, nil
	})
	c.Register("max_llm_calls", func(params map[string]any) (ports.StoppingPolicy, error) {
		p := struct {
			Limit float64 `mapstructure:"max_llm_calls"`
		}{DefaultMaxCalls}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		return MaxCalls{Limit: p.Limit}, nil
	})
	c.Register("max_llm_cost", func(params map[string]any) (ports.StoppingPolicy, error) {
		p := struct {
			Limit float64 `mapstructure:"max_llm_cost"`
		}{DefaultMaxCost}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		return MaxCost{Limit: p.Limit}, nil
	})
}
