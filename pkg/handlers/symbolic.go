package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
)

// DefaultRouteRegex matches "[handler] question".
const DefaultRouteRegex = `\[([^\]]+)\] (.*)`

// RegexExtractor closes the open node with the first capture group of Regex applied to
// its input, or "" when the input does not match.
type RegexExtractor struct {
	Regex  *regexp.Regexp
	Next   string
	Logger *slog.Logger
}

// NewRegexExtractor compiles expr, which must have at least one capture group.
func NewRegexExtractor(expr, next string, logger *slog.Logger) (*RegexExtractor, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("regex %q has no capture group", expr)
	}
	return &RegexExtractor{Regex: re, Next: next, Logger: orDiscard(logger)}, nil
}

func (r *RegexExtractor) Dispatch(_ context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
	id, ok := tree.OpenNode()
	if !ok {
		return nil, domain.ErrNoOpenNode
	}
	n, err := tree.Node(id)
	if err != nil {
		return nil, err
	}
	output := ""
	if m := matchPrefix(r.Regex, n.Input()); m != nil {
		output = m[1]
	} else {
		r.Logger.Error("regex extractor found no match", "regex", r.Regex.String(), "input", n.Input())
	}
	return Expand(tree, ports.Generation{Outputs: []string{output}}, r.Next)
}

// Router sends the sub-question of "[name] question" to the handler called name and,
// once that child is resolved, closes with its output.
type Router struct {
	Regex  *regexp.Regexp
	Logger *slog.Logger
}

// NewRouter compiles expr, which must capture the handler name and the question.
func NewRouter(expr string, logger *slog.Logger) (*Router, error) {
	if expr == "" {
		expr = DefaultRouteRegex
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 2 {
		return nil, fmt.Errorf("router regex %q needs two capture groups", expr)
	}
	return &Router{Regex: re, Logger: orDiscard(logger)}, nil
}

func (r *Router) Dispatch(_ context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
	c, n, err := Open(tree)
	if err != nil {
		return nil, err
	}
	children := n.Children()
	switch len(children) {
	case 0:
		m := matchPrefix(r.Regex, n.Input())
		if m == nil {
			r.Logger.Error("router found no match", "regex", r.Regex.String(), "input", n.Input())
			return nil, nil
		}
		if _, err := c.AddChild(n.ID(), domain.Step{Input: m[2], Target: m[1]}); err != nil {
			return nil, err
		}
	case 1:
		outs, err := outputs(c, children)
		if err != nil {
			return nil, err
		}
		if err := c.Close(n.ID(), outs[0]); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("router node %d has %d children, expected at most 1", n.ID(), len(children))
	}
	return []*domain.Tree{c}, nil
}

// matchPrefix anchors the match at the start of s, like Python's re.match.
func matchPrefix(re *regexp.Regexp, s string) []string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil || loc[0] != 0 {
		return nil
	}
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
