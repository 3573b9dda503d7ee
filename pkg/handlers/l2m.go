package handlers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/recoma/pkg/domain"
)

// Default least-to-most parsing expressions.
const (
	DefaultStepRegex = `To answer the question "(.*)", we need to know: (.*)`
	DefaultQuesRegex = `"(.*?)"(?:,|\.|$)`
)

const questionsKey = "questions"

// LeastToMost first asks the decomposer for a plan, parses the sub-questions out of it,
// then asks them one by one, feeding each answer into the next prompt. The original
// question is asked last and its answer closes the node.
type LeastToMost struct {
	DecompModel string
	QAModel     string
	Next        string
	StepRegex   *regexp.Regexp
	QuesRegex   *regexp.Regexp
}

// NewLeastToMost compiles the parsing expressions; empty strings select the defaults.
func NewLeastToMost(decompModel, qaModel, next, stepRegex, quesRegex string) (*LeastToMost, error) {
	if stepRegex == "" {
		stepRegex = DefaultStepRegex
	}
	if quesRegex == "" {
		quesRegex = DefaultQuesRegex
	}
	step, err := regexp.Compile(stepRegex)
	if err != nil {
		return nil, fmt.Errorf("step_regex: %w", err)
	}
	ques, err := regexp.Compile(quesRegex)
	if err != nil {
		return nil, fmt.Errorf("ques_regex: %w", err)
	}
	return &LeastToMost{DecompModel: decompModel, QAModel: qaModel, Next: next, StepRegex: step, QuesRegex: ques}, nil
}

func (l *LeastToMost) Dispatch(_ context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
	c, n, err := Open(tree)
	if err != nil {
		return nil, err
	}
	children := n.Children()
	if len(children) == 0 {
		if _, err := c.AddChild(n.ID(), domain.Step{Input: n.Input(), Target: l.DecompModel}); err != nil {
			return nil, err
		}
		return []*domain.Tree{c}, nil
	}

	questions, ok := n.Data().Strings(questionsKey)
	if !ok {
		plan, err := outputs(c, children[:1])
		if err != nil {
			return nil, err
		}
		questions, err = l.parse(plan[0])
		if err != nil {
			return nil, err
		}
		if err := n.Set(questionsKey, questions); err != nil {
			return nil, err
		}
	}

	if len(questions)+1 == len(children) {
		last, err := outputs(c, children[len(children)-1:])
		if err != nil {
			return nil, err
		}
		if err := closeAndContinue(c, n, last[0], l.Next); err != nil {
			return nil, err
		}
		return []*domain.Tree{c}, nil
	}

	current := questions[len(children)-1]
	prefix := ""
	if len(children) > 1 {
		prev, err := c.Node(children[len(children)-1])
		if err != nil {
			return nil, err
		}
		out, _ := prev.Output()
		prefix = prev.Input() + " " + out + "\n\n"
	}
	step := domain.Step{
		Input:           prefix + "Q: " + current + "\nA:",
		InputForDisplay: "...Q: " + current + "\nA:",
		Target:          l.QAModel,
	}
	if _, err := c.AddChild(n.ID(), step); err != nil {
		return nil, err
	}
	return []*domain.Tree{c}, nil
}

// parse extracts the sub-questions from a plan and appends the original question.
func (l *LeastToMost) parse(plan string) ([]string, error) {
	m := matchPrefix(l.StepRegex, plan)
	if m == nil || len(m) < 3 {
		return nil, fmt.Errorf("cannot parse plan %q", plan)
	}
	var questions []string
	for _, q := range l.QuesRegex.FindAllStringSubmatch(m[2], -1) {
		if len(q) > 1 {
			questions = append(questions, q[1])
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions found in plan %q", plan)
	}
	return append(questions, m[1]), nil
}
