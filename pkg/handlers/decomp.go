package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/recoma/pkg/domain"
)

// DecompController drives a decomposition loop. Its children alternate between the
// decomposer (even positions) and the QA handler (odd positions). When the decomposer
// emits EOQ, the node closes with the last QA answer.
type DecompController struct {
	DecompModel     string `mapstructure:"decomp_model"`
	QAModel         string `mapstructure:"qa_model"`
	UseNumberFormat bool   `mapstructure:"use_number_format"`
	EOQ             string `mapstructure:"eoq_string"`
	Next            string `mapstructure:"next_model"`
}

func (d *DecompController) Dispatch(_ context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
	c, n, err := Open(tree)
	if err != nil {
		return nil, err
	}
	outs, err := outputs(c, n.Children())
	if err != nil {
		return nil, err
	}

	if len(outs)%2 == 0 {
		_, err := c.AddChild(n.ID(), domain.Step{Input: d.history(n.Input(), outs), Target: d.DecompModel})
		if err != nil {
			return nil, err
		}
		return []*domain.Tree{c}, nil
	}

	question := outs[len(outs)-1]
	if question == d.eoq() {
		if len(outs) < 2 {
			return nil, fmt.Errorf("decomposer ended before asking a question")
		}
		if err := closeAndContinue(c, n, outs[len(outs)-2], d.Next); err != nil {
			return nil, err
		}
		return []*domain.Tree{c}, nil
	}

	// #1, #2, ... refer to earlier answers.
	var answers []string
	for i := 1; i < len(outs); i += 2 {
		answers = append(answers, outs[i])
	}
	if _, err := c.AddChild(n.ID(), domain.Step{Input: substituteVars(question, answers), Target: d.QAModel}); err != nil {
		return nil, err
	}
	return []*domain.Tree{c}, nil
}

func (d *DecompController) eoq() string {
	if d.EOQ == "" {
		return "[EOQ]"
	}
	return d.EOQ
}

// history renders the question followed by the sub-questions and answers so far, ending
// with the prompt for the next sub-question.
func (d *DecompController) history(input string, outs []string) string {
	var b strings.Builder
	b.WriteString(input + "\n")
	for i := 0; i+1 < len(outs); i += 2 {
		q, a := "QS", "A"
		if d.UseNumberFormat {
			q, a = fmt.Sprintf("Q%d", i/2+1), fmt.Sprintf("#%d", i/2+1)
		}
		b.WriteString(q + ": " + outs[i] + "\n")
		b.WriteString(a + ": " + outs[i+1] + "\n")
	}
	if d.UseNumberFormat {
		fmt.Fprintf(&b, "Q%d: ", len(outs)/2+1)
	} else {
		b.WriteString("QS: ")
	}
	return b.String()
}

// substituteVars replaces #1, #2, ... with the corresponding answers. Higher indexes are
// replaced first so that #1 never clobbers the prefix of #10.
func substituteVars(question string, answers []string) string {
	for i := len(answers); i >= 1; i-- {
		question = strings.ReplaceAll(question, fmt.Sprintf("#%d", i), answers[i-1])
	}
	return question
}
