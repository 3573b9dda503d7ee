package domain

import (
	"errors"
)

// Outcome describes how a search ended.
type Outcome string

const (
	// OutcomeSolved means a popped tree had no open node.
	OutcomeSolved Outcome = "solved"
	// OutcomeExhausted means the frontier ran empty; the answer is degraded.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeCapped means the hard iteration cap was hit; the answer is best effort.
	OutcomeCapped Outcome = "capped"
	// OutcomeFailed means a handler returned a fatal error.
	OutcomeFailed Outcome = "failed"
)

// Result is what a search produces for one Task.
// FinalTree is nil when no tree could be popped at all.
type Result struct {
	Task       *Task
	Answer     string
	FinalTree  *Tree
	Outcome    Outcome
	Iterations int
	Error      error
}

// Correct reports an exact match against the gold answer.
func (r *Result) Correct() bool {
	return r.Task != nil && r.Task.Answer != "" && r.Answer == r.Task.Answer
}

type resultJSON struct {
	Task       *Task   `json:"task"`
	Answer     string  `json:"answer"`
	FinalTree  *Tree   `json:"final_tree,omitempty"`
	Outcome    Outcome `json:"outcome"`
	Iterations int     `json:"iterations"`
	Error      string  `json:"error,omitempty"`
}

func (r *Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Task:       r.Task,
		Answer:     r.Answer,
		FinalTree:  r.FinalTree,
		Outcome:    r.Outcome,
		Iterations: r.Iterations,
	}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a stored result and reattaches the task to its tree.
// The error, if any, comes back as a plain message.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Task = in.Task
	r.Answer = in.Answer
	r.FinalTree = in.FinalTree
	r.Outcome = in.Outcome
	r.Iterations = in.Iterations
	r.Error = nil
	if in.Error != "" {
		r.Error = errors.New(in.Error)
	}
	if r.FinalTree != nil {
		r.FinalTree.WithTask(r.Task)
	}
	return nil
}
