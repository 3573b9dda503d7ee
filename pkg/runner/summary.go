package runner

import "github.com/aretw0/recoma/pkg/domain"

// Summary aggregates a batch.
type Summary struct {
	Total int
	// Scored counts tasks that carry a gold answer.
	Scored   int
	Correct  int
	Outcomes map[domain.Outcome]int
}

// EM is the exact-match accuracy over scored tasks.
func (s Summary) EM() float64 {
	if s.Scored == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Scored)
}

// Summary computes exact-match statistics.
func (b *Batch) Summary() Summary {
	s := Summary{Outcomes: make(map[domain.Outcome]int)}
	for _, res := range b.Results {
		s.Total++
		s.Outcomes[res.Outcome]++
		if res.Task == nil || res.Task.Answer == "" {
			continue
		}
		s.Scored++
		if res.Correct() {
			s.Correct++
		}
	}
	return s
}

// Predictions maps task IDs to answers, the shape written to predictions.json.
func (b *Batch) Predictions() map[string]string {
	out := make(map[string]string, len(b.Results))
	for _, res := range b.Results {
		out[res.Task.ID] = res.Answer
	}
	return out
}
