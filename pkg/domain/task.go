package domain

// Task is the payload a search solves. The engine never mutates it.
type Task struct {
	ID       string         `json:"id"`
	Question string         `json:"question"`
	Answer   string         `json:"answer,omitempty"`
	Paras    []string       `json:"paras,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Fields flattens the task for templating and plug-ins.
// Extra keys never override the named fields.
func (t *Task) Fields() map[string]any {
	out := make(map[string]any, len(t.Extra)+4)
	for k, v := range t.Extra {
		out[k] = v
	}
	out["id"] = t.ID
	out["question"] = t.Question
	out["answer"] = t.Answer
	out["paras"] = append([]string(nil), t.Paras...)
	return out
}
