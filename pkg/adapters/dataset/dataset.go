// Package dataset reads task files into domain.Task values.
package dataset

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxLine bounds a single JSONL record.
const maxLine = 16 << 20

// Register adds the built-in readers to c.
func Register(c *registry.Catalog[ports.TaskReader]) {
	c.Register("jsonl", func(params map[string]any) (ports.TaskReader, error) {
		r := &JSONL{}
		return r, registry.Decode(params, r)
	})
	c.Register("gsm8k", func(params map[string]any) (ports.TaskReader, error) {
		return GSM8K{}, registry.Decode(params, &struct{}{})
	})
	c.Register("bbh", func(params map[string]any) (ports.TaskReader, error) {
		return BBH{}, registry.Decode(params, &struct{}{})
	})
	c.Register("drop", func(params map[string]any) (ports.TaskReader, error) {
		return Drop{}, registry.Decode(params, &struct{}{})
	})
}

// eachLine calls fn with every non-blank line of path and its 1-based line number.
func eachLine(ctx context.Context, path string, fn func(n int, line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	n := 0
	for sc.Scan() {
		n++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return fmt.Errorf("%s:%d: %w", path, n, err)
		}
	}
	return sc.Err()
}

// JSONL reads one task per line: {"id", "question", "answer", "paras", ...}.
// Missing ids are generated; unknown keys are kept in Task.Extra.
type JSONL struct {
	// AddParas prefixes the question with its paragraphs, one per line.
	AddParas bool `mapstructure:"add_paras"`
}

func (r *JSONL) Read(ctx context.Context, path string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := eachLine(ctx, path, func(_ int, line []byte) error {
		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			return err
		}
		task := &domain.Task{}
		if err := json.Unmarshal(line, task); err != nil {
			return err
		}
		if task.Question == "" {
			return fmt.Errorf("missing question")
		}
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		for _, k := range []string{"id", "question", "answer", "paras", "extra"} {
			delete(raw, k)
		}
		if len(raw) > 0 {
			if task.Extra == nil {
				task.Extra = make(map[string]any, len(raw))
			}
			for k, v := range raw {
				task.Extra[k] = v
			}
		}
		if r.AddParas && len(task.Paras) > 0 {
			task.Question = strings.Join(task.Paras, "\n") + "\n" + task.Question
		}
		tasks = append(tasks, task)
		return nil
	})
	return tasks, err
}

// GSM8K reads {"question", "answer": "<rationale>####<answer>"} lines.
// Ids are assigned 1..n in file order.
type GSM8K struct{}

func (GSM8K) Read(ctx context.Context, path string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := eachLine(ctx, path, func(_ int, line []byte) error {
		var rec struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		}
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		parts := strings.Split(rec.Answer, "####")
		tasks = append(tasks, &domain.Task{
			ID:       strconv.Itoa(len(tasks) + 1),
			Question: rec.Question,
			Answer:   strings.TrimSpace(parts[len(parts)-1]),
			Extra:    map[string]any{"rationale": strings.TrimSpace(parts[0])},
		})
		return nil
	})
	return tasks, err
}

// BBH reads BIG-Bench-Hard files: {"examples": [{"input", "target"}]}.
type BBH struct{}

func (BBH) Read(ctx context.Context, path string) ([]*domain.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file struct {
		Examples []struct {
			Input  string `json:"input"`
			Target string `json:"target"`
		} `json:"examples"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tasks := make([]*domain.Task, 0, len(file.Examples))
	for i, ex := range file.Examples {
		tasks = append(tasks, &domain.Task{ID: strconv.Itoa(i + 1), Question: ex.Input, Answer: ex.Target})
	}
	return tasks, ctx.Err()
}

// Drop reads the DROP reading-comprehension format: passages keyed by id, each with
// qa_pairs. The passage becomes the task's only paragraph.
type Drop struct{}

type dropAnswer struct {
	Number string   `json:"number"`
	Spans  []string `json:"spans"`
	Date   struct {
		Day   string `json:"day"`
		Month string `json:"month"`
		Year  string `json:"year"`
	} `json:"date"`
}

// String picks the number, then the spans (comma separated), then the day-month-year date.
func (a dropAnswer) String() string {
	switch {
	case a.Number != "":
		return a.Number
	case len(a.Spans) > 0:
		return strings.Join(a.Spans, ", ")
	case a.Date.Day != "" || a.Date.Month != "" || a.Date.Year != "":
		return a.Date.Day + "-" + a.Date.Month + "-" + a.Date.Year
	default:
		return ""
	}
}

func (Drop) Read(ctx context.Context, path string) ([]*domain.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file map[string]struct {
		Passage string `json:"passage"`
		QAPairs []struct {
			Question string     `json:"question"`
			QueryID  string     `json:"query_id"`
			Answer   dropAnswer `json:"answer"`
		} `json:"qa_pairs"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Map order is random; keep the output stable.
	ids := make([]string, 0, len(file))
	for id := range file {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var tasks []*domain.Task
	for _, id := range ids {
		item := file[id]
		para := strings.TrimSpace(item.Passage)
		for _, qa := range item.QAPairs {
			task := &domain.Task{
				ID:       qa.QueryID,
				Question: qa.Question,
				Answer:   qa.Answer.String(),
				Paras:    []string{para},
				Extra:    map[string]any{"passage_id": id},
			}
			if len(qa.Answer.Spans) > 1 {
				task.Extra["answer_spans"] = append([]string(nil), qa.Answer.Spans...)
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, ctx.Err()
}
