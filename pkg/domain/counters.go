package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Well-known counter metrics.
const (
	MetricCalls            = "calls"
	MetricCost             = "cost"
	MetricPromptTokens     = "prompt_tokens"
	MetricCompletionTokens = "completion_tokens"
)

// CounterKey identifies one accumulated value, e.g. {"openai", "gpt-4o", "calls"}.
type CounterKey struct {
	Provider string
	Model    string
	Metric   string
}

// String renders the key as "provider.model.metric".
func (k CounterKey) String() string {
	return k.Provider + "." + k.Model + "." + k.Metric
}

// ParseCounterKey is the inverse of CounterKey.String.
// Model names may themselves contain dots, so the provider is taken up to the first dot
// and the metric after the last one.
func ParseCounterKey(s string) (CounterKey, error) {
	first := strings.Index(s, ".")
	last := strings.LastIndex(s, ".")
	if first < 0 || first == last {
		return CounterKey{}, fmt.Errorf("invalid counter key %q: expected provider.model.metric", s)
	}
	return CounterKey{
		Provider: s[:first],
		Model:    s[first+1 : last],
		Metric:   s[last+1:],
	}, nil
}

// Counters accumulates additive numeric values such as call counts and cost.
type Counters map[CounterKey]float64

// Add increments key by delta.
func (c Counters) Add(key CounterKey, delta float64) {
	c[key] += delta
}

// Sum aggregates a metric across every provider and model.
func (c Counters) Sum(metric string) float64 {
	var total float64
	for k, v := range c {
		if k.Metric == metric {
			total += v
		}
	}
	return total
}

// Clone returns an independent copy.
func (c Counters) Clone() Counters {
	out := make(Counters, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Keys returns the keys in a stable order.
func (c Counters) Keys() []CounterKey {
	keys := make([]CounterKey, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

func (c Counters) MarshalJSON() ([]byte, error) {
	flat := make(map[string]float64, len(c))
	for k, v := range c {
		flat[k.String()] = v
	}
	return json.Marshal(flat)
}

func (c *Counters) UnmarshalJSON(data []byte) error {
	var flat map[string]float64
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	out := make(Counters, len(flat))
	for s, v := range flat {
		key, err := ParseCounterKey(s)
		if err != nil {
			return err
		}
		out[key] = v
	}
	*c = out
	return nil
}
