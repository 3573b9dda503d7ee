package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/recoma/pkg/domain"
)

const namespace = "recoma"

// Metrics holds the collectors fed by search hooks.
type Metrics struct {
	Searches   *prometheus.CounterVec
	Iterations prometheus.Histogram
	Pops       prometheus.Counter
	Prunes     *prometheus.CounterVec
	Depth      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Finished searches by outcome.",
		}, []string{"outcome"}),
		Iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_iterations",
			Help:      "Iterations spent per search.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		Pops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frontier_pops_total",
			Help:      "Trees popped from the frontier.",
		}),
		Prunes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prunes_total",
			Help:      "Discarded candidates by reason and detail (policy name or dispatch error kind).",
		}, []string{"reason", "detail"}),
		Depth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "popped_tree_depth",
			Help:      "Depth of popped trees.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Searches, m.Iterations, m.Pops, m.Prunes, m.Depth} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns search hooks that update m.
func (m *Metrics) Hooks() domain.SearchHooks {
	return domain.SearchHooks{
		OnPop: func(e domain.PopEvent) {
			m.Pops.Inc()
			m.Depth.Observe(float64(e.Depth))
		},
		OnPrune: func(e domain.PruneEvent) {
			detail := e.Policy
			if e.Reason == domain.PruneDispatch {
				detail = e.Kind
			}
			m.Prunes.WithLabelValues(string(e.Reason), detail).Inc()
		},
		OnFinish: func(e domain.FinishEvent) {
			m.Searches.WithLabelValues(string(e.Outcome)).Inc()
			m.Iterations.Observe(float64(e.Iterations))
		},
	}
}
