package manager

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the manager's prometheus collectors, modeled on the shape
// of a typical controller metrics struct: one counter per cache outcome,
// one counter for compiles, and one histogram for execute latency.
type metrics struct {
	compilesTotal   prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	executeDuration *prometheus.HistogramVec
}

func newMetrics(namespace string) *metrics {
	return &metrics{
		compilesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compiles_total",
			Help:      "Number of pipeline compilations performed.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Number of pipeline executions served from a cached artifact.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Number of pipeline executions that required a compile.",
		}),
		executeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execute_duration_seconds",
			Help:      "Pipeline execution latency by mode.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
	}
}

// PrometheusCollectors returns every collector the manager owns, for
// registration with an external prometheus.Registerer.
func (m *metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.compilesTotal,
		m.cacheHits,
		m.cacheMisses,
		m.executeDuration,
	}
}
