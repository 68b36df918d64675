package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	resolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textsql_resolve_total",
			Help: "Total number of questions resolved to SQL, by provider.",
		},
		[]string{"provider"},
	)
	modelLoadFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "textsql_model_load_failures_total",
			Help: "Total number of failed generative model loads.",
		},
	)
	executeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textsql_execute_total",
			Help: "Total number of guarded SQL executions, by outcome.",
		},
		[]string{"outcome"},
	)
	executeRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "textsql_execute_rows",
			Help:    "Rows returned by successful executions.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
	executeDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "textsql_execute_duration_seconds",
			Help:    "Latency of guarded SQL executions, including connection setup.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

func init() {
	prometheus.MustRegister(
		resolveTotal,
		modelLoadFailuresTotal,
		executeTotal,
		executeRows,
		executeDurationSeconds,
	)
}

func ObserveResolve(provider string) {
	resolveTotal.WithLabelValues(provider).Inc()
}

func IncrementModelLoadFailure() {
	modelLoadFailuresTotal.Inc()
}

func ObserveExecute(outcome string, rows int, elapsed time.Duration) {
	executeTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		executeRows.Observe(float64(rows))
	}
	executeDurationSeconds.Observe(elapsed.Seconds())
}
