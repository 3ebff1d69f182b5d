package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors for the analysis pipeline. All
// collectors are registered on the given registerer at construction.
type Metrics struct {
	StageDuration  *prometheus.HistogramVec
	StageFailures  *prometheus.CounterVec
	Violations     *prometheus.CounterVec
	AnalysisRuns   prometheus.Counter
	LLMCalls       *prometheus.CounterVec
	LLMTokens      prometheus.Counter
	LLMEscalations prometheus.Counter
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
}

// New registers the pipeline collectors on reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "autoproof",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30},
		}, []string{"stage"}),

		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoproof",
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Pipeline stage executions that ended in failure.",
		}, []string{"stage"}),

		Violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoproof",
			Subsystem: "pipeline",
			Name:      "violations_total",
			Help:      "Violations detected, by stage and severity.",
		}, []string{"stage", "severity"}),

		AnalysisRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "autoproof",
			Subsystem: "pipeline",
			Name:      "analysis_runs_total",
			Help:      "Completed full-analysis runs.",
		}),

		LLMCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoproof",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Chat-completion calls, by model and outcome.",
		}, []string{"model", "outcome"}),

		LLMTokens: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "autoproof",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Cumulative tokens consumed by all models.",
		}),

		LLMEscalations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "autoproof",
			Subsystem: "llm",
			Name:      "escalations_total",
			Help:      "Bulk passes that escalated to the higher-quality model.",
		}),

		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "autoproof",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Analysis result cache hits.",
		}),

		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "autoproof",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Analysis result cache misses.",
		}),
	}
}

// NewNop returns metrics backed by a throwaway registry, for tests and
// callers that do not scrape.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
