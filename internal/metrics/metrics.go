package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seohub_questions_total",
			Help: "Questions processed, by outcome",
		},
		[]string{"status"},
	)

	QuestionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seohub_question_duration_seconds",
			Help:    "End-to-end question latency by pipeline phase",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	PlanValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seohub_plan_validations_total",
			Help: "Plan validation outcomes",
		},
		[]string{"result"},
	)

	StoreRoutings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seohub_store_routings_total",
			Help: "Store routing decisions by target store",
		},
		[]string{"store"},
	)

	StoreQueryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seohub_store_query_errors_total",
			Help: "Failed store queries by store",
		},
		[]string{"store"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seohub_llm_tokens_total",
			Help: "LLM tokens consumed by call site",
		},
		[]string{"operation", "kind"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seohub_cache_hits_total",
			Help: "Cache lookups by cache name and outcome",
		},
		[]string{"cache", "result"},
	)

	PatternStoreSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "seohub_pattern_store_entries",
			Help: "Entries held per pattern store collection",
		},
		[]string{"collection"},
	)
)

// Init registers all collectors. Call once at startup.
func Init() {
	prometheus.MustRegister(
		QuestionsTotal,
		QuestionDuration,
		PlanValidations,
		StoreRoutings,
		StoreQueryErrors,
		LLMTokensUsed,
		CacheHits,
		PatternStoreSize,
	)
}
