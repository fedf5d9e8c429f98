package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	readingsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vitals_service",
		Subsystem: "ingest",
		Name:      "readings_total",
		Help:      "Number of vitals readings persisted.",
	})

	triggerFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vitals_service",
		Subsystem: "ingest",
		Name:      "trigger_failures_total",
		Help:      "Number of evaluation handoffs that could not be published.",
	})

	alertsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitals_service",
		Subsystem: "alerts",
		Name:      "created_total",
		Help:      "Number of alerts created, by alert type.",
	}, []string{"alert_type"})

	alertsDeduplicated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitals_service",
		Subsystem: "alerts",
		Name:      "deduplicated_total",
		Help:      "Number of candidate alerts discarded because an open alert of the same type existed.",
	}, []string{"alert_type"})

	evaluationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vitals_service",
		Subsystem: "rules",
		Name:      "evaluation_failures_total",
		Help:      "Number of readings whose alert evaluation was abandoned due to an error.",
	})
)

func init() {
	prometheus.MustRegister(readingsIngested, triggerFailures, alertsCreated, alertsDeduplicated, evaluationFailures)
}

// RecordReadingIngested counts a persisted reading.
func RecordReadingIngested() {
	readingsIngested.Inc()
}

// RecordTriggerFailure counts a failed evaluation handoff.
func RecordTriggerFailure() {
	triggerFailures.Inc()
}

// RecordAlertCreated counts a newly opened alert.
func RecordAlertCreated(alertType string) {
	alertsCreated.WithLabelValues(alertType).Inc()
}

// RecordAlertDeduplicated counts a candidate discarded by the open-alert
// uniqueness guarantee.
func RecordAlertDeduplicated(alertType string) {
	alertsDeduplicated.WithLabelValues(alertType).Inc()
}

// RecordEvaluationFailure counts an abandoned evaluation.
func RecordEvaluationFailure() {
	evaluationFailures.Inc()
}
