package metrics

import "github.com/prometheus/client_golang/prometheus"

// AssistantMetrics exposes counters/histograms for the conversation
// pipeline.
type AssistantMetrics struct {
	turnsTotal    *prometheus.CounterVec
	intentsTotal  *prometheus.CounterVec
	escalations   *prometheus.CounterVec
	functionCalls *prometheus.CounterVec
	turnLatency   *prometheus.HistogramVec
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agendia",
			Subsystem: "assistant",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"status"}),
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agendia",
			Subsystem: "assistant",
			Name:      "intents_total",
			Help:      "Recognized intents by type",
		}, []string{"intent"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agendia",
			Subsystem: "assistant",
			Name:      "escalations_total",
			Help:      "Escalations to human operators",
		}, []string{"reason"}),
		functionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agendia",
			Subsystem: "assistant",
			Name:      "function_calls_total",
			Help:      "Function call executions",
		}, []string{"function", "status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agendia",
			Subsystem: "assistant",
			Name:      "turn_latency_seconds",
			Help:      "Latency of one conversation turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.intentsTotal, m.escalations, m.functionCalls, m.turnLatency)
	return m
}

func (m *AssistantMetrics) ObserveTurn(status string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(status).Inc()
	m.turnLatency.WithLabelValues(status).Observe(seconds)
}

func (m *AssistantMetrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent).Inc()
}

func (m *AssistantMetrics) ObserveEscalation(reason string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(reason).Inc()
}

func (m *AssistantMetrics) ObserveFunctionCall(function string, success bool) {
	if m == nil {
		return
	}
	status := "error"
	if success {
		status = "ok"
	}
	m.functionCalls.WithLabelValues(function, status).Inc()
}
