// Package metrics exposes Prometheus collectors for the message pipeline.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/chathub/internal/analysis"
	"github.com/user/chathub/internal/coordinator"
	"github.com/user/chathub/internal/types"
)

const namespace = "chathub"

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	messages  *prometheus.CounterVec
	sentiment *prometheus.CounterVec
	triggers  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	actions   *prometheus.CounterVec
	analysis  *prometheus.CounterVec
	replies   *prometheus.CounterVec
}

// New creates and registers the collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Messages analysed by the coordinator.",
		}, []string{"platform"}),
		sentiment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_sentiment_total",
			Help:      "Messages by computed sentiment.",
		}, []string{"sentiment"}),
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_triggers_total",
			Help:      "Workflows whose trigger fired.",
		}, []string{"workflow_id"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_failures_total",
			Help:      "Workflow evaluations that failed.",
		}, []string{"workflow_id"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_actions_total",
			Help:      "Action results produced, by action kind.",
		}, []string{"action"}),
		analysis: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_requests_total",
			Help:      "Analysis operations by the path that produced the answer.",
		}, []string{"operation", "path"}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_replies_total",
			Help:      "Auto-reply delivery attempts by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messages, m.sentiment, m.triggers, m.failures, m.actions, m.analysis, m.replies,
	)
	return m
}

// Publish implements coordinator.Sink.
func (m *Metrics) Publish(_ context.Context, report *coordinator.Report) {
	m.messages.WithLabelValues(string(report.Message.Platform)).Inc()
	if report.Sentiment != nil {
		m.sentiment.WithLabelValues(string(report.Sentiment.Sentiment)).Inc()
	}
	for _, o := range report.Outcomes {
		switch {
		case o.Failed():
			m.failures.WithLabelValues(string(o.WorkflowID)).Inc()
		case o.Triggered:
			m.triggers.WithLabelValues(string(o.WorkflowID)).Inc()
		}
	}
	for _, a := range report.Actions {
		m.actions.WithLabelValues(string(a.Action)).Inc()
	}
}

// ObserveAnalysis matches analysis.Observer.
func (m *Metrics) ObserveAnalysis(op analysis.Operation, path analysis.Path) {
	m.analysis.WithLabelValues(string(op), string(path)).Inc()
}

// ObserveReply matches coordinator.ReplyHook.
func (m *Metrics) ObserveReply(_ types.ChatKey, _ string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.replies.WithLabelValues(result).Inc()
}

// Gauge registers a gauge whose value is read from fn at scrape time.
func (m *Metrics) Gauge(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
