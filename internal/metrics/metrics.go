// Package metrics exposes Prometheus collectors for assessment activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "valuation"

// Outcome label values.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeDenied = "rate_limited"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	started       prometheus.Counter
	completed     *prometheus.CounterVec
	valuations    prometheus.Histogram
	previews      *prometheus.CounterVec
	continuations *prometheus.CounterVec
	resumes       *prometheus.CounterVec
	s2dCompleted  prometheus.Counter
	crmSyncs      *prometheus.CounterVec
}

// MustNewMetrics registers the collectors on reg and panics on conflicts,
// mirroring promauto. Tests should pass a fresh registry.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "started_total",
			Help:      "Assessments started.",
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "completed_total",
			Help:      "Assessments submitted, by growth stage.",
		}, []string{"stage"}),
		valuations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "estimated_valuation_dollars",
			Help:      "Estimated valuations produced on submission.",
			Buckets:   prometheus.ExponentialBuckets(100_000, 2.5, 10),
		}),
		previews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "preview",
			Name:      "requests_total",
			Help:      "Live score previews, by wizard section.",
		}, []string{"section"}),
		continuations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "continuation",
			Name:      "requests_total",
			Help:      "Continuation link requests, by outcome.",
		}, []string{"outcome"}),
		resumes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "continuation",
			Name:      "redemptions_total",
			Help:      "Continuation token redemptions, by outcome.",
		}, []string{"outcome"}),
		s2dCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "s2d",
			Name:      "completed_total",
			Help:      "Sale-to-delivery sub-assessments scored.",
		}),
		crmSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crm",
			Name:      "syncs_total",
			Help:      "CRM lead syncs, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.started, m.completed, m.valuations, m.previews, m.continuations, m.resumes, m.s2dCompleted, m.crmSyncs)
	return m
}

func (m *Metrics) AssessmentStarted() {
	if m == nil {
		return
	}
	m.started.Inc()
}

// AssessmentCompleted counts a submission and observes its valuation.
func (m *Metrics) AssessmentCompleted(stage string, valuation int64) {
	if m == nil {
		return
	}
	m.completed.WithLabelValues(stage).Inc()
	m.valuations.Observe(float64(valuation))
}

// Preview counts a live preview; an empty section is recorded as "overall".
func (m *Metrics) Preview(section string) {
	if m == nil {
		return
	}
	if section == "" {
		section = "overall"
	}
	m.previews.WithLabelValues(section).Inc()
}

func (m *Metrics) Continuation(outcome string) {
	if m == nil {
		return
	}
	m.continuations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Resume(outcome string) {
	if m == nil {
		return
	}
	m.resumes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) S2DCompleted() {
	if m == nil {
		return
	}
	m.s2dCompleted.Inc()
}

func (m *Metrics) CRMSync(outcome string) {
	if m == nil {
		return
	}
	m.crmSyncs.WithLabelValues(outcome).Inc()
}
