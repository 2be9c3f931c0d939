// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeGraded   = "graded"
	OutcomeReplayed = "replayed"
	OutcomeFailed   = "failed"
)

// Metrics groups the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	submissions     *prometheus.CounterVec
	xpAwarded       prometheus.Counter
	gradingDuration prometheus.Histogram
	hints           *prometheus.CounterVec
	lessonCache     *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mathquest",
			Name:      "submissions_total",
			Help:      "Lesson submissions by outcome.",
		}, []string{"outcome"}),
		xpAwarded: f.NewCounter(prometheus.CounterOpts{
			Namespace: "mathquest",
			Name:      "xp_awarded_total",
			Help:      "Experience points granted by new submissions.",
		}),
		gradingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mathquest",
			Name:      "submission_duration_seconds",
			Help:      "Time spent grading and persisting a submission.",
			Buckets:   prometheus.DefBuckets,
		}),
		hints: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mathquest",
			Name:      "hint_requests_total",
			Help:      "Hint requests by result.",
		}, []string{"result"}),
		lessonCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mathquest",
			Name:      "lesson_cache_requests_total",
			Help:      "Lesson cache lookups by result.",
		}, []string{"result"}),
	}
}

// ObserveSubmission records one submission outcome and its latency.
func (m *Metrics) ObserveSubmission(outcome string, xp int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	if xp > 0 {
		m.xpAwarded.Add(float64(xp))
	}
	if outcome != OutcomeFailed {
		m.gradingDuration.Observe(elapsed.Seconds())
	}
}

// Hint counts a hint request. result is one of correct, generated, fallback.
func (m *Metrics) Hint(result string) {
	if m == nil {
		return
	}
	m.hints.WithLabelValues(result).Inc()
}

// LessonCache counts a cache lookup.
func (m *Metrics) LessonCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lessonCache.WithLabelValues(result).Inc()
}
