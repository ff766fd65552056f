// Package metrics provides Prometheus metrics for schedule runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pipesched"

var (
	// AdvancesTotal counts traversal passes by outcome.
	AdvancesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "traversal",
			Name:      "advances_total",
			Help:      "Total number of advance-to-next-job passes by outcome",
		},
		[]string{"schedule", "outcome"}, // "job", "finished", "failed"
	)

	// AdvanceDuration tracks how long a traversal pass took, timer waits included.
	AdvanceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "traversal",
			Name:      "advance_duration_seconds",
			Help:      "Advance-to-next-job duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 1, 10, 60, 300, 900, 3600},
		},
		[]string{"schedule"},
	)

	// JobsTotal counts job launches by status.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "launched_total",
			Help:      "Total number of job launches by status",
		},
		[]string{"schedule", "status"}, // "succeeded", "failed"
	)

	// JobDuration tracks job launcher duration.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Job launch duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 300, 900, 3600, 14400},
		},
		[]string{"schedule"},
	)

	// NotificationsTotal counts completion notifications by channel and status.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total number of completion notifications sent",
		},
		[]string{"channel", "status"},
	)

	// HTTPRequestsTotal counts status API requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func status(err error) string {
	if err != nil {
		return "failed"
	}

	return "succeeded"
}

// RecordAdvance records one traversal pass.
func RecordAdvance(schedule, outcome string, d time.Duration) {
	AdvancesTotal.WithLabelValues(schedule, outcome).Inc()
	AdvanceDuration.WithLabelValues(schedule).Observe(d.Seconds())
}

// RecordJob records one job launch.
func RecordJob(schedule string, d time.Duration, err error) {
	JobsTotal.WithLabelValues(schedule, status(err)).Inc()
	JobDuration.WithLabelValues(schedule).Observe(d.Seconds())
}

// RecordNotification records one notification attempt.
func RecordNotification(channel string, err error) {
	NotificationsTotal.WithLabelValues(channel, status(err)).Inc()
}
