// Package metrics exposes the Prometheus collectors for the notification pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Delivery results recorded by Deliveries.
const (
	ResultDelivered = "delivered"
	ResultDropped   = "dropped"
	ResultClosed    = "closed"
)

var (
	// Connections is the number of registered realtime connections.
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teamtasks_realtime_connections",
		Help: "Number of WebSocket connections currently registered.",
	})

	// Dispatches counts persisted notifications by type.
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamtasks_notifications_dispatched_total",
		Help: "Notifications persisted by the dispatcher, by type.",
	}, []string{"type"})

	// Deliveries counts per-connection push attempts by result.
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamtasks_realtime_deliveries_total",
		Help: "Per-connection push attempts, by result.",
	}, []string{"result"})

	// WebPushes counts web push sends by HTTP outcome class.
	WebPushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamtasks_webpush_sends_total",
		Help: "Web push sends, by result.",
	}, []string{"result"})

	// OverdueSweeps counts scanner sweeps.
	OverdueSweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamtasks_overdue_sweeps_total",
		Help: "Completed overdue sweeps.",
	})

	// OverdueSweepDuration observes how long each sweep took.
	OverdueSweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "teamtasks_overdue_sweep_duration_seconds",
		Help:    "Duration of overdue sweeps.",
		Buckets: prometheus.DefBuckets,
	})
)
