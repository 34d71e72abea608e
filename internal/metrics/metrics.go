package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_store_operations_total",
			Help: "Remote store operations by operation and result",
		},
		[]string{"op", "result"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobtracker_store_operation_duration_seconds",
			Help:    "Duration of remote store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	ProjectionSnapshots = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobtracker_projection_snapshots_total",
			Help: "Snapshots published by live projections",
		},
	)

	ProjectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobtracker_projections_active",
			Help: "Projections with an open store subscription",
		},
	)

	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobtracker_ws_clients",
			Help: "Connected websocket clients",
		},
	)
)

// ObserveStore records one store operation started at start.
func ObserveStore(op string, start time.Time, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	StoreOperations.WithLabelValues(op, result).Inc()
	StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
