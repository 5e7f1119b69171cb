// Package metrics exposes Prometheus counters for batch-task activity.
// Metrics are opt-in: nothing is registered until InitMetrics is called,
// and every record call is a no-op before that, so library consumers that
// don't scrape pay nothing.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	secretsLoadedTotal     *prometheus.CounterVec
	storageTransfersTotal  *prometheus.CounterVec
	warehouseRowsTotal     *prometheus.CounterVec
	taskEntriesTotal       *prometheus.CounterVec

	metricsOnce       sync.Once
	metricsRegistered bool
)

// InitMetrics initializes all Prometheus metrics.
// This should be called once at startup if metrics are enabled.
func InitMetrics() {
	metricsOnce.Do(func() {
		secretsLoadedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "containerkit_secrets_loaded_total",
				Help: "Total number of secrets loaded into the store",
			},
			[]string{"source"},
		)

		storageTransfersTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "containerkit_storage_transfers_total",
				Help: "Total number of object storage uploads and downloads",
			},
			[]string{"direction", "format"},
		)

		warehouseRowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "containerkit_warehouse_rows_loaded_total",
				Help: "Total number of rows loaded into the warehouse",
			},
			[]string{"driver"},
		)

		taskEntriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "containerkit_task_entries_total",
				Help: "Total number of task entry writes",
			},
			[]string{"action"},
		)

		metricsRegistered = true
	})
}

// Handler returns the Prometheus scrape handler. Only useful for
// long-running local processes; batch containers usually just let the
// counters die with the pod.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSecretLoaded records one secret loaded from the given source.
func RecordSecretLoaded(source string) {
	if !metricsRegistered || secretsLoadedTotal == nil {
		return
	}
	secretsLoadedTotal.WithLabelValues(source).Inc()
}

// RecordStorageTransfer records an object storage transfer.
func RecordStorageTransfer(direction, format string) {
	if !metricsRegistered || storageTransfersTotal == nil {
		return
	}
	storageTransfersTotal.WithLabelValues(direction, format).Inc()
}

// RecordWarehouseRows records rows loaded into the warehouse.
func RecordWarehouseRows(driver string, rows float64) {
	if !metricsRegistered || warehouseRowsTotal == nil {
		return
	}
	warehouseRowsTotal.WithLabelValues(driver).Add(rows)
}

// RecordTaskEntry records a task store write.
func RecordTaskEntry(action string) {
	if !metricsRegistered || taskEntriesTotal == nil {
		return
	}
	taskEntriesTotal.WithLabelValues(action).Inc()
}
