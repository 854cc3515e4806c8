package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

const (
	proxbox = "proxbox"

	syncRunsTotal          = "sync_runs_total"
	syncUnitFailuresTotal  = "sync_unit_failures_total"
	entitiesResolvedTotal  = "entities_resolved_total"
	duplicateBackupsTotal  = "duplicate_backups_total"
	backupsReconciledTotal = "backups_reconciled_total"

	// Labels
	syncTypeLabel   = "sync_type"
	syncStatusLabel = "status"
	entityKindLabel = "kind"
	resolvedAsLabel = "resolved_as"
)

/**
* Metrics definition
**/
var syncRunsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: proxbox,
		Name:      syncRunsTotal,
		Help:      "number of synchronization runs partitioned by sync type and terminal status",
	},
	[]string{syncTypeLabel, syncStatusLabel},
)

var syncUnitFailuresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: proxbox,
		Name:      syncUnitFailuresTotal,
		Help:      "number of failed per-unit sync tasks partitioned by sync type",
	},
	[]string{syncTypeLabel},
)

var entitiesResolvedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: proxbox,
		Name:      entitiesResolvedTotal,
		Help:      "number of inventory entities resolved, partitioned by kind and whether the entity was created or fetched",
	},
	[]string{entityKindLabel, resolvedAsLabel},
)

var duplicateBackupsTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: proxbox,
		Name:      duplicateBackupsTotal,
		Help:      "number of backup records skipped because they already exist in the inventory",
	},
)

var backupsReconciledTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: proxbox,
		Name:      backupsReconciledTotal,
		Help:      "number of stale inventory backup records removed by reconciliation",
	},
)

func IncreaseSyncRunsTotalMetric(syncType, status string) {
	syncRunsTotalMetric.With(prometheus.Labels{
		syncTypeLabel:   syncType,
		syncStatusLabel: status,
	}).Inc()
}

func IncreaseSyncUnitFailuresTotalMetric(syncType string) {
	syncUnitFailuresTotalMetric.With(prometheus.Labels{
		syncTypeLabel: syncType,
	}).Inc()
}

func IncreaseEntitiesResolvedTotalMetric(kind, resolvedAs string) {
	entitiesResolvedTotalMetric.With(prometheus.Labels{
		entityKindLabel: kind,
		resolvedAsLabel: resolvedAs,
	}).Inc()
}

func IncreaseDuplicateBackupsTotalMetric() {
	duplicateBackupsTotalMetric.Inc()
}

func IncreaseBackupsReconciledTotalMetric() {
	backupsReconciledTotalMetric.Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(syncRunsTotalMetric)
	prometheus.MustRegister(syncUnitFailuresTotalMetric)
	prometheus.MustRegister(entitiesResolvedTotalMetric)
	prometheus.MustRegister(duplicateBackupsTotalMetric)
	prometheus.MustRegister(backupsReconciledTotalMetric)
}

type PrometheusMetricsHandler struct{}

func NewPrometheusMetricsHandler() *PrometheusMetricsHandler {
	return &PrometheusMetricsHandler{}
}

func (h *PrometheusMetricsHandler) Handler() http.Handler {
	return promhttp.Handler()
}
