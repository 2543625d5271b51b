package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "escrow"

var (
	// Операции движка: operation: имя операции, status: success или код ошибки.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "operations_total",
		Help:      "Total escrow engine operations by result",
	}, []string{"operation", "status"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "operation_duration_seconds",
		Help:      "Escrow engine operation duration in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"operation"})

	// Движение монет по типам записей журнала.
	CoinsMovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "coins_moved_total",
		Help:      "Coins moved through the ledger by entry kind",
	}, []string{"kind"})

	// Расхождение последней сверки журнала, в норме 0.
	LedgerDrift = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "audit_drift_coins",
		Help:      "Held coins minus external credits at the last audit",
	})

	LedgerAuditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "audits_total",
		Help:      "Ledger conservation audits by result",
	}, []string{"status"})

	OutstandingEscrow = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "outstanding_escrow_coins",
		Help:      "Coins held in task escrow at the last audit",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "endpoint", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	ActiveRequests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "active_requests",
		Help:      "Currently active HTTP requests",
	}, []string{"endpoint"})
)

// TrackOperation замеряет операцию движка. Вызывать через defer с итоговым статусом.
func TrackOperation(operation string) func(status string) {
	start := time.Now()
	return func(status string) {
		OperationsTotal.WithLabelValues(operation, status).Inc()
		OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// RecordCoins учитывает движение монет по журналу.
func RecordCoins(kind string, amount int64) {
	if amount < 0 {
		amount = -amount
	}
	CoinsMovedTotal.WithLabelValues(kind).Add(float64(amount))
}
