package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	PaymentsTotal        *prometheus.CounterVec
	ContractsCreated     prometheus.Counter
	ContractsSettled     prometheus.Counter
	LateFeeAccrualsTotal prometheus.Counter
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lending_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		PaymentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_payments_total",
				Help: "Total number of payment attempts by outcome.",
			},
			[]string{"status"},
		),
		ContractsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_engine_contracts_created_total",
				Help: "Total number of contracts created.",
			},
		),
		ContractsSettled: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_engine_contracts_settled_total",
				Help: "Total number of contracts fully settled.",
			},
		),
		LateFeeAccrualsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_engine_late_fee_accruals_total",
				Help: "Total number of late fee accruals applied by the batch job.",
			},
		),
	}
)

func RecordPayment(status string) {
	Business.PaymentsTotal.WithLabelValues(status).Inc()
}

func RecordContractCreated() {
	Business.ContractsCreated.Inc()
}

func RecordContractSettled() {
	Business.ContractsSettled.Inc()
}

func RecordLateFeeAccrual() {
	Business.LateFeeAccrualsTotal.Inc()
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}
