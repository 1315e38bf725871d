package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "broker_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	quoteFetchTotal   *prometheus.CounterVec
	quoteFetchLatency *prometheus.HistogramVec

	offerMappedTotal  prometheus.Counter
	offerSkippedTotal prometheus.Counter

	commissionRecomputeTotal   *prometheus.CounterVec
	commissionRecomputeLatency *prometheus.HistogramVec

	signatureSyncTotal *prometheus.CounterVec

	lifecycleTransitionTotal *prometheus.CounterVec

	expirySweepTotal   *prometheus.CounterVec
	expirySweepLatency *prometheus.HistogramVec
	expiryAlertsTotal  prometheus.Counter

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		quoteFetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "quote_fetch_total",
				Help: "Total quote fetches from the pricing provider by result",
			},
			[]string{"result"},
		)
		quoteFetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "quote_fetch_latency_seconds",
				Help:    "Quote fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		offerMappedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "offer_mapped_total",
				Help: "Total provider offers mapped onto tender lines",
			},
		)
		offerSkippedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "offer_skipped_total",
				Help: "Total provider offers dropped during mapping",
			},
		)

		commissionRecomputeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "commission_recompute_total",
				Help: "Total commission recomputations by result",
			},
			[]string{"result"},
		)
		commissionRecomputeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "commission_recompute_latency_seconds",
				Help:    "Commission recompute latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		signatureSyncTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "signature_sync_total",
				Help: "Total signature status syncs by outcome",
			},
			[]string{"outcome"},
		)

		lifecycleTransitionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "lifecycle_transition_total",
				Help: "Total contract lifecycle transitions by target state",
			},
			[]string{"to"},
		)

		expirySweepTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "expiry_sweep_total",
				Help: "Total expiry sweep runs by result",
			},
			[]string{"result"},
		)
		expirySweepLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "expiry_sweep_latency_seconds",
				Help:    "Expiry sweep latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		expiryAlertsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "expiry_alerts_total",
				Help: "Total contract end-date alerts fired",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total document exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Document export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			quoteFetchTotal,
			quoteFetchLatency,
			offerMappedTotal,
			offerSkippedTotal,
			commissionRecomputeTotal,
			commissionRecomputeLatency,
			signatureSyncTotal,
			lifecycleTransitionTotal,
			expirySweepTotal,
			expirySweepLatency,
			expiryAlertsTotal,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveQuoteFetch records quote fetch duration and result.
func ObserveQuoteFetch(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if quoteFetchTotal != nil {
		quoteFetchTotal.WithLabelValues(result).Inc()
	}
	if quoteFetchLatency != nil {
		quoteFetchLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddOffersMapped increments the mapped and skipped offer counters.
func AddOffersMapped(mapped, skipped int) {
	if offerMappedTotal != nil && mapped > 0 {
		offerMappedTotal.Add(float64(mapped))
	}
	if offerSkippedTotal != nil && skipped > 0 {
		offerSkippedTotal.Add(float64(skipped))
	}
}

// ObserveCommissionRecompute records recompute latency and result.
func ObserveCommissionRecompute(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if commissionRecomputeTotal != nil {
		commissionRecomputeTotal.WithLabelValues(result).Inc()
	}
	if commissionRecomputeLatency != nil {
		commissionRecomputeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncSignatureSync increments the signature sync counter by outcome.
func IncSignatureSync(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if signatureSyncTotal != nil {
		signatureSyncTotal.WithLabelValues(outcome).Inc()
	}
}

// IncLifecycleTransition increments the transition counter by target state.
func IncLifecycleTransition(to string) {
	if to == "" {
		to = "unknown"
	}
	if lifecycleTransitionTotal != nil {
		lifecycleTransitionTotal.WithLabelValues(to).Inc()
	}
}

// ObserveExpirySweep records sweep latency and result.
func ObserveExpirySweep(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if expirySweepTotal != nil {
		expirySweepTotal.WithLabelValues(result).Inc()
	}
	if expirySweepLatency != nil {
		expirySweepLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddExpiryAlerts increments the alert counter by count.
func AddExpiryAlerts(count int) {
	if count <= 0 {
		return
	}
	if expiryAlertsTotal != nil {
		expiryAlertsTotal.Add(float64(count))
	}
}

// ObserveExport records export latency by format and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
