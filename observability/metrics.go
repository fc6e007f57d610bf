package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Trade processing metrics
	TradesProcessedTotal *prometheus.CounterVec
	TradeRejectionsTotal *prometheus.CounterVec
	TradeAmount          *prometheus.HistogramVec

	// Contest metrics
	ContestsCreatedTotal prometheus.Counter
	PlayersJoinedTotal   prometheus.Counter

	// Screenshot extraction metrics
	ExtractionsTotal *prometheus.CounterVec

	// Payout metrics
	PayoutsTotal *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBErrorsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// amountBuckets cover trade totals from penny stocks to whale fills (in dollars)
var amountBuckets = []float64{10, 50, 100, 500, 1_000, 5_000, 10_000, 50_000, 100_000}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		TradesProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_contest",
				Subsystem: "ledger",
				Name:      "trades_processed_total",
				Help:      "Total number of trades applied to the ledger",
			},
			[]string{"side"},
		),
		TradeRejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_contest",
				Subsystem: "ledger",
				Name:      "trade_rejections_total",
				Help:      "Total number of trades rejected by validation",
			},
			[]string{"side", "reason"},
		),
		TradeAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trading_contest",
				Subsystem: "ledger",
				Name:      "trade_amount_dollars",
				Help:      "Distribution of trade total amounts",
				Buckets:   amountBuckets,
			},
			[]string{"side"},
		),
		ContestsCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "trading_contest",
				Subsystem: "contest",
				Name:      "created_total",
				Help:      "Total number of contests created",
			},
		),
		PlayersJoinedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "trading_contest",
				Subsystem: "contest",
				Name:      "players_joined_total",
				Help:      "Total number of players admitted to contests",
			},
		),
		ExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_contest",
				Subsystem: "extraction",
				Name:      "requests_total",
				Help:      "Total number of screenshot extraction attempts",
			},
			[]string{"provider", "status"},
		),
		PayoutsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_contest",
				Subsystem: "payout",
				Name:      "requests_total",
				Help:      "Total number of payout attempts",
			},
			[]string{"status"},
		),
		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_contest",
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_contest",
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trading_contest",
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trading_contest",
				Subsystem: "database",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation", "table"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_contest",
				Subsystem: "database",
				Name:      "errors_total",
				Help:      "Total number of database errors",
			},
			[]string{"operation", "table"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_contest",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trading_contest",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trading_contest",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "trading_contest",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trading_contest",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordTradeProcessed records an applied trade and its total amount
func (m *Metrics) RecordTradeProcessed(side string, amount float64) {
	m.TradesProcessedTotal.WithLabelValues(side).Inc()
	m.TradeAmount.WithLabelValues(side).Observe(amount)
}

// RecordTradeRejection records a validation rejection
func (m *Metrics) RecordTradeRejection(side, reason string) {
	m.TradeRejectionsTotal.WithLabelValues(side, reason).Inc()
}

// RecordContestCreated records a contest creation
func (m *Metrics) RecordContestCreated() {
	m.ContestsCreatedTotal.Inc()
}

// RecordPlayerJoined records a player admission
func (m *Metrics) RecordPlayerJoined() {
	m.PlayersJoinedTotal.Inc()
}

// RecordExtraction records a screenshot extraction attempt
func (m *Metrics) RecordExtraction(provider, status string) {
	m.ExtractionsTotal.WithLabelValues(provider, status).Inc()
}

// RecordPayout records a payout attempt
func (m *Metrics) RecordPayout(status string) {
	m.PayoutsTotal.WithLabelValues(status).Inc()
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation, errorType string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation, errorType).Inc()
}

// RecordExternalAPIDuration records the duration of an external API call
func (m *Metrics) RecordExternalAPIDuration(service, operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordDBQuery records a database query duration
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error
func (m *Metrics) RecordDBError(operation, table string) {
	m.DBErrorsTotal.WithLabelValues(operation, table).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.RecordExternalAPIDuration(service, operation, time.Since(t.start))
}

// ObserveDB records the database query duration
func (t *Timer) ObserveDB(operation, table string) {
	t.metrics.RecordDBQuery(operation, table, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
