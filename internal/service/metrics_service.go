package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arcstream/vgate-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	accessDecisions *prometheus.CounterVec
	redemptions     *prometheus.CounterVec
	oracleFailures  prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	accessDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "access_decisions_total",
		Help: "Access resolution outcomes by access level",
	}, []string{"level"})

	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "code_redemptions_total",
		Help: "Redemption attempts by scope and outcome",
	}, []string{"scope", "outcome"})

	oracleFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "code_oracle_failures_total",
		Help: "Oracle calls that failed or timed out",
	})

	registry.MustRegister(requestDuration, requestTotal, accessDecisions, redemptions, oracleFailures)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		accessDecisions: accessDecisions,
		redemptions:     redemptions,
		oracleFailures:  oracleFailures,
	}
}

// Handler returns the Prometheus scrape handler.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	statusLabel := fmt.Sprintf("%d", status)
	s.requestDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, statusLabel).Inc()
}

// RecordAccessDecision counts a resolution outcome.
func (s *MetricsService) RecordAccessDecision(level models.AccessLevel) {
	s.accessDecisions.WithLabelValues(string(level)).Inc()
}

// RecordRedemption counts a redemption attempt.
func (s *MetricsService) RecordRedemption(scope models.GrantScope, outcome string) {
	s.redemptions.WithLabelValues(string(scope), outcome).Inc()
}

// RecordOracleFailure counts an unreachable or misbehaving oracle call.
func (s *MetricsService) RecordOracleFailure() {
	s.oracleFailures.Inc()
}
