package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ShutdownFunc releases telemetry resources.
type ShutdownFunc func(ctx context.Context) error

// Setup initializes OpenTelemetry with a Prometheus exporter.
// Returns a shutdown function that must be called on exit.
func Setup(ctx context.Context, serviceName string) (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Metrics holds all OTel instruments for the API.
type Metrics struct {
	httpRequestsTotal       otelmetric.Int64Counter
	httpRequestDuration     otelmetric.Float64Histogram
	authValidationsTotal    otelmetric.Int64Counter
	authzDecisionsTotal     otelmetric.Int64Counter
	rateLimitDecisionsTotal otelmetric.Int64Counter
	repositoryOpsTotal      otelmetric.Int64Counter
	repositoryOpDuration    otelmetric.Float64Histogram
}

// NewMetrics creates and registers all API metrics.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("classroom")
	m := &Metrics{}
	var err error

	latencyBuckets := otelmetric.WithExplicitBucketBoundaries(
		0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
	)

	if m.httpRequestsTotal, err = meter.Int64Counter("classroom_http_requests_total",
		otelmetric.WithDescription("Total HTTP requests")); err != nil {
		return nil, fmt.Errorf("creating http_requests_total: %w", err)
	}
	if m.httpRequestDuration, err = meter.Float64Histogram("classroom_http_request_duration_seconds",
		otelmetric.WithDescription("HTTP request duration"), latencyBuckets); err != nil {
		return nil, fmt.Errorf("creating http_request_duration: %w", err)
	}
	if m.authValidationsTotal, err = meter.Int64Counter("classroom_auth_validations_total",
		otelmetric.WithDescription("Total credential verifications")); err != nil {
		return nil, fmt.Errorf("creating auth_validations_total: %w", err)
	}
	if m.authzDecisionsTotal, err = meter.Int64Counter("classroom_authz_decisions_total",
		otelmetric.WithDescription("Total authorization decisions")); err != nil {
		return nil, fmt.Errorf("creating authz_decisions_total: %w", err)
	}
	if m.rateLimitDecisionsTotal, err = meter.Int64Counter("classroom_ratelimit_decisions_total",
		otelmetric.WithDescription("Total rate limit decisions")); err != nil {
		return nil, fmt.Errorf("creating ratelimit_decisions_total: %w", err)
	}
	if m.repositoryOpsTotal, err = meter.Int64Counter("classroom_repository_ops_total",
		otelmetric.WithDescription("Total document repository operations")); err != nil {
		return nil, fmt.Errorf("creating repository_ops_total: %w", err)
	}
	if m.repositoryOpDuration, err = meter.Float64Histogram("classroom_repository_op_duration_seconds",
		otelmetric.WithDescription("Document repository operation duration"), latencyBuckets); err != nil {
		return nil, fmt.Errorf("creating repository_op_duration: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request metric.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, durationSec float64) {
	attrs := otelmetric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(status),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, durationSec, attrs)
}

// RecordAuthValidation records a credential verification outcome.
func (m *Metrics) RecordAuthValidation(ctx context.Context, result string) {
	m.authValidationsTotal.Add(ctx, 1, otelmetric.WithAttributes(resultAttr(result)))
}

// RecordAuthzDecision records an authorization gate decision.
func (m *Metrics) RecordAuthzDecision(ctx context.Context, result string) {
	m.authzDecisionsTotal.Add(ctx, 1, otelmetric.WithAttributes(resultAttr(result)))
}

// RecordRateLimitDecision records a rate limit decision.
func (m *Metrics) RecordRateLimitDecision(ctx context.Context, result string) {
	m.rateLimitDecisionsTotal.Add(ctx, 1, otelmetric.WithAttributes(resultAttr(result)))
}

// RecordRepositoryOp records one document repository operation.
func (m *Metrics) RecordRepositoryOp(ctx context.Context, op string, durationSec float64) {
	attrs := otelmetric.WithAttributes(opAttr(op))
	m.repositoryOpsTotal.Add(ctx, 1, attrs)
	m.repositoryOpDuration.Record(ctx, durationSec, attrs)
}
