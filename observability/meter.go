package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Get().Short(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by plan building and member injection.
type Metrics struct {
	planBuildTotal    metric.Int64Counter
	planBuildDuration metric.Float64Histogram
	planLevels        metric.Int64Histogram
	injectTotal       metric.Int64Counter
	errorTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	planBuildTotal, err := meter.Int64Counter("plan.build.total",
		metric.WithDescription("Total number of injection plans built"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating plan.build.total counter: %w", err)
	}

	planBuildDuration, err := meter.Float64Histogram("plan.build.duration",
		metric.WithDescription("Duration of injection plan builds in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating plan.build.duration histogram: %w", err)
	}

	planLevels, err := meter.Int64Histogram("plan.levels",
		metric.WithDescription("Number of hierarchy levels carried by built plans"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating plan.levels histogram: %w", err)
	}

	injectTotal, err := meter.Int64Counter("inject.total",
		metric.WithDescription("Total number of instances injected"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating inject.total counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		planBuildTotal:    planBuildTotal,
		planBuildDuration: planBuildDuration,
		planLevels:        planLevels,
		injectTotal:       injectTotal,
		errorTotal:        errorTotal,
	}, nil
}

// RecordPlanBuild records a finished plan build.
func (m *Metrics) RecordPlanBuild(ctx context.Context, target, status string, levels int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(AttrTarget, target),
		attribute.String(AttrStatus, status),
	)
	m.planBuildTotal.Add(ctx, 1, attrs)
	m.planBuildDuration.Record(ctx, duration.Seconds(), attrs)
	if status == StatusOK {
		m.planLevels.Record(ctx, int64(levels), metric.WithAttributes(attribute.String(AttrTarget, target)))
	}
}

// RecordInjection records one instance passing through a plan.
func (m *Metrics) RecordInjection(ctx context.Context, target string) {
	m.injectTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrTarget, target)))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
