package di

import (
	"context"

	"github.com/kbukum/injectkit/config"
	"github.com/kbukum/injectkit/inject"
	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/observability"
)

// NewFromConfig creates a container configured by cfg. Defaults are applied
// to a copy; cfg itself is not modified.
//
// When cfg.Observability is enabled, OTLP meter and tracer providers are
// installed globally and shut down by the container's Close. Metrics, when
// enabled, are recorded on the global meter provider.
func NewFromConfig(cfg *config.InjectorConfig, opts ...Option) (Container, error) {
	c := *cfg
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(&c.Logging, c.Name).WithComponent("di")
	base := []Option{
		WithLogger(log),
		WithPlanCache(c.PlanCacheEnabled()),
		WithPlanOptions(inject.WithTagName(c.TagName), inject.WithLogger(log)),
	}

	if c.Observability.Enabled {
		shutdowns, err := initExporters(context.Background(), &c)
		if err != nil {
			return nil, err
		}
		for _, fn := range shutdowns {
			base = append(base, WithShutdown(fn))
		}
	}

	if c.MetricsEnabled {
		metrics, err := observability.NewMetrics(observability.Meter(c.Name))
		if err != nil {
			return nil, err
		}
		base = append(base, WithMetrics(metrics))
	}
	return NewContainer(append(base, opts...)...), nil
}

func initExporters(ctx context.Context, cfg *config.InjectorConfig) ([]func(context.Context) error, error) {
	obs := cfg.Observability

	meterCfg := observability.DefaultMeterConfig(cfg.Name)
	meterCfg.Environment = cfg.Environment
	meterCfg.Endpoint = obs.Endpoint
	meterCfg.Insecure = obs.Insecure
	meterCfg.Interval = obs.Interval
	mp, err := observability.InitMeter(ctx, &meterCfg)
	if err != nil {
		return nil, err
	}

	tracerCfg := observability.DefaultTracerConfig(cfg.Name)
	tracerCfg.Environment = cfg.Environment
	tracerCfg.Endpoint = obs.Endpoint
	tracerCfg.Insecure = obs.Insecure
	tracerCfg.SampleRate = *obs.SampleRate
	tp, err := observability.InitTracer(ctx, tracerCfg)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, err
	}

	return []func(context.Context) error{tp.Shutdown, mp.Shutdown}, nil
}
