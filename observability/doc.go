// Package observability provides OpenTelemetry tracing and metrics for the
// injection engine.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("injectkit"))
//	plan, err := inject.BuildPlan(t, graph, inject.WithMetrics(metrics))
package observability
