// Package observability wires tracing and metrics providers.
package observability

import (
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"

	"github.com/smallbiznis/collecta/internal/config"
	"github.com/smallbiznis/collecta/internal/observability/metrics"
	"github.com/smallbiznis/collecta/internal/observability/tracing"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideTracingConfig,
		provideMetricsConfig,
		provideMeterProvider,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(tracing.NewProvider),
)

func provideTracingConfig(cfg config.Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.Tracing.Enabled,
		ServiceName:      "collecta",
		ServiceVersion:   "dev",
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
		ExporterProtocol: cfg.Tracing.ExporterProtocol,
		SamplingRatio:    cfg.Tracing.SamplingRatio,
	}
}

func provideMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		ServiceName: "collecta",
		Environment: cfg.Environment,
	}
}

// provideMeterProvider exposes OTel instruments through the process-wide
// Prometheus registry so /metrics serves both instrument families.
func provideMeterProvider() (metric.MeterProvider, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)), nil
}
