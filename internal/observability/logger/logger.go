// Package logger provides the shared zap logger, context enrichment and the
// gin request-logging middleware.
package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the process logger and installs it as the zap global.
var Module = fx.Module("logger",
	fx.Provide(New),
	fx.Invoke(func(log *zap.Logger) {
		zap.ReplaceGlobals(log)
	}),
)

// New builds the production logger.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// FromContext returns the global logger enriched with trace identifiers when a
// sampled span is present on the context.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	if ctx == nil {
		return log
	}
	span := trace.SpanContextFromContext(ctx)
	if !span.IsValid() {
		return log
	}
	return log.With(
		zap.String("trace_id", span.TraceID().String()),
		zap.String("span_id", span.SpanID().String()),
	)
}
