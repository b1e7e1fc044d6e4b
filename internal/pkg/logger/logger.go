// Package logger configures zerolog for a service and hands out
// context-scoped loggers enriched with the active trace id.
package logger

import (
	"context"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Init configures the global logger for a service. Call once from main before
// anything logs.
func Init(serviceName string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Logger = zlog.With().Str("service", serviceName).Logger()
}

// Ctx returns a logger for the given context. A logger previously stored in
// the context wins; otherwise the global logger is used, tagged with the
// current trace id when a span is active.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		l := zlog.With().Str("trace_id", spanCtx.TraceID().String()).Logger()
		return &l
	}
	return &zlog.Logger
}
