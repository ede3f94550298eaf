package logging

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type loggerContextKey struct {
	name string
}

var loggerCtxKey = &loggerContextKey{"logger"}

func NewLogger(ctx context.Context, serviceName, serviceVersion string) (context.Context, zerolog.Logger) {
	logger := log.With().Str("service", strings.ToLower(serviceName)).Str("version", serviceVersion).Logger()
	ctx = NewContextWithLogger(ctx, logger)
	return ctx, logger
}

func NewContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	ctx = context.WithValue(ctx, loggerCtxKey, logger)
	return ctx
}

func GetLoggerFromContext(ctx context.Context) zerolog.Logger {
	logger, ok := ctx.Value(loggerCtxKey).(zerolog.Logger)

	if !ok {
		return log.Logger
	}

	return logger
}

// AddTraceIDToLogger returns a sub logger tagged with the trace id of span, if any,
// together with a context that carries it.
func AddTraceIDToLogger(ctx context.Context, span trace.Span, logger zerolog.Logger) (context.Context, zerolog.Logger) {
	if sc := span.SpanContext(); sc.HasTraceID() {
		logger = logger.With().Str("traceID", sc.TraceID().String()).Logger()
	}
	return NewContextWithLogger(ctx, logger), logger
}

// Middleware makes logger available to every request handler through the request context.
func Middleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContextWithLogger(r.Context(), logger)))
		})
	}
}
