package middleware

import (
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func RequestLogger(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics := httpsnoop.CaptureMetrics(next, w, r)
			duration := metrics.Duration
			if duration == 0 {
				duration = time.Since(start)
			}

			spanContext := trace.SpanFromContext(r.Context()).SpanContext()
			log.Infow("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", metrics.Code,
				"duration_ms", float64(duration.Microseconds())/1000.0,
				"request_id", RequestIDFromContext(r.Context()),
				"trace_id", spanContext.TraceID().String(),
				"span_id", spanContext.SpanID().String(),
			)
		})
	}
}
