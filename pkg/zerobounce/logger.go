package zerobounce

import (
	"context"
	"log/slog"
	"time"
)

// Call records one exchange with the service, as passed to the logging hook.
type Call struct {
	Request   *Request
	Response  *Response // nil when the transport failed
	Err       error     // transport error, if any
	CacheKey  string
	Duration  time.Duration
	Timestamp time.Time
}

// Logger receives every call after it completes, including cache hits.
type Logger interface {
	LogCall(ctx context.Context, call *Call)
}

// LoggerFunc adapts a function to the Logger interface.
type LoggerFunc func(ctx context.Context, call *Call)

// LogCall calls f(ctx, call).
func (f LoggerFunc) LogCall(ctx context.Context, call *Call) {
	f(ctx, call)
}

type nopLogger struct{}

func (nopLogger) LogCall(context.Context, *Call) {}

// SlogLogger logs each call as a structured record.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return LoggerFunc(func(ctx context.Context, call *Call) {
		attrs := []any{
			"method", call.Request.Method,
			"endpoint", call.Request.Endpoint(),
			"duration", call.Duration,
		}
		if call.Response != nil {
			attrs = append(attrs, "status", call.Response.StatusCode, "from_cache", call.Response.FromCache)
		}
		if call.Err != nil {
			logger.WarnContext(ctx, "zerobounce call failed", append(attrs, "error", call.Err)...)
			return
		}
		logger.InfoContext(ctx, "zerobounce call", attrs...)
	})
}
