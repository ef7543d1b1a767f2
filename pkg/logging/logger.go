package logging

import (
	"context"
	"log/slog"
	"os"
)

type ctxLoggerKey struct {
	Key string
}

var (
	cKey   = ctxLoggerKey{Key: "logger"}
	reqKey = ctxLoggerKey{Key: "request_id"}
)

func GetLoggerFromContext(ctx context.Context) *slog.Logger {
	var l *slog.Logger

	if logger, ok := ctx.Value(cKey).(*slog.Logger); ok && logger != nil {
		l = logger
	} else {
		// Default stderr logger, stdout may be a terminal the mount is used from
		l = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}

	if requestID := GetRequestIDFromCtx(ctx); requestID != "" {
		l = l.With(slog.String("request_id", requestID))
	}

	return l
}

// Returns logger from context and attaches operation name
func GetLoggerFromContextWithOp(ctx context.Context, op string) *slog.Logger {
	return GetLoggerFromContext(ctx).With(slog.String("op", op))
}

func MakeContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, cKey, logger)
}

// MakeContextWithDiscardLogger is used by tests and by callers that want the
// core to stay silent.
func MakeContextWithDiscardLogger(ctx context.Context) context.Context {
	return MakeContextWithLogger(ctx, slog.New(slog.DiscardHandler))
}
