package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

type loggerContextKey struct{}

// Used when no logger has been added to the context, e.g. in background jobs started without one
var fallbackLogger = sync.OnceValue(func() *slog.Logger {
	return slog.New(
		NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil)),
	).With(slog.String("logger", "fallback"))
})

func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return fallbackLogger()
}

func AddToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// AddMetaToContext replaces the logger in the context with one that includes attrs
func AddMetaToContext(ctx context.Context, attrs ...slog.Attr) context.Context {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return AddToContext(ctx, FromContext(ctx).With(args...))
}
