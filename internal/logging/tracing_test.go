package logging_test

import (
	"log/slog"
	"testing"

	"github.com/Amund211/fragstat/internal/logging"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestTracingLogHandler(t *testing.T) {
	t.Parallel()

	t.Run("no span", func(t *testing.T) {
		t.Parallel()

		w := newWriter(t)
		logger := slog.New(logging.NewTracingLogHandler(slog.NewJSONHandler(w, nil)))

		logger.InfoContext(t.Context(), "test")

		entry, ok := w.PopWithoutTime()
		require.True(t, ok)
		require.Equal(t, map[string]any{
			"level": "INFO",
			"msg":   "test",
		}, entry)
	})

	t.Run("with span", func(t *testing.T) {
		t.Parallel()

		traceID, err := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
		require.NoError(t, err)
		spanID, err := trace.SpanIDFromHex("0123456789abcdef")
		require.NoError(t, err)

		ctx := trace.ContextWithSpanContext(t.Context(), trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		}))

		w := newWriter(t)
		logger := slog.New(logging.NewTracingLogHandler(slog.NewJSONHandler(w, nil))).With("component", "test")

		logger.InfoContext(ctx, "test")

		entry, ok := w.PopWithoutTime()
		require.True(t, ok)
		require.Equal(t, map[string]any{
			"level":        "INFO",
			"msg":          "test",
			"component":    "test",
			"traceID":      "0123456789abcdef0123456789abcdef",
			"spanID":       "0123456789abcdef",
			"traceSampled": true,
		}, entry)
	})
}
