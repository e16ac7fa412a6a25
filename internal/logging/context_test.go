package logging_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/Amund211/fragstat/internal/logging"
	"github.com/stretchr/testify/require"
)

// readEntries decodes every JSON log line written to buf, dropping the timestamp
func readEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	entries := make([]map[string]any, 0)
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		require.Contains(t, entry, "time")
		delete(entry, "time")
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("stored logger", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
		ctx := logging.AddToContext(t.Context(), logger)

		require.Same(t, logger, logging.FromContext(ctx))
	})

	t.Run("fallback is shared", func(t *testing.T) {
		t.Parallel()

		first := logging.FromContext(t.Context())
		require.NotNil(t, first)
		require.Same(t, first, logging.FromContext(t.Context()))
	})
}

func TestAddMetaToContext(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	rootLogger := slog.New(slog.NewJSONHandler(buf, nil)).With(slog.String("component", "reconciler"))
	ctx := logging.AddToContext(t.Context(), rootLogger)

	withPlayer := logging.AddMetaToContext(ctx, slog.String("playerID", "p1"))
	logging.FromContext(withPlayer).Info("recomputed")

	overridden := logging.AddMetaToContext(withPlayer, slog.String("playerID", "p2"), slog.Int("attempt", 2))
	logging.FromContext(overridden).Info("recomputed")

	// The parent context is unchanged
	logging.FromContext(ctx).Info("done")

	require.Equal(t, []map[string]any{
		{"level": "INFO", "msg": "recomputed", "component": "reconciler", "playerID": "p1"},
		{"level": "INFO", "msg": "recomputed", "component": "reconciler", "playerID": "p2", "attempt": float64(2)},
		{"level": "INFO", "msg": "done", "component": "reconciler"},
	}, readEntries(t, buf))
}
