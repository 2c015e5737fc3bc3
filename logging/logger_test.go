package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLogger_WithContextAddsIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(DefaultConfig(), &buf).WithComponent("submission_service")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	ctx = WithSubmissionID(ctx, "sub-1")
	logger.WithContext(ctx).Submission("Submission completed", "NHBRC10001", "Gauteng",
		slog.Int("uploaded_files", 2))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "submission_service", entries[0]["component"])
	assert.Equal(t, "req-1", entries[0]["request_id"])
	assert.Equal(t, "sub-1", entries[0]["submission_id"])
	assert.Equal(t, "NHBRC10001", entries[0]["reference_number"])
	assert.Equal(t, float64(2), entries[0]["uploaded_files"])
	assert.Contains(t, entries[0], "timestamp")
}

func TestLogger_Performance(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(DefaultConfig(), &buf)

	logger.Performance("submit_form", 1500*time.Millisecond, slog.String("reference_number", "NHBRC10002"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "performance", entries[0]["msg"])
	assert.Equal(t, "submit_form", entries[0]["operation"])
	assert.Equal(t, float64(1500), entries[0]["duration_ms"])
	assert.Equal(t, "NHBRC10002", entries[0]["reference_number"])
}

func TestLogger_LevelFiltersDatabaseDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&Config{Level: "warn", Format: "json"}, &buf)

	logger.Database("Opening database connections")
	logger.SharePoint("Resolved site")
	assert.Empty(t, buf.String())

	logger.Warn("Provinces without SharePoint configuration")
	assert.Len(t, decodeLines(t, &buf), 1)
}

func TestWarnUsesDefaultLogger(t *testing.T) {
	previous := Default()
	t.Cleanup(func() { SetDefault(previous) })

	var buf bytes.Buffer
	SetDefault(NewLoggerWithWriter(DefaultConfig(), &buf))
	Warn("Failed to write JSON response", "error", "broken pipe")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "broken pipe", entries[0]["error"])
}
