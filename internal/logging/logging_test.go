package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn", "json")
	log.Info("hidden")
	log.Warn("shown", "frames", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, float64(3), rec["frames"])
}

func TestJobHelpers(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "info", "text")
	LogJobStart(log, "sequence", "a.jpg", "b.jpg", "out", map[string]any{"frames": 20})
	LogJobComplete(log, "sequence", 1500*time.Millisecond, nil)
	LogJobError(log, "sequence", time.Second, errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "job started")
	assert.Contains(t, out, "start=a.jpg")
	assert.Contains(t, out, "duration_ms=1500")
	assert.Contains(t, out, "error=boom")
}
