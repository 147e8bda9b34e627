package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "debug", "json")
	defer Initialize("info", "text")

	DatabaseResult("UPDATE", 2, errors.New("boom"), "table", "bookings")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "water-scheduler", rec["app"])
	assert.Equal(t, "UPDATE", rec["operation"])
	assert.Equal(t, float64(2), rec["rows_affected"])
	assert.Equal(t, "boom", rec["error"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "warn", "text")
	defer Initialize("info", "text")

	EnterMethod("bookingService.CreateBooking", "slotID", 1)
	Info("hidden")
	assert.Empty(t, buf.String())

	Warn("Retrying after contention", "attempt", 2)
	assert.Contains(t, buf.String(), "attempt=2")
}

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "info", "text")
	defer Initialize("info", "text")

	ctx := WithAttrs(context.Background(), "request_id", "abc")
	ctx = WithAttrs(ctx, "user_id", 7)
	FromContext(ctx).Info("request done")

	out := buf.String()
	assert.Contains(t, out, "request_id=abc")
	assert.Contains(t, out, "user_id=7")
	assert.Equal(t, Get(), FromContext(context.Background()))
}
