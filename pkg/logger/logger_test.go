package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesTraceIDAndCaller(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug")

	ctx := WithTraceID(context.Background(), "trace-1")
	l.Info(ctx, "resolved %s", "//a")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace-1", entry["trace_id"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry["msg"], "resolved //a")
	assert.Contains(t, entry["msg"], "[TestLoggerWritesTraceIDAndCaller]")
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")
	l.Debug(context.Background(), "hidden")
	l.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	l.Warn(context.Background(), "shown")
	assert.NotZero(t, buf.Len())
}

func TestSetDefault(t *testing.T) {
	prev := GetDefaultLogger()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	SetDefault(New(&buf, "info"))
	SetDefault(nil)
	Info(context.Background(), "hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Empty(t, GetTraceID(context.Background()))
}
