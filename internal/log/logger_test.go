package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrGenerateCorrelationID_UsesContextValue(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "abc-123")

	assert.Equal(t, "abc-123", GetOrGenerateCorrelationID(ctx))
}

func TestGetOrGenerateCorrelationID_GeneratesWhenMissing(t *testing.T) {
	id := GetOrGenerateCorrelationID(context.Background())

	assert.Len(t, id, 36)
	assert.NotEqual(t, id, GetOrGenerateCorrelationID(context.Background()))
}

func TestGetLoggerInstanceFromContext_PrefersInjectedLogger(t *testing.T) {
	injected := NewLogger(&bytes.Buffer{})
	ctx := ContextWithLogger(context.Background(), injected)

	assert.Same(t, injected, GetLoggerInstanceFromContext(ctx, NewLogger(&bytes.Buffer{})))
}

func TestGetLoggerInstanceFromContext_CorrelatesFallback(t *testing.T) {
	var buf bytes.Buffer
	fallback := NewLogger(&buf)
	ctx := ContextWithCorrelationID(context.Background(), "req-1")

	GetLoggerInstanceFromContext(ctx, fallback).Info("hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-1", record["correlation_id"])
	assert.Equal(t, "hello", record["msg"])
}
