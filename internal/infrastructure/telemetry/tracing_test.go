package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/coltrade/backend/internal/infrastructure/telemetry"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attributes(span sdktrace.ReadOnlySpan) map[string]interface{} {
	out := make(map[string]interface{})
	for _, attr := range span.Attributes() {
		out[string(attr.Key)] = attr.Value.AsInterface()
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, span := telemetry.StartServiceSpan(context.Background(), "forecast", "build",
		telemetry.SpanAttrRows, 12,
		telemetry.SpanAttrCollection, "ventas",
	)
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "forecast.build", spans[0].Name())

	attrs := attributes(spans[0])
	assert.Equal(t, int64(12), attrs["rows"])
	assert.Equal(t, "ventas", attrs["collection"])
}

func TestSetAttributes_IgnoresBadPairs(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "collection", "import")
	telemetry.SetAttributes(span, 42, "x", "flag", true, "ratio", 0.5, "names", []string{"a"}, "dangling")
	span.End()

	attrs := attributes(sr.Ended()[0])
	assert.Len(t, attrs, 3)
	assert.Equal(t, true, attrs["flag"])
	assert.Equal(t, 0.5, attrs["ratio"])
	assert.Equal(t, []string{"a"}, attrs["names"])
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "orders", "fetch")
	telemetry.RecordError(span, errors.New("upstream down"))
	telemetry.RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "upstream down", spans[0].Status().Description)
	assert.Len(t, spans[0].Events(), 1)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
}
