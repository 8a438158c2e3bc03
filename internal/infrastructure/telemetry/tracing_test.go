package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordSpans installs an in-memory tracer provider for the test
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestStartSpan(t *testing.T) {
	sr := recordSpans(t)
	entryID := uuid.New()

	_, span := telemetry.StartSpan(context.Background(), "ledger.post_entry",
		telemetry.WithAttribute(telemetry.SpanAttrJournalEntryID, entryID),
		telemetry.WithAttribute(telemetry.SpanAttrLineCount, 3),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ledger.post_entry", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	attrs := attrMap(spans[0])
	assert.Equal(t, entryID.String(), attrs[telemetry.SpanAttrJournalEntryID].AsString())
	assert.Equal(t, int64(3), attrs[telemetry.SpanAttrLineCount].AsInt64())
}

func TestStartServiceSpan_Nests(t *testing.T) {
	sr := recordSpans(t)

	ctx, parent := telemetry.StartServiceSpan(context.Background(), "receivable", "post_receipt")
	_, child := telemetry.StartServiceSpan(ctx, "ledger", "post_entry")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "ledger.post_entry", spans[0].Name())
	assert.Equal(t, "receivable.post_receipt", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestSetAttributes(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartSpan(context.Background(), "op")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSourceModule, "fnb",
		42, "ignored",
		telemetry.SpanAttrJournalNumber, int64(1001),
		"auto_post", true,
		"dangling",
	)
	telemetry.SetAttribute(span, "ratio", 0.5)
	span.End()

	attrs := attrMap(sr.Ended()[0])
	assert.Len(t, attrs, 4)
	assert.Equal(t, "fnb", attrs[telemetry.SpanAttrSourceModule].AsString())
	assert.Equal(t, int64(1001), attrs[telemetry.SpanAttrJournalNumber].AsInt64())
	assert.True(t, attrs["auto_post"].AsBool())
	assert.Equal(t, 0.5, attrs["ratio"].AsFloat64())
}

func TestRecordErrorAndSetOK(t *testing.T) {
	sr := recordSpans(t)

	_, failed := telemetry.StartSpan(context.Background(), "failed")
	telemetry.RecordError(failed, errors.New("unbalanced entry"))
	failed.End()

	_, ok := telemetry.StartSpan(context.Background(), "ok")
	telemetry.RecordError(ok, nil)
	telemetry.SetOK(ok)
	ok.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "unbalanced entry", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
	assert.Empty(t, spans[1].Events())
}

func TestAddEvent(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartSpan(context.Background(), "op")
	telemetry.AddEvent(span, "journal_number_assigned", telemetry.SpanAttrJournalNumber, 7)
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "journal_number_assigned", events[0].Name)
	assert.Equal(t, int64(7), events[0].Attributes[0].Value.AsInt64())
}

func TestTraceAndSpanIDs(t *testing.T) {
	recordSpans(t)

	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))

	ctx, span := telemetry.StartSpan(context.Background(), "op")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), telemetry.GetTraceID(ctx))
	assert.Equal(t, span.SpanContext().SpanID().String(), telemetry.GetSpanID(ctx))
	assert.Equal(t, span, telemetry.SpanFromContext(ctx))

	moved := telemetry.ContextWithSpan(context.Background(), span)
	assert.Equal(t, telemetry.GetSpanID(ctx), telemetry.GetSpanID(moved))
}

func TestHelpersTolerateNilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.SetAttribute(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "e")
	})
}
