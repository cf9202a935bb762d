package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestStartToolSpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := StartToolSpan(context.Background(), "calendar_list_events")
	if GetTraceID(ctx) == "" {
		t.Error("expected a trace id in the span context")
	}
	SetSpanSuccess(span)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "tool.calendar_list_events" {
		t.Errorf("unexpected span name %q", spans[0].Name())
	}
	if spans[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("expected server span, got %v", spans[0].SpanKind())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("expected ok status, got %v", spans[0].Status())
	}
}

func TestStartGoogleAPISpan_Error(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartGoogleAPISpan(context.Background(), ServiceCalendar, OperationFreeBusy)
	SetSpanError(span, errors.New("quota exceeded"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "google.calendar.freebusy" {
		t.Errorf("unexpected span name %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status())
	}

	found := false
	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == SpanAttrOperation && attr.Value.AsString() == OperationFreeBusy {
			found = true
		}
	}
	if !found {
		t.Error("expected operation attribute on span")
	}
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("expected empty trace id, got %q", id)
	}
}
