package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	ctx := context.Background()
	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 10*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationFreeBusy, StatusSuccess, 150*time.Millisecond)
	m.RecordToolInvocation(ctx, "calendar_create_event", StatusError, time.Second)
	m.RecordResolution(ctx, "", ResolutionUnmatched)
	m.RecordSuggestions(ctx, 3)
}

func TestMetrics_ZeroValueIsSafe(t *testing.T) {
	ctx := context.Background()

	var zero Metrics
	zero.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
	zero.RecordToolInvocation(ctx, "calendar_list_events", StatusSuccess, time.Millisecond)
	zero.RecordResolution(ctx, "natural", ResolutionMatched)

	var nilMetrics *Metrics
	nilMetrics.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationList, StatusSuccess, time.Millisecond)
	nilMetrics.RecordSuggestions(ctx, 0)
}
