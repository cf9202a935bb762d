package instrumentation

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{ServiceName: "test-service", Enabled: false})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}
	if provider.PrometheusHandler() != nil {
		t.Error("expected no prometheus handler when disabled")
	}

	// Recording on a disabled provider must not panic.
	provider.Metrics().RecordToolInvocation(context.Background(), "calendar_list_events", StatusSuccess, time.Millisecond)

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_Prometheus(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	handler := provider.PrometheusHandler()
	if handler == nil {
		t.Fatal("expected prometheus handler")
	}

	provider.Metrics().RecordToolInvocation(ctx, "calendar_suggest_meeting_times", StatusSuccess, 20*time.Millisecond)
	provider.Metrics().RecordResolution(ctx, "next-weekday", ResolutionMatched)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{"mcp_tool_invocations_total", "nl_datetime_resolutions_total", `strategy="next-weekday"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, MetricsExporter: "statsd"})
	if err == nil {
		t.Error("expected error for unsupported exporter")
	}
}

func TestNewProvider_StdoutTracing(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		ServiceName:       "test-service",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}
