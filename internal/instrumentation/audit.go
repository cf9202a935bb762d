package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/calagent/internal/logging"
)

// ToolInvocation captures one MCP tool call for audit logging.
//
// Attendees and Input may contain personal data. They are only written in
// full when the audit logger is configured with IncludePII; otherwise
// attendees are hashed and the input is dropped.
type ToolInvocation struct {
	Tool        string
	Account     string // Account name (default, work, personal)
	ServiceName string
	Operation   string
	CalendarID  string
	Attendees   []string
	Input       string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithAccount sets the Google account name.
func (ti *ToolInvocation) WithAccount(account string) *ToolInvocation {
	ti.Account = account
	return ti
}

// WithService sets the Google service and operation.
func (ti *ToolInvocation) WithService(serviceName, operation string) *ToolInvocation {
	ti.ServiceName = serviceName
	ti.Operation = operation
	return ti
}

// WithTarget sets the calendar and attendees the call acted on.
func (ti *ToolInvocation) WithTarget(calendarID string, attendees []string) *ToolInvocation {
	ti.CalendarID = calendarID
	ti.Attendees = attendees
	return ti
}

// WithInput records the natural-language phrase the call was made with.
func (ti *ToolInvocation) WithInput(input string) *ToolInvocation {
	ti.Input = input
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for the invocation. With includePII
// false, attendees are replaced by their hashes and the input is omitted.
func (ti *ToolInvocation) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String(logging.KeyTool, ti.Tool),
		slog.Duration(logging.KeyDuration, ti.Duration),
		slog.String(logging.KeyStatus, ti.Status()),
	}

	if ti.Account != "" {
		attrs = append(attrs, logging.Account(ti.Account))
	}
	if ti.ServiceName != "" {
		attrs = append(attrs, logging.Service(ti.ServiceName))
	}
	if ti.Operation != "" {
		attrs = append(attrs, logging.Operation(ti.Operation))
	}
	if ti.CalendarID != "" {
		attrs = append(attrs, logging.Calendar(ti.CalendarID))
	}
	if len(ti.Attendees) > 0 {
		attendees := make([]string, len(ti.Attendees))
		for i, a := range ti.Attendees {
			if includePII {
				attendees[i] = a
			} else {
				attendees[i] = logging.AnonymizeEmail(a)
			}
		}
		attrs = append(attrs, slog.Any("attendees", attendees))
	}
	if includePII && ti.Input != "" {
		attrs = append(attrs, logging.Input(ti.Input))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}

	return attrs
}

// AuditLogger writes one structured record per tool invocation.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger. A nil logger uses slog.Default().
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs ti at info level on success and warn level on failure.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includePII)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
