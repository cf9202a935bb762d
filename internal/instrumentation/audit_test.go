package instrumentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/teemow/calagent/internal/logging"
)

func newInvocation() *ToolInvocation {
	return NewToolInvocation("calendar_create_event").
		WithAccount("work").
		WithService(ServiceCalendar, OperationCreate).
		WithTarget("primary", []string{"jane@example.com"}).
		WithInput("next monday at 10am")
}

func TestToolInvocation_LogAttrsAnonymized(t *testing.T) {
	ti := newInvocation().Complete(true, nil)

	attrs := map[string]slog.Value{}
	for _, a := range ti.LogAttrs(false) {
		attrs[a.Key] = a.Value
	}

	if attrs[logging.KeyTool].String() != "calendar_create_event" {
		t.Errorf("unexpected tool %v", attrs[logging.KeyTool])
	}
	if attrs[logging.KeyStatus].String() != StatusSuccess {
		t.Errorf("unexpected status %v", attrs[logging.KeyStatus])
	}
	if _, ok := attrs[logging.KeyInput]; ok {
		t.Error("input must not be logged without PII")
	}
	attendees := attrs["attendees"].Any().([]string)
	if attendees[0] != logging.AnonymizeEmail("jane@example.com") {
		t.Errorf("expected hashed attendee, got %q", attendees[0])
	}
}

func TestToolInvocation_LogAttrsWithPII(t *testing.T) {
	ti := newInvocation().Complete(false, errors.New("boom"))

	attrs := map[string]slog.Value{}
	for _, a := range ti.LogAttrs(true) {
		attrs[a.Key] = a.Value
	}

	if attrs[logging.KeyInput].String() != "next monday at 10am" {
		t.Errorf("expected input, got %v", attrs[logging.KeyInput])
	}
	if attrs["attendees"].Any().([]string)[0] != "jane@example.com" {
		t.Error("expected raw attendee email")
	}
	if attrs[logging.KeyError].String() != "boom" {
		t.Errorf("expected error, got %v", attrs[logging.KeyError])
	}
	if ti.Status() != StatusError {
		t.Errorf("expected error status, got %q", ti.Status())
	}
}

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	al := NewAuditLogger(logger, AuditLoggingConfig{Enabled: true})
	al.LogToolInvocation(newInvocation().Complete(true, nil))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected a JSON record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "tool_executed" || record["component"] != "audit" {
		t.Errorf("unexpected record %v", record)
	}
	if strings.Contains(buf.String(), "jane@example.com") {
		t.Error("audit record leaked an attendee email")
	}

	buf.Reset()
	al.LogToolInvocation(newInvocation().Complete(false, errors.New("quota")))
	if !strings.Contains(buf.String(), `"level":"WARN"`) {
		t.Errorf("expected failures at warn level, got %q", buf.String())
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})
	al.LogToolInvocation(newInvocation().Complete(true, nil))

	var nilLogger *AuditLogger
	nilLogger.LogToolInvocation(newInvocation())

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
