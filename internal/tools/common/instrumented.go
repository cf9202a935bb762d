package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calagent/internal/assistant"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/server"
)

// ToolHandler is the handler signature used by mcp-go tools.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// inputArgs lists the free-text arguments recorded on audit entries, in priority order.
var inputArgs = []string{"text", "date", "start", "query"}

// InstrumentedToolHandler wraps a tool handler with metrics, tracing and audit logging.
// Use it for tools that never reach the Google API, such as the parsing tools.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrument(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but also
// records the Google service and operation type.
//
// This handler records both:
//   - Tool invocation metrics (tool_invocations_total, tool_invocation_duration_seconds)
//   - Google API operation metrics (google_api_operations_total, google_api_operation_duration_seconds)
func InstrumentedToolHandlerWithService(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrument(toolName, serviceName, operation, sc, handler)
}

func instrument(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := GetAccountFromArgs(args, sc.DefaultAccount())

		spanAttrs := []attribute.KeyValue{attribute.String(instrumentation.SpanAttrAccount, account)}
		if serviceName != "" {
			spanAttrs = append(spanAttrs,
				attribute.String(instrumentation.SpanAttrService, serviceName),
				attribute.String(instrumentation.SpanAttrOperation, operation),
			)
		}
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, spanAttrs...)
		defer span.End()

		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()
		invocation := newInvocation(ctx, toolName, serviceName, operation, account, args)

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		failure := err
		if failure == nil && result != nil && result.IsError {
			failure = errors.New(resultText(result))
		}

		status := instrumentation.StatusSuccess
		if failure != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, failure)
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		if metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, status, duration)
			if serviceName != "" {
				metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, status, duration)
			}
		}

		if auditLogger != nil {
			invocation.Complete(failure == nil, failure)
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}

func newInvocation(ctx context.Context, toolName, serviceName, operation, account string, args map[string]interface{}) *instrumentation.ToolInvocation {
	invocation := instrumentation.NewToolInvocation(toolName).
		WithAccount(account).
		WithSpanContext(ctx)
	if serviceName != "" {
		invocation.WithService(serviceName, operation)
	}
	calendarID := StringArg(args, "calendarId")
	attendees := assistant.SplitList(StringArg(args, "attendees"))
	if calendarID != "" || len(attendees) > 0 {
		invocation.WithTarget(calendarID, attendees)
	}
	for _, key := range inputArgs {
		if v := StringArg(args, key); v != "" {
			invocation.WithInput(v)
			break
		}
	}
	return invocation
}

// resultText returns the text of the first text content block of a result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return "tool returned an error result"
}
