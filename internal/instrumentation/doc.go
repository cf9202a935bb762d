// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the calagent MCP server.
//
// # Metrics
//
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds: tool calls by
//     tool and status
//   - google_api_operations_total / google_api_operation_duration_seconds:
//     Calendar API calls by operation and status
//   - http_requests_total / http_request_duration_seconds: streamable HTTP
//     transport requests
//   - nl_datetime_resolutions_total: natural-language date/time resolutions
//     by winning strategy and result
//   - meeting_suggestions_returned: number of slots returned per suggestion
//     request
//
// # Configuration
//
// DefaultConfig reads INSTRUMENTATION_ENABLED, METRICS_EXPORTER
// (prometheus, otlp, stdout), TRACING_EXPORTER (otlp, stdout, none),
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE,
// OTEL_TRACES_SAMPLER_ARG, AUDIT_LOGGING_ENABLED and
// AUDIT_LOGGING_INCLUDE_PII.
//
// With the prometheus exporter, metrics are collected in a private registry
// served by Provider.PrometheusHandler.
package instrumentation
