// Package common provides shared helpers for the MCP tool packages:
// argument extraction and the instrumentation wrapper that records
// metrics, spans and audit entries for every tool call.
package common
