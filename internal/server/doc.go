// Package server holds the state shared by the MCP tool handlers and the
// HTTP plumbing around them.
//
// ServerContext caches one calendar gateway per Google account, carries
// the acting timezone and builds the per-call assistant.Service. HTTPServer
// serves the streamable HTTP transport at /mcp together with the health
// endpoints, and MetricsServer exposes Prometheus metrics on a dedicated
// port.
package server
