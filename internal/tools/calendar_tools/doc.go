// Package calendar_tools exposes the natural-language calendar assistant as
// MCP tools.
//
// Read tools (search, list, get, parse, suggest, export) are always
// registered. Tools that change the calendar (create, update, delete) are
// registered only when the server runs with write access enabled.
//
// Every tool accepts an optional "account" argument selecting which Google
// account's token is used. Dates and times may be given as RFC 3339 or in
// natural language such as "next monday at 10am", and are interpreted in the
// server's acting timezone.
package calendar_tools
