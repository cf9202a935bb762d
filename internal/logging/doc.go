// Package logging provides structured logging utilities for calagent.
//
// All packages log through log/slog. This package keeps attribute names
// consistent across the tool handlers, the calendar gateway and the
// natural-language resolvers, and offers a small Logger interface so that
// pure parsing code can record warnings without depending on a concrete
// handler.
//
// # Usage Patterns
//
//	logger := logging.WithTool(slog.Default(), "calendar_suggest_meeting_times")
//	logger.Warn("preferred time ignored", logging.Input(pref))
//
// Attendee addresses must never be logged in clear text:
//
//	logger.Info("event created", logging.UserHash(attendee))
package logging
