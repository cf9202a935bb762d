// Package nltime turns natural-language scheduling phrases into exact values.
//
// It covers three kinds of input:
//
//   - durations such as "for 45 minutes" or "2 hours" (ParseDuration)
//   - date/time phrases such as "next Monday morning" or "tomorrow at 3pm"
//     (Resolver), optionally combined with a preferred time-of-day window
//     such as "afternoon" or "10 AM to 3 PM" (ParseWindow)
//   - recurrence phrases such as "every Tuesday for 5 weeks" (ParseRecurrence)
//
// The acting location and the reference clock are always injected, so the
// same input resolves identically in tests and on any host. Failures are
// reported as *ParseError values carrying the offending input.
package nltime
