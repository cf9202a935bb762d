// Package availability finds free meeting slots on a single day.
//
// Suggest scans the target day in the acting location at a fixed stride and
// keeps candidates that neither overlap a busy interval nor fall outside the
// preferred time-of-day window. It performs no I/O; callers fetch busy
// intervals through the calendar gateway.
package availability
