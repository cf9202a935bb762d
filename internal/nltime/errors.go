package nltime

import "fmt"

// Kind names the grammar a ParseError was raised for.
type Kind string

const (
	KindDuration   Kind = "duration"
	KindDateTime   Kind = "datetime"
	KindTimeOfDay  Kind = "time of day"
	KindWindow     Kind = "time window"
	KindRecurrence Kind = "recurrence"
)

// ParseError reports input that none of the supported grammars accept.
type ParseError struct {
	Kind  Kind
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("could not resolve %s: %s", e.Kind, e.Input)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
