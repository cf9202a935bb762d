package nltime

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultEventLength is used when a phrase carries no explicit duration.
const DefaultEventLength = 60 * time.Minute

var durationPattern = regexp.MustCompile(`(?i)^(?:for\s+)?(\d+)\s*(hours?|minutes?)`)

// ParseDuration converts phrases like "1 hour", "for 30 minutes" or
// "2 hours" into whole minutes.
func ParseDuration(text string) (int, error) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, &ParseError{Kind: KindDuration, Input: text}
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &ParseError{Kind: KindDuration, Input: text, Err: err}
	}
	if n == 0 {
		return 0, &ParseError{Kind: KindDuration, Input: text, Err: errors.New("duration must be positive")}
	}

	if strings.HasPrefix(strings.ToLower(m[2]), "hour") {
		return n * 60, nil
	}
	return n, nil
}

// ParseLength is ParseDuration returning a time.Duration. Empty text yields
// DefaultEventLength.
func ParseLength(text string) (time.Duration, error) {
	if strings.TrimSpace(text) == "" {
		return DefaultEventLength, nil
	}
	minutes, err := ParseDuration(text)
	if err != nil {
		return 0, err
	}
	return time.Duration(minutes) * time.Minute, nil
}
