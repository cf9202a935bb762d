package nltime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day without a date.
type Clock struct {
	Hour   int
	Minute int
}

// ClockOf returns the wall clock of t in its own location.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes returns the minutes elapsed since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

var clockPattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(a\.?m\.?|p\.?m\.?)?$`)

// ParseClock parses "10", "10 AM", "9:30am", "14:05", "noon" and "midnight".
func ParseClock(text string) (Clock, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	switch s {
	case "noon", "midday":
		return Clock{Hour: 12}, nil
	case "midnight":
		return Clock{}, nil
	}

	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return Clock{}, &ParseError{Kind: KindTimeOfDay, Input: text}
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return Clock{}, &ParseError{Kind: KindTimeOfDay, Input: text, Err: fmt.Errorf("minute %d out of range", minute)}
	}

	meridiem := strings.ReplaceAll(m[3], ".", "")
	switch meridiem {
	case "":
		if hour > 23 {
			return Clock{}, &ParseError{Kind: KindTimeOfDay, Input: text, Err: fmt.Errorf("hour %d out of range", hour)}
		}
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return Clock{}, &ParseError{Kind: KindTimeOfDay, Input: text, Err: fmt.Errorf("hour %d out of range", hour)}
		}
		hour %= 12
		if meridiem == "pm" {
			hour += 12
		}
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

// Window is a time-of-day range. Start never lies after End.
type Window struct {
	Start Clock
	End   Clock
}

// Contains reports whether the wall clock of t lies within the window,
// both bounds included.
func (w Window) Contains(t time.Time) bool {
	m := ClockOf(t).Minutes()
	return m >= w.Start.Minutes() && m <= w.End.Minutes()
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

var periodWindows = map[string]Window{
	"morning":   {Start: Clock{Hour: 9}, End: Clock{Hour: 12}},
	"afternoon": {Start: Clock{Hour: 12}, End: Clock{Hour: 17}},
	"evening":   {Start: Clock{Hour: 17}, End: Clock{Hour: 21}},
}

const clockExpr = `\d{1,2}(?::\d{2})?\s*(?:a\.?m\.?|p\.?m\.?)`

var windowRangePattern = regexp.MustCompile(`(?i)^(` + clockExpr + `)\s*(?:to|until|-)\s*(` + clockExpr + `)`)

// ParseWindow parses a preferred time of day: "morning", "in the afternoon",
// "evening" or an explicit range such as "10 AM to 3 PM".
func ParseWindow(text string) (*Window, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.TrimPrefix(s, "in the ")
	if w, ok := periodWindows[strings.TrimSpace(s)]; ok {
		return &w, nil
	}

	m := windowRangePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, &ParseError{Kind: KindWindow, Input: text}
	}
	start, err := ParseClock(m[1])
	if err != nil {
		return nil, &ParseError{Kind: KindWindow, Input: text, Err: err}
	}
	end, err := ParseClock(m[2])
	if err != nil {
		return nil, &ParseError{Kind: KindWindow, Input: text, Err: err}
	}
	if start.Minutes() > end.Minutes() {
		return nil, &ParseError{Kind: KindWindow, Input: text, Err: fmt.Errorf("window starts after it ends")}
	}
	return &Window{Start: start, End: end}, nil
}
