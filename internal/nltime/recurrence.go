package nltime

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// RulePrefix starts every recurrence rule produced by ParseRecurrence.
const RulePrefix = "RRULE:"

var recurrencePattern = regexp.MustCompile(`(?i)^every\s+(\w+)\s*(?:for\s+(\d+)\s*(week|month|year)s?)?`)

type repeat struct {
	freq  string
	byDay []string
}

var weekdayCodes = map[string]string{
	"monday":    "MO",
	"tuesday":   "TU",
	"wednesday": "WE",
	"thursday":  "TH",
	"friday":    "FR",
	"saturday":  "SA",
	"sunday":    "SU",
}

var repeatTokens = func() map[string]repeat {
	m := map[string]repeat{
		"day":      {freq: "DAILY"},
		"daily":    {freq: "DAILY"},
		"week":     {freq: "WEEKLY"},
		"weekly":   {freq: "WEEKLY"},
		"month":    {freq: "MONTHLY"},
		"monthly":  {freq: "MONTHLY"},
		"year":     {freq: "YEARLY"},
		"yearly":   {freq: "YEARLY"},
		"annually": {freq: "YEARLY"},
		"weekday":  {freq: "WEEKLY", byDay: []string{"MO", "TU", "WE", "TH", "FR"}},
		"weekdays": {freq: "WEEKLY", byDay: []string{"MO", "TU", "WE", "TH", "FR"}},
	}
	for name, code := range weekdayCodes {
		m[name] = repeat{freq: "WEEKLY", byDay: []string{code}}
		m[name+"s"] = repeat{freq: "WEEKLY", byDay: []string{code}}
	}
	return m
}()

// ParseRecurrence converts "every <token> [for <n> weeks|months|years]" into
// an RRULE string. Unknown tokens fall back to a weekly rule. Months count as
// four weeks and years as 52 weeks.
func ParseRecurrence(text string) (string, error) {
	m := recurrencePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", &ParseError{Kind: KindRecurrence, Input: text}
	}

	rep, ok := repeatTokens[strings.ToLower(m[1])]
	if !ok {
		rep = repeat{freq: "WEEKLY"}
	}

	count := 0
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return "", &ParseError{Kind: KindRecurrence, Input: text, Err: err}
		}
		if n == 0 {
			return "", &ParseError{Kind: KindRecurrence, Input: text, Err: errors.New("count must be positive")}
		}
		switch strings.ToLower(m[3]) {
		case "week":
			count = n
		case "month":
			count = n * 4
		case "year":
			count = n * 52
		}
	}

	rule := formatRule(rep, count)
	if _, err := rrule.StrToRRule(strings.TrimPrefix(rule, RulePrefix)); err != nil {
		return "", &ParseError{Kind: KindRecurrence, Input: text, Err: err}
	}
	return rule, nil
}

func formatRule(rep repeat, count int) string {
	parts := []string{"FREQ=" + rep.freq}
	if len(rep.byDay) > 0 {
		parts = append(parts, "BYDAY="+strings.Join(rep.byDay, ","))
	}
	if count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(count))
	}
	return RulePrefix + strings.Join(parts, ";")
}

// IsRule reports whether text already is an RRULE string.
func IsRule(text string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(text)), RulePrefix)
}

// PreviewRecurrence expands the first n occurrences of rule starting at
// start. A rule with a smaller COUNT yields fewer occurrences.
func PreviewRecurrence(rule string, start time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	body := strings.TrimSpace(rule)
	if IsRule(body) {
		body = body[len(RulePrefix):]
	}

	opt, err := rrule.StrToROption(body)
	if err != nil {
		return nil, &ParseError{Kind: KindRecurrence, Input: rule, Err: err}
	}
	opt.Dtstart = start
	if opt.Count == 0 || opt.Count > n {
		opt.Count = n
	}

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, &ParseError{Kind: KindRecurrence, Input: rule, Err: err}
	}
	return r.All(), nil
}
