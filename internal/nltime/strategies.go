package nltime

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Strategy names.
const (
	StrategyNatural     = "natural"
	StrategyNextWeekday = "next-weekday"
	StrategyFuzzy       = "fuzzy"
)

// DefaultStrategies returns the chain used by NewResolver: free-text
// parsing, then the "next <weekday>" grammar, then absolute dates.
func DefaultStrategies() []Strategy {
	return []Strategy{
		NewNaturalStrategy(),
		NextWeekdayStrategy{},
		FuzzyStrategy{},
	}
}

// NaturalStrategy recognises relative phrases ("tomorrow at 3pm",
// "in 2 hours", "this friday") with English and common rules. Numeric
// calendar dates are left to FuzzyStrategy, since the clock rules would
// read "11-03" in "2026-11-03" as a time of day. "next <weekday>" phrases
// are left to NextWeekdayStrategy, which applies the period hours.
type NaturalStrategy struct {
	parser *when.Parser
}

// NewNaturalStrategy returns a NaturalStrategy with the English and common
// rule sets loaded.
func NewNaturalStrategy() *NaturalStrategy {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &NaturalStrategy{parser: w}
}

func (s *NaturalStrategy) Name() string { return StrategyNatural }

// Resolve only accepts a match that covers the whole phrase apart from
// filler words. A partial match such as "March 5" in "March 5 2026 3pm"
// would drop the year and the time.
func (s *NaturalStrategy) Resolve(text string, ref Reference) (time.Time, bool, error) {
	text = strings.TrimSpace(text)
	if numericDatePattern.MatchString(text) {
		return time.Time{}, false, nil
	}
	if _, ok := matchNextWeekday(text); ok {
		return time.Time{}, false, nil
	}
	r, err := s.parser.Parse(text, ref.Now)
	if err != nil || r == nil {
		return time.Time{}, false, nil
	}
	if !coversPhrase(text, r.Index, r.Text) {
		return time.Time{}, false, nil
	}
	return r.Time.In(ref.Location), true, nil
}

var numericDatePattern = regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}|\d{1,2}/\d{1,2}/\d{2,4}`)

var fillerWords = map[string]bool{
	"at": true, "on": true, "the": true, "of": true, "a": true, "an": true,
}

// coversPhrase reports whether the match text[index:index+len(matched)]
// leaves nothing but filler words and punctuation behind.
func coversPhrase(text string, index int, matched string) bool {
	if index < 0 || index+len(matched) > len(text) {
		return false
	}
	rest := strings.ToLower(text[:index] + " " + text[index+len(matched):])
	words := strings.FieldsFunc(rest, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if !fillerWords[w] {
			return false
		}
	}
	return true
}

var nextWeekdayPattern = regexp.MustCompile(`(?i)^next\s+([a-z]+)(?:\s+at\s+(.+?))?(?:\s+(morning|afternoon|evening))?$`)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var periodHours = map[string]int{
	"morning":   9,
	"afternoon": 13,
	"evening":   18,
}

// NextWeekdayStrategy handles "next <weekday> [at <time>] [morning|afternoon|evening]".
// Without an explicit time or period the result is 09:00.
type NextWeekdayStrategy struct{}

func (NextWeekdayStrategy) Name() string { return StrategyNextWeekday }

func (NextWeekdayStrategy) Resolve(text string, ref Reference) (time.Time, bool, error) {
	m, ok := matchNextWeekday(text)
	if !ok {
		return time.Time{}, false, nil
	}
	target := weekdays[strings.ToLower(m[1])]

	hour, minute := 9, 0
	if period := strings.ToLower(m[3]); period != "" {
		hour = periodHours[period]
	}
	if m[2] != "" {
		c, err := ParseClock(m[2])
		if err != nil {
			return time.Time{}, false, &ParseError{Kind: KindDateTime, Input: text, Err: err}
		}
		hour, minute = c.Hour, c.Minute
	}

	now := ref.Now.In(ref.Location)
	y, mo, d := now.Date()
	days := DaysUntil(now.Weekday(), target)
	return time.Date(y, mo, d+days, hour, minute, 0, 0, ref.Location), true, nil
}

// matchNextWeekday returns the submatches of nextWeekdayPattern when text
// names a known weekday, so "next week" is not taken.
func matchNextWeekday(text string) ([]string, bool) {
	m := nextWeekdayPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil, false
	}
	if _, ok := weekdays[strings.ToLower(m[1])]; !ok {
		return nil, false
	}
	return m, true
}

// DaysUntil returns how many days ahead the next occurrence of target is,
// counting from today. The result is in [1, 7]; today's weekday means a
// week from now.
func DaysUntil(today, target time.Weekday) int {
	days := (int(target) - int(today) + 7) % 7
	if days == 0 {
		days = 7
	}
	return days
}

// FuzzyStrategy parses absolute dates in many layouts ("2026-11-03 14:00",
// "Nov 3 2026 2pm", "03/11/2026") as wall time in the acting location.
type FuzzyStrategy struct{}

func (FuzzyStrategy) Name() string { return StrategyFuzzy }

func (FuzzyStrategy) Resolve(text string, ref Reference) (time.Time, bool, error) {
	t, err := dateparse.ParseIn(expandBareHours(strings.TrimSpace(text)), ref.Location)
	if err != nil {
		return time.Time{}, false, nil
	}
	return t.In(ref.Location), true, nil
}

var bareHourPattern = regexp.MustCompile(`(?i)(^|[^:\d])(\d{1,2})\s*(am|pm)\b`)

// expandBareHours rewrites "3pm" as "3:00pm", the form dateparse reads.
func expandBareHours(text string) string {
	return bareHourPattern.ReplaceAllString(text, "${1}${2}:00${3}")
}
