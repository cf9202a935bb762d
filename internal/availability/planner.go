package availability

import (
	"time"

	"github.com/teemow/calagent/internal/nltime"
)

const (
	// Stride is the distance between consecutive candidate starts.
	Stride = 30 * time.Minute

	// DefaultMaxSuggestions is used when a request does not set a limit.
	DefaultMaxSuggestions = 3
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether i and o share any instant. Touching intervals do
// not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Slot is a suggested meeting time.
type Slot = Interval

// Request describes a slot search.
type Request struct {
	// Day is any instant on the target day; the day is taken in Location.
	Day      time.Time
	Location *time.Location
	Duration time.Duration
	// Window restricts candidate starts to a time of day. Nil means any.
	Window         *nltime.Window
	Busy           []Interval
	MaxSuggestions int
}

// IsFree reports whether candidate is disjoint from every busy interval.
func IsFree(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return false
		}
	}
	return true
}

// DayBounds returns local midnight of the day containing t and the
// following midnight.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = t.Location()
	}
	y, m, d := t.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Suggest returns up to MaxSuggestions free slots in chronological order.
// Slots for durations that are not a multiple of Stride may overlap each
// other. An empty result is not an error.
func Suggest(req Request) []Slot {
	if req.Duration <= 0 {
		return nil
	}
	limit := req.MaxSuggestions
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}

	dayStart, dayEnd := DayBounds(req.Day, req.Location)

	var slots []Slot
	for start := dayStart; !start.Add(req.Duration).After(dayEnd); start = start.Add(Stride) {
		candidate := Slot{Start: start, End: start.Add(req.Duration)}
		if req.Window != nil && !req.Window.Contains(start) {
			continue
		}
		if !IsFree(candidate, req.Busy) {
			continue
		}
		slots = append(slots, candidate)
		if len(slots) == limit {
			break
		}
	}
	return slots
}
