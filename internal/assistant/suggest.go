package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/calagent/internal/availability"
	"github.com/teemow/calagent/internal/logging"
)

// SuggestRequest describes a meeting time search on a single day.
type SuggestRequest struct {
	// Date is a phrase naming the day, e.g. "next monday".
	Date string
	// Duration defaults to DefaultMeetingDuration.
	Duration string
	// PreferredTime is "morning", "afternoon", "evening" or a range such as
	// "10 AM to 3 PM". Unparseable values are ignored.
	PreferredTime string
	CalendarID    string
	// Attendees are calendar IDs whose busy times are also avoided.
	Attendees      []string
	MaxSuggestions int
}

// SuggestMeetingTimes returns free slots on the requested day. When no slot
// fits the result is a single line offering to try another day or duration.
func (s *Service) SuggestMeetingTimes(ctx context.Context, req SuggestRequest) ([]string, error) {
	duration := strings.TrimSpace(req.Duration)
	if duration == "" {
		duration = DefaultMeetingDuration
	}

	res, err := s.resolver.Resolve(req.Date, duration, req.PreferredTime)
	if err != nil {
		return nil, err
	}
	dayStart, dayEnd := availability.DayBounds(res.Start, s.loc)

	calendars := calendarIDs(s.calendarID(req.CalendarID), req.Attendees)
	busy, err := s.gw.QueryFreeBusy(ctx, dayStart, dayEnd, calendars)
	if err != nil {
		return nil, fmt.Errorf("couldn't query free/busy calendar status: %w", err)
	}

	intervals := make([]availability.Interval, len(busy))
	for i, b := range busy {
		intervals[i] = availability.Interval{Start: b.Start, End: b.End}
	}

	limit := req.MaxSuggestions
	if limit <= 0 {
		limit = s.maxSuggestions
	}
	slots := availability.Suggest(availability.Request{
		Day:            dayStart,
		Location:       s.loc,
		Duration:       res.End.Sub(res.Start),
		Window:         res.Window,
		Busy:           intervals,
		MaxSuggestions: limit,
	})
	s.metrics.RecordSuggestions(ctx, len(slots))
	s.logger.Debug("suggested meeting times",
		logging.Input(req.Date),
		logging.Strategy(res.Strategy),
		"busy", len(busy),
		"slots", len(slots))

	if len(slots) == 0 {
		return []string{fmt.Sprintf(
			"No available slots found for a meeting of %s on %s. Would you like suggestions for a different day or duration?",
			duration, dayStart.Format("2006-01-02"))}, nil
	}

	lines := make([]string, len(slots))
	for i, slot := range slots {
		lines[i] = s.formatSlot(slot.Start, slot.End)
	}
	return lines, nil
}

// calendarIDs returns primary followed by the attendees, without duplicates.
func calendarIDs(primary string, attendees []string) []string {
	ids := []string{primary}
	seen := map[string]bool{primary: true}
	for _, a := range attendees {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		ids = append(ids, a)
	}
	return ids
}
