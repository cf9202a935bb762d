package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/calagent/internal/calendar"
)

// formatEventLine renders "<local time> - <summary> - ID: <id>". All-day
// events show their date.
func (s *Service) formatEventLine(ev *calendar.Event) string {
	return fmt.Sprintf("%s - %s - ID: %s", s.formatEventStart(ev), ev.Summary, ev.ID)
}

func (s *Service) formatEventStart(ev *calendar.Event) string {
	if ev.AllDay {
		return ev.Start.Format(time.DateOnly)
	}
	return s.formatInstant(ev.Start)
}

func (s *Service) formatInstant(t time.Time) string {
	return t.In(s.loc).Format(eventLayout)
}

func (s *Service) formatEventDetails(ev *calendar.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", ev.Summary)
	fmt.Fprintf(&b, "ID: %s\n", ev.ID)
	if ev.AllDay {
		fmt.Fprintf(&b, "Date: %s (all day)\n", ev.Start.Format(time.DateOnly))
	} else {
		fmt.Fprintf(&b, "Start: %s\n", s.formatInstant(ev.Start))
		fmt.Fprintf(&b, "End: %s\n", s.formatInstant(ev.End))
	}
	if ev.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", ev.Status)
	}
	if ev.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", ev.Location)
	}
	if ev.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", ev.Description)
	}
	if ev.Organizer != "" {
		fmt.Fprintf(&b, "Organizer: %s\n", ev.Organizer)
	}
	for _, rule := range ev.Recurrence {
		fmt.Fprintf(&b, "Recurrence: %s\n", rule)
	}
	if ev.MeetLink != "" {
		fmt.Fprintf(&b, "Meet: %s\n", ev.MeetLink)
	}
	if len(ev.Attendees) > 0 {
		b.WriteString("Attendees:\n")
		for _, a := range ev.Attendees {
			name := a.Email
			if a.DisplayName != "" {
				name = fmt.Sprintf("%s <%s>", a.DisplayName, a.Email)
			}
			var notes []string
			if a.ResponseStatus != "" {
				notes = append(notes, a.ResponseStatus)
			}
			if a.Optional {
				notes = append(notes, "optional")
			}
			if len(notes) > 0 {
				name += " (" + strings.Join(notes, ", ") + ")"
			}
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}
	if ev.HTMLLink != "" {
		fmt.Fprintf(&b, "Link: %s\n", ev.HTMLLink)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatSlot renders "<date> <time> - <time>" in the acting timezone.
func (s *Service) formatSlot(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.In(s.loc).Format(eventLayout), end.In(s.loc).Format(clockLayout))
}

func (s *Service) writeOccurrences(b *strings.Builder, occurrences []time.Time) {
	if len(occurrences) == 0 {
		return
	}
	b.WriteString("\nNext occurrences:")
	for _, t := range occurrences {
		fmt.Fprintf(b, "\n  - %s", s.formatInstant(t))
	}
}
