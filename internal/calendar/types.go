package calendar

import (
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Event is the read model of a calendar event.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Status      string
	HTMLLink    string
	MeetLink    string
	Organizer   string
	Start       time.Time
	End         time.Time
	// AllDay events carry a date only; Start and End are midnight UTC.
	AllDay     bool
	TimeZone   string
	Attendees  []Attendee
	Recurrence []string
}

// Attendee represents information about an event attendee.
type Attendee struct {
	Email          string
	DisplayName    string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
	Optional       bool
}

// BusyInterval is a half-open busy range reported by the free/busy query.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// ListOptions filters ListEvents. Zero values are omitted from the request.
type ListOptions struct {
	Query      string
	TimeMin    time.Time
	TimeMax    time.Time
	MaxResults int64
}

// EventDraft is the input for creating an event.
type EventDraft struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// TimeZone is the IANA zone the event is displayed in.
	TimeZone   string
	Recurrence []string
	Attendees  []string
	// AddConference requests a Google Meet link.
	AddConference bool
}

// EventPatch lists the fields to change on an existing event. Nil fields are
// left untouched; a pointer to an empty string clears the field.
type EventPatch struct {
	Summary     *string
	Description *string
	Location    *string
	Start       *time.Time
	End         *time.Time
	TimeZone    string
	Recurrence  []string
	Attendees   []string
}

// IsEmpty reports whether the patch would change nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Summary == nil && p.Description == nil && p.Location == nil &&
		p.Start == nil && p.End == nil && p.Recurrence == nil && p.Attendees == nil
}

// SendUpdates controls which guests are notified about a change.
type SendUpdates string

const (
	SendUpdatesAll          SendUpdates = "all"
	SendUpdatesExternalOnly SendUpdates = "externalOnly"
	SendUpdatesNone         SendUpdates = "none"
)

// ParseSendUpdates validates s. The empty string means SendUpdatesNone.
func ParseSendUpdates(s string) (SendUpdates, error) {
	switch SendUpdates(s) {
	case "", SendUpdatesNone:
		return SendUpdatesNone, nil
	case SendUpdatesAll, SendUpdatesExternalOnly:
		return SendUpdates(s), nil
	}
	return "", fmt.Errorf("invalid sendUpdates value %q: must be one of all, externalOnly, none", s)
}

// toEvent converts a Google Calendar event to Event
func toEvent(ev *calendar.Event) Event {
	if ev == nil {
		return Event{}
	}

	out := Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Status:      ev.Status,
		HTMLLink:    ev.HtmlLink,
		Recurrence:  ev.Recurrence,
	}

	if ev.Start != nil {
		out.Start, out.AllDay = parseEventDateTime(ev.Start)
		out.TimeZone = ev.Start.TimeZone
	}
	if ev.End != nil {
		out.End, _ = parseEventDateTime(ev.End)
	}
	if ev.Organizer != nil {
		out.Organizer = ev.Organizer.Email
	}

	for _, a := range ev.Attendees {
		out.Attendees = append(out.Attendees, Attendee{
			Email:          a.Email,
			DisplayName:    a.DisplayName,
			ResponseStatus: a.ResponseStatus,
			Optional:       a.Optional,
		})
	}

	out.MeetLink = ev.HangoutLink
	if ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				out.MeetLink = ep.Uri
				break
			}
		}
	}

	return out
}

func parseEventDateTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err == nil {
			return t, false
		}
	}
	if dt.Date != "" {
		t, err := time.Parse(time.DateOnly, dt.Date)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatInstant renders t as UTC RFC 3339 with a "Z" suffix.
func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
