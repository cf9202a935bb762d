package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/calagent/internal/calendar"
	"github.com/teemow/calagent/internal/logging"
	"github.com/teemow/calagent/internal/nltime"
)

// ErrNothingToUpdate is returned by UpdateEvent when no field was provided.
var ErrNothingToUpdate = errors.New("details not provided to update the event")

// NoEventsFound is the single line returned for an empty search.
const NoEventsFound = "No events found."

// SearchRequest describes an event search. TimeMin and TimeMax accept
// RFC 3339 or natural language.
type SearchRequest struct {
	CalendarID string
	Query      string
	TimeMin    string
	TimeMax    string
	MaxResults int
}

// SearchEvents returns one line per matching event.
func (s *Service) SearchEvents(ctx context.Context, req SearchRequest) ([]string, error) {
	timeMin, err := s.parseTime(req.TimeMin)
	if err != nil {
		return nil, fmt.Errorf("invalid timeMin: %w", err)
	}
	timeMax, err := s.parseTime(req.TimeMax)
	if err != nil {
		return nil, fmt.Errorf("invalid timeMax: %w", err)
	}
	if !timeMin.IsZero() && !timeMax.IsZero() && timeMax.Before(timeMin) {
		return nil, fmt.Errorf("timeMax %s is before timeMin %s", s.formatInstant(timeMax), s.formatInstant(timeMin))
	}

	limit := req.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	events, err := s.gw.ListEvents(ctx, s.calendarID(req.CalendarID), calendar.ListOptions{
		Query:      strings.TrimSpace(req.Query),
		TimeMin:    timeMin,
		TimeMax:    timeMax,
		MaxResults: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	if len(events) == 0 {
		return []string{NoEventsFound}, nil
	}
	lines := make([]string, 0, len(events))
	for i := range events {
		lines = append(lines, s.formatEventLine(&events[i]))
	}
	return lines, nil
}

// ListEvents returns up to maxResults upcoming events of the default calendar.
func (s *Service) ListEvents(ctx context.Context, maxResults int) ([]string, error) {
	return s.SearchEvents(ctx, SearchRequest{
		TimeMin:    s.now().UTC().Format(time.RFC3339),
		MaxResults: maxResults,
	})
}

// CreateRequest describes a new event. Start and End accept RFC 3339 or
// natural language. Duration is used when End is empty. Recurrence is an
// RRULE string or a phrase such as "every monday for 5 weeks".
type CreateRequest struct {
	CalendarID    string
	Summary       string
	Start         string
	End           string
	Duration      string
	Location      string
	Description   string
	Recurrence    string
	Attendees     []string
	AddConference bool
}

// CreateEvent inserts an event and returns its link.
func (s *Service) CreateEvent(ctx context.Context, req CreateRequest) (string, error) {
	if strings.TrimSpace(req.Summary) == "" {
		return "", errors.New("summary is required")
	}
	if strings.TrimSpace(req.Start) == "" {
		return "", errors.New("start time is required")
	}

	start, end, err := s.eventTimes(req.Start, req.End, req.Duration)
	if err != nil {
		return "", err
	}

	draft := calendar.EventDraft{
		Summary:       req.Summary,
		Description:   strings.TrimSpace(req.Description),
		Location:      strings.TrimSpace(req.Location),
		Start:         start,
		End:           end,
		TimeZone:      s.tzName,
		Attendees:     req.Attendees,
		AddConference: req.AddConference,
	}

	var preview []time.Time
	if strings.TrimSpace(req.Recurrence) != "" {
		rule, err := s.recurrenceRule(req.Recurrence)
		if err != nil {
			return "", err
		}
		draft.Recurrence = []string{rule}
		preview, err = nltime.PreviewRecurrence(rule, start.In(s.loc), previewOccurrences)
		if err != nil {
			return "", err
		}
	}

	ev, err := s.gw.InsertEvent(ctx, s.calendarID(req.CalendarID), draft)
	if err != nil {
		return "", fmt.Errorf("couldn't create an event: %w", err)
	}
	s.logger.Info("event created", logging.Calendar(s.calendarID(req.CalendarID)), "event_id", ev.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "Event created: %s", ev.HTMLLink)
	if len(draft.Recurrence) > 0 {
		fmt.Fprintf(&b, "\nRecurrence: %s", draft.Recurrence[0])
		s.writeOccurrences(&b, preview)
	}
	if ev.MeetLink != "" {
		fmt.Fprintf(&b, "\nMeet: %s", ev.MeetLink)
	}
	return b.String(), nil
}

// GetEvent returns the details of one event in the acting timezone.
func (s *Service) GetEvent(ctx context.Context, calendarID, eventID string) (string, error) {
	if strings.TrimSpace(eventID) == "" {
		return "", errors.New("event ID is required")
	}
	ev, err := s.gw.GetEvent(ctx, s.calendarID(calendarID), eventID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch event: %w", err)
	}
	return s.formatEventDetails(ev), nil
}

// UpdateRequest describes a partial update. Nil pointers and empty time
// strings leave the field unchanged; a nil Attendees slice keeps the
// current guest list.
type UpdateRequest struct {
	CalendarID  string
	EventID     string
	Summary     *string
	Description *string
	Location    *string
	Start       string
	End         string
	// Duration sets the end when only Start is given.
	Duration string
	// Recurrence set to an empty string removes the recurrence.
	Recurrence  *string
	Attendees   []string
	SendUpdates string
}

// UpdateEvent patches only the provided fields.
func (s *Service) UpdateEvent(ctx context.Context, req UpdateRequest) (string, error) {
	if strings.TrimSpace(req.EventID) == "" {
		return "", errors.New("event ID is required")
	}
	send, err := calendar.ParseSendUpdates(req.SendUpdates)
	if err != nil {
		return "", err
	}

	patch := calendar.EventPatch{
		Summary:     req.Summary,
		Description: req.Description,
		Location:    req.Location,
		Attendees:   req.Attendees,
	}

	switch {
	case strings.TrimSpace(req.Start) != "":
		start, end, err := s.eventTimes(req.Start, req.End, req.Duration)
		if err != nil {
			return "", err
		}
		patch.Start, patch.End = &start, &end
		patch.TimeZone = s.tzName
	case strings.TrimSpace(req.End) != "":
		end, err := s.parseTime(req.End)
		if err != nil {
			return "", fmt.Errorf("invalid end time: %w", err)
		}
		patch.End = &end
		patch.TimeZone = s.tzName
	}

	if req.Recurrence != nil {
		patch.Recurrence = []string{}
		if strings.TrimSpace(*req.Recurrence) != "" {
			rule, err := s.recurrenceRule(*req.Recurrence)
			if err != nil {
				return "", err
			}
			patch.Recurrence = []string{rule}
		}
	}

	if patch.IsEmpty() {
		return "", ErrNothingToUpdate
	}

	ev, err := s.gw.PatchEvent(ctx, s.calendarID(req.CalendarID), req.EventID, patch, send)
	if err != nil {
		return "", fmt.Errorf("couldn't update event: %w", err)
	}
	return fmt.Sprintf("Event updated: %s", ev.HTMLLink), nil
}

// DeleteEvent removes an event. sendUpdates is one of all, externalOnly or
// none; empty means none.
func (s *Service) DeleteEvent(ctx context.Context, calendarID, eventID, sendUpdates string) (string, error) {
	if strings.TrimSpace(eventID) == "" {
		return "", errors.New("event ID is required")
	}
	send, err := calendar.ParseSendUpdates(sendUpdates)
	if err != nil {
		return "", err
	}
	if err := s.gw.DeleteEvent(ctx, s.calendarID(calendarID), eventID, send); err != nil {
		return "", fmt.Errorf("couldn't delete event: %w", err)
	}
	return "Event deleted successfully.", nil
}

// ExportEventICS renders one event as an iCalendar document.
func (s *Service) ExportEventICS(ctx context.Context, calendarID, eventID string) (string, error) {
	if strings.TrimSpace(eventID) == "" {
		return "", errors.New("event ID is required")
	}
	ev, err := s.gw.GetEvent(ctx, s.calendarID(calendarID), eventID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch event: %w", err)
	}
	var buf bytes.Buffer
	if err := calendar.EncodeICS(&buf, []calendar.Event{*ev}, s.now()); err != nil {
		return "", fmt.Errorf("failed to encode event: %w", err)
	}
	return buf.String(), nil
}

// eventTimes resolves a start and an end. Without an end the event lasts
// duration, or nltime.DefaultEventLength when duration is empty.
func (s *Service) eventTimes(startText, endText, duration string) (time.Time, time.Time, error) {
	start, err := s.parseTime(startText)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}

	var end time.Time
	if strings.TrimSpace(endText) != "" {
		end, err = s.parseTime(endText)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
		}
	} else {
		length, err := nltime.ParseLength(duration)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = start.Add(length)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end time %s must be after start time %s", s.formatInstant(end), s.formatInstant(start))
	}
	return start, end, nil
}

// recurrenceRule passes RRULE strings through after validation and parses
// anything else as a phrase.
func (s *Service) recurrenceRule(text string) (string, error) {
	text = strings.TrimSpace(text)
	if nltime.IsRule(text) {
		if _, err := nltime.PreviewRecurrence(text, s.now(), 1); err != nil {
			return "", err
		}
		return text, nil
	}
	return nltime.ParseRecurrence(text)
}
