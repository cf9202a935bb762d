package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

const icsProductID = "-//calagent//Calendar Export//EN"

// EncodeICS writes events as a single iCalendar document. stamp is used for
// DTSTAMP.
func EncodeICS(w io.Writer, events []Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)

	for i := range events {
		cal.Children = append(cal.Children, toVEvent(&events[i], stamp))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return nil
}

func toVEvent(ev *Event, stamp time.Time) *ical.Component {
	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, ev.ID+"@google.com")
	vevent.Props.SetText(ical.PropSummary, ev.Summary)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())

	if ev.AllDay {
		vevent.Props.SetDate(ical.PropDateTimeStart, ev.Start)
		if !ev.End.IsZero() {
			vevent.Props.SetDate(ical.PropDateTimeEnd, ev.End)
		}
	} else {
		vevent.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
		if !ev.End.IsZero() {
			vevent.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.UTC())
		}
	}

	if ev.Description != "" {
		vevent.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		vevent.Props.SetText(ical.PropLocation, ev.Location)
	}
	if ev.HTMLLink != "" {
		vevent.Props.SetText(ical.PropURL, ev.HTMLLink)
	}
	if ev.Organizer != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.Value = "mailto:" + ev.Organizer
		vevent.Props.Add(p)
	}
	for _, a := range ev.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + a.Email
		vevent.Props.Add(p)
	}

	// Recurrence lines are already in iCalendar syntax; SetText would escape
	// their separators.
	for _, line := range ev.Recurrence {
		head, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields := strings.Split(head, ";")
		p := ical.NewProp(strings.ToUpper(fields[0]))
		for _, param := range fields[1:] {
			if k, v, ok := strings.Cut(param, "="); ok {
				p.Params.Set(k, v)
			}
		}
		p.Value = value
		vevent.Props.Add(p)
	}

	return vevent.Component
}
