package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calagent/internal/calendar"
	"github.com/teemow/calagent/internal/logging"
	"github.com/teemow/calagent/internal/nltime"
)

var testLocation = time.FixedZone("UTC+2", 2*60*60)

// Monday 2026-10-19 08:00 in testLocation.
var testNow = time.Date(2026, 10, 19, 8, 0, 0, 0, testLocation)

type freeBusyCall struct {
	timeMin, timeMax time.Time
	calendars        []string
}

type patchCall struct {
	calendarID, eventID string
	patch               calendar.EventPatch
	send                calendar.SendUpdates
}

type fakeGateway struct {
	events []calendar.Event
	event  *calendar.Event
	busy   []calendar.BusyInterval
	err    error

	listCalendar string
	listOpts     calendar.ListOptions
	inserted     *calendar.EventDraft
	patched      *patchCall
	deleted      []string
	deleteSend   calendar.SendUpdates
	freeBusy     *freeBusyCall
}

var _ calendar.Gateway = (*fakeGateway)(nil)

func (f *fakeGateway) ListEvents(_ context.Context, calendarID string, opts calendar.ListOptions) ([]calendar.Event, error) {
	f.listCalendar = calendarID
	f.listOpts = opts
	return f.events, f.err
}

func (f *fakeGateway) GetEvent(_ context.Context, _, eventID string) (*calendar.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.event == nil || f.event.ID != eventID {
		return nil, &calendar.GatewayError{Op: "get event", Err: errors.New("not found")}
	}
	return f.event, nil
}

func (f *fakeGateway) InsertEvent(_ context.Context, _ string, draft calendar.EventDraft) (*calendar.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inserted = &draft
	return &calendar.Event{
		ID:       "created-1",
		Summary:  draft.Summary,
		HTMLLink: "https://calendar.google.com/event?eid=created-1",
	}, nil
}

func (f *fakeGateway) PatchEvent(_ context.Context, calendarID, eventID string, patch calendar.EventPatch, send calendar.SendUpdates) (*calendar.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.patched = &patchCall{calendarID: calendarID, eventID: eventID, patch: patch, send: send}
	return &calendar.Event{ID: eventID, HTMLLink: "https://calendar.google.com/event?eid=" + eventID}, nil
}

func (f *fakeGateway) DeleteEvent(_ context.Context, calendarID, eventID string, send calendar.SendUpdates) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, calendarID+"/"+eventID)
	f.deleteSend = send
	return nil
}

func (f *fakeGateway) QueryFreeBusy(_ context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]calendar.BusyInterval, error) {
	f.freeBusy = &freeBusyCall{timeMin: timeMin, timeMax: timeMax, calendars: calendarIDs}
	return f.busy, f.err
}

func newTestService(gw calendar.Gateway) *Service {
	resolver := nltime.NewResolver(testLocation, logging.Discard())
	resolver.Now = func() time.Time { return testNow }
	resolver.Strategies = []nltime.Strategy{nltime.NextWeekdayStrategy{}}

	return New(Config{
		Gateway:      gw,
		Resolver:     resolver,
		Location:     testLocation,
		TimezoneName: "Europe/Test",
		Now:          func() time.Time { return testNow },
		Logger:       logging.Discard(),
	})
}

func local(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, testLocation)
}

func TestSearchEvents(t *testing.T) {
	gw := &fakeGateway{events: []calendar.Event{
		{ID: "ev1", Summary: "Standup", Start: time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC)},
		{ID: "ev2", Summary: "Holiday", AllDay: true, Start: time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newTestService(gw)

	lines, err := svc.SearchEvents(context.Background(), SearchRequest{
		Query:   "  standup ",
		TimeMin: "2026-10-20T00:00:00Z",
		TimeMax: "next friday",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2026-10-20 10:00 AM UTC+2 - Standup - ID: ev1",
		"2026-10-21 - Holiday - ID: ev2",
	}, lines)

	assert.Equal(t, "primary", gw.listCalendar)
	assert.Equal(t, "standup", gw.listOpts.Query)
	assert.Equal(t, int64(DefaultMaxResults), gw.listOpts.MaxResults)
	assert.True(t, gw.listOpts.TimeMin.Equal(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)))
	assert.True(t, gw.listOpts.TimeMax.Equal(local(23, 9, 0)), "got %v", gw.listOpts.TimeMax)
}

func TestSearchEvents_Empty(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	lines, err := svc.SearchEvents(context.Background(), SearchRequest{CalendarID: "team@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{NoEventsFound}, lines)
}

func TestSearchEvents_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
		gw   *fakeGateway
	}{
		{name: "unparseable timeMin", req: SearchRequest{TimeMin: "whenever"}, gw: &fakeGateway{}},
		{name: "inverted range", req: SearchRequest{TimeMin: "2026-10-22T00:00:00Z", TimeMax: "2026-10-21T00:00:00Z"}, gw: &fakeGateway{}},
		{name: "gateway failure", gw: &fakeGateway{err: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(tt.gw).SearchEvents(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestListEvents(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw)

	_, err := svc.ListEvents(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, gw.listOpts.TimeMin.Equal(testNow))
	assert.Equal(t, int64(5), gw.listOpts.MaxResults)
}

func TestCreateEvent(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw)

	out, err := svc.CreateEvent(context.Background(), CreateRequest{
		Summary:     "Planning",
		Start:       "next monday at 10 AM",
		Duration:    "for 30 minutes",
		Location:    " Room 1 ",
		Recurrence:  "every monday for 3 weeks",
		Attendees:   []string{"bob@example.com"},
		Description: "Quarterly",
	})
	require.NoError(t, err)

	require.NotNil(t, gw.inserted)
	assert.True(t, gw.inserted.Start.Equal(local(26, 10, 0)))
	assert.Equal(t, time.UTC, gw.inserted.Start.Location())
	assert.Equal(t, 30*time.Minute, gw.inserted.End.Sub(gw.inserted.Start))
	assert.Equal(t, "Europe/Test", gw.inserted.TimeZone)
	assert.Equal(t, "Room 1", gw.inserted.Location)
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=3"}, gw.inserted.Recurrence)
	assert.Equal(t, []string{"bob@example.com"}, gw.inserted.Attendees)

	assert.Equal(t, "Event created: https://calendar.google.com/event?eid=created-1\n"+
		"Recurrence: RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=3\n"+
		"Next occurrences:\n"+
		"  - 2026-10-26 10:00 AM UTC+2\n"+
		"  - 2026-11-02 10:00 AM UTC+2\n"+
		"  - 2026-11-09 10:00 AM UTC+2", out)
}

func TestCreateEvent_ExplicitTimesAndRule(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw)

	out, err := svc.CreateEvent(context.Background(), CreateRequest{
		Summary:    "Review",
		Start:      "2026-10-21T12:00:00Z",
		End:        "2026-10-21T12:45:00Z",
		Recurrence: "RRULE:FREQ=DAILY;COUNT=2",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"RRULE:FREQ=DAILY;COUNT=2"}, gw.inserted.Recurrence)
	assert.Equal(t, 45*time.Minute, gw.inserted.End.Sub(gw.inserted.Start))
	assert.Contains(t, out, "  - 2026-10-22 02:00 PM UTC+2")
}

func TestCreateEvent_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  CreateRequest
	}{
		{name: "missing summary", req: CreateRequest{Start: "next monday"}},
		{name: "missing start", req: CreateRequest{Summary: "x"}},
		{name: "end before start", req: CreateRequest{Summary: "x", Start: "2026-10-21T12:00:00Z", End: "2026-10-21T11:00:00Z"}},
		{name: "bad duration", req: CreateRequest{Summary: "x", Start: "next monday", Duration: "a while"}},
		{name: "bad recurrence", req: CreateRequest{Summary: "x", Start: "next monday", Recurrence: "sometimes"}},
		{name: "bad rule", req: CreateRequest{Summary: "x", Start: "next monday", Recurrence: "RRULE:FREQ=NEVER"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			_, err := newTestService(gw).CreateEvent(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected an error")
			}
			if gw.inserted != nil {
				t.Error("gateway should not be called for invalid input")
			}
		})
	}
}

func TestCreateEvent_ParseErrorCarriesInput(t *testing.T) {
	_, err := newTestService(&fakeGateway{}).CreateEvent(context.Background(), CreateRequest{
		Summary: "x",
		Start:   "someday soon",
	})
	var perr *nltime.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "someday soon", perr.Input)
}

func TestGetEvent(t *testing.T) {
	gw := &fakeGateway{event: &calendar.Event{
		ID:        "ev1",
		Summary:   "Design review",
		Start:     time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 10, 20, 13, 0, 0, 0, time.UTC),
		Location:  "Room 2",
		HTMLLink:  "https://calendar.google.com/event?eid=ev1",
		Organizer: "alice@example.com",
		Attendees: []calendar.Attendee{
			{Email: "bob@example.com", DisplayName: "Bob", ResponseStatus: "accepted"},
			{Email: "carol@example.com", Optional: true},
		},
	}}

	out, err := newTestService(gw).GetEvent(context.Background(), "", "ev1")
	require.NoError(t, err)
	assert.Equal(t, "Event: Design review\n"+
		"ID: ev1\n"+
		"Start: 2026-10-20 02:00 PM UTC+2\n"+
		"End: 2026-10-20 03:00 PM UTC+2\n"+
		"Location: Room 2\n"+
		"Organizer: alice@example.com\n"+
		"Attendees:\n"+
		"  - Bob <bob@example.com> (accepted)\n"+
		"  - carol@example.com (optional)\n"+
		"Link: https://calendar.google.com/event?eid=ev1", out)

	_, err = newTestService(gw).GetEvent(context.Background(), "", "missing")
	var gerr *calendar.GatewayError
	assert.ErrorAs(t, err, &gerr)
}

func TestUpdateEvent(t *testing.T) {
	summary := "Renamed"
	empty := ""

	t.Run("only provided fields", func(t *testing.T) {
		gw := &fakeGateway{}
		out, err := newTestService(gw).UpdateEvent(context.Background(), UpdateRequest{
			EventID: "ev1",
			Summary: &summary,
		})
		require.NoError(t, err)
		assert.Equal(t, "Event updated: https://calendar.google.com/event?eid=ev1", out)
		require.NotNil(t, gw.patched)
		assert.Equal(t, "primary", gw.patched.calendarID)
		assert.Equal(t, calendar.SendUpdatesNone, gw.patched.send)
		assert.Equal(t, &summary, gw.patched.patch.Summary)
		assert.Nil(t, gw.patched.patch.Start)
		assert.Nil(t, gw.patched.patch.End)
		assert.Nil(t, gw.patched.patch.Description)
		assert.Nil(t, gw.patched.patch.Recurrence)
		assert.Nil(t, gw.patched.patch.Attendees)
	})

	t.Run("start without end keeps default length", func(t *testing.T) {
		gw := &fakeGateway{}
		_, err := newTestService(gw).UpdateEvent(context.Background(), UpdateRequest{
			EventID:     "ev1",
			Start:       "next tuesday at 3pm",
			SendUpdates: "all",
		})
		require.NoError(t, err)
		require.NotNil(t, gw.patched.patch.Start)
		require.NotNil(t, gw.patched.patch.End)
		assert.True(t, gw.patched.patch.Start.Equal(local(20, 15, 0)))
		assert.Equal(t, nltime.DefaultEventLength, gw.patched.patch.End.Sub(*gw.patched.patch.Start))
		assert.Equal(t, "Europe/Test", gw.patched.patch.TimeZone)
		assert.Equal(t, calendar.SendUpdatesAll, gw.patched.send)
	})

	t.Run("empty recurrence clears it", func(t *testing.T) {
		gw := &fakeGateway{}
		_, err := newTestService(gw).UpdateEvent(context.Background(), UpdateRequest{
			EventID:    "ev1",
			Recurrence: &empty,
		})
		require.NoError(t, err)
		assert.NotNil(t, gw.patched.patch.Recurrence)
		assert.Empty(t, gw.patched.patch.Recurrence)
	})

	t.Run("nothing to update", func(t *testing.T) {
		gw := &fakeGateway{}
		_, err := newTestService(gw).UpdateEvent(context.Background(), UpdateRequest{EventID: "ev1"})
		assert.ErrorIs(t, err, ErrNothingToUpdate)
		assert.Nil(t, gw.patched)
	})

	t.Run("invalid sendUpdates", func(t *testing.T) {
		gw := &fakeGateway{}
		_, err := newTestService(gw).UpdateEvent(context.Background(), UpdateRequest{
			EventID:     "ev1",
			Summary:     &summary,
			SendUpdates: "everyone",
		})
		assert.Error(t, err)
		assert.Nil(t, gw.patched)
	})
}

func TestDeleteEvent(t *testing.T) {
	gw := &fakeGateway{}
	out, err := newTestService(gw).DeleteEvent(context.Background(), "team", "ev1", "externalOnly")
	require.NoError(t, err)
	assert.Equal(t, "Event deleted successfully.", out)
	assert.Equal(t, []string{"team/ev1"}, gw.deleted)
	assert.Equal(t, calendar.SendUpdatesExternalOnly, gw.deleteSend)

	_, err = newTestService(&fakeGateway{err: errors.New("boom")}).DeleteEvent(context.Background(), "", "ev1", "")
	assert.Error(t, err)
}

func TestSuggestMeetingTimes(t *testing.T) {
	gw := &fakeGateway{busy: []calendar.BusyInterval{
		{Start: local(26, 10, 0).UTC(), End: local(26, 11, 0).UTC()},
	}}
	svc := newTestService(gw)

	lines, err := svc.SuggestMeetingTimes(context.Background(), SuggestRequest{
		Date:          "next monday",
		PreferredTime: "morning",
		Attendees:     []string{"bob@example.com", "primary", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2026-10-26 09:00 AM UTC+2 - 10:00 AM UTC+2",
		"2026-10-26 11:00 AM UTC+2 - 12:00 PM UTC+2",
		"2026-10-26 11:30 AM UTC+2 - 12:30 PM UTC+2",
	}, lines)

	require.NotNil(t, gw.freeBusy)
	assert.True(t, gw.freeBusy.timeMin.Equal(local(26, 0, 0)))
	assert.True(t, gw.freeBusy.timeMax.Equal(local(27, 0, 0)))
	assert.Equal(t, []string{"primary", "bob@example.com"}, gw.freeBusy.calendars)
}

func TestSuggestMeetingTimes_NoSlots(t *testing.T) {
	gw := &fakeGateway{busy: []calendar.BusyInterval{
		{Start: local(26, 0, 0), End: local(27, 0, 0)},
	}}

	lines, err := newTestService(gw).SuggestMeetingTimes(context.Background(), SuggestRequest{Date: "next monday"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"No available slots found for a meeting of 1 hour on 2026-10-26. Would you like suggestions for a different day or duration?",
	}, lines)
}

func TestSuggestMeetingTimes_Limit(t *testing.T) {
	lines, err := newTestService(&fakeGateway{}).SuggestMeetingTimes(context.Background(), SuggestRequest{
		Date:           "next friday",
		Duration:       "45 minutes",
		PreferredTime:  "2 PM to 4 PM",
		MaxSuggestions: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2026-10-23 02:00 PM UTC+2 - 02:45 PM UTC+2",
		"2026-10-23 02:30 PM UTC+2 - 03:15 PM UTC+2",
		"2026-10-23 03:00 PM UTC+2 - 03:45 PM UTC+2",
		"2026-10-23 03:30 PM UTC+2 - 04:15 PM UTC+2",
		"2026-10-23 04:00 PM UTC+2 - 04:45 PM UTC+2",
	}, lines)
}

func TestSuggestMeetingTimes_Errors(t *testing.T) {
	_, err := newTestService(&fakeGateway{}).SuggestMeetingTimes(context.Background(), SuggestRequest{Date: "at some point"})
	var perr *nltime.ParseError
	assert.ErrorAs(t, err, &perr)

	boom := errors.New("boom")
	_, err = newTestService(&fakeGateway{err: boom}).SuggestMeetingTimes(context.Background(), SuggestRequest{Date: "next monday"})
	assert.ErrorIs(t, err, boom)
}

func TestResolveDateTime(t *testing.T) {
	out, err := newTestService(&fakeGateway{}).ResolveDateTime("next monday at 10 AM", "for 1 hour", "morning")
	require.NoError(t, err)
	assert.Equal(t, "Start (UTC): 2026-10-26T08:00:00Z\n"+
		"End (UTC): 2026-10-26T09:00:00Z\n"+
		"Start (Europe/Test): 2026-10-26 10:00 AM UTC+2\n"+
		"End (Europe/Test): 2026-10-26 11:00 AM UTC+2\n"+
		"Preferred window: 09:00-12:00\n"+
		"Matched by: next-weekday", out)
}

func TestResolveRecurrence(t *testing.T) {
	out, err := newTestService(&fakeGateway{}).ResolveRecurrence("every day for 2 months", "2026-11-03T09:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "Rule: RRULE:FREQ=DAILY;COUNT=8\n"+
		"Next occurrences:\n"+
		"  - 2026-11-03 11:00 AM UTC+2\n"+
		"  - 2026-11-04 11:00 AM UTC+2\n"+
		"  - 2026-11-05 11:00 AM UTC+2", out)

	_, err = newTestService(&fakeGateway{}).ResolveRecurrence("now and then", "")
	var perr *nltime.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestExportEventICS(t *testing.T) {
	gw := &fakeGateway{event: &calendar.Event{
		ID:      "ev1",
		Summary: "Design review",
		Start:   time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 10, 20, 13, 0, 0, 0, time.UTC),
	}}

	out, err := newTestService(gw).ExportEventICS(context.Background(), "", "ev1")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Design review")
	assert.Contains(t, out, "UID:ev1@google.com")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, SplitList(" a@example.com, ,b@example.com,"))
	assert.Nil(t, SplitList(""))
}
