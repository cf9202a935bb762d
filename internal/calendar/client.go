package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/calagent/internal/google"
	"github.com/teemow/calagent/internal/instrumentation"
)

// Gateway is the set of Calendar operations the assistant needs.
type Gateway interface {
	ListEvents(ctx context.Context, calendarID string, opts ListOptions) ([]Event, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error)
	InsertEvent(ctx context.Context, calendarID string, draft EventDraft) (*Event, error)
	PatchEvent(ctx context.Context, calendarID, eventID string, patch EventPatch, send SendUpdates) (*Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string, send SendUpdates) error
	QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]BusyInterval, error)
}

const serviceName = "calendar"

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	account string // The account this client is associated with
}

var _ Gateway = (*Client)(nil)

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// NewClientForAccountWithProvider creates a Calendar client for account
// using a token from tokenProvider.
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider, conf *oauth2.Config) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(google.NewHTTPClient(ctx, conf, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return NewClientWithService(svc, account), nil
}

// NewClientWithService wraps an existing service, e.g. one pointed at a test
// server.
func NewClientWithService(svc *calendar.Service, account string) *Client {
	return &Client{svc: svc, account: account}
}

func (c *Client) trace(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, serviceName, op)
	return ctx, func(err error) {
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()
	}
}

// ListEvents lists single (expanded) events ordered by start time.
func (c *Client) ListEvents(ctx context.Context, calendarID string, opts ListOptions) (events []Event, err error) {
	ctx, done := c.trace(ctx, "list")
	defer func() { done(err) }()

	call := c.svc.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime")
	if !opts.TimeMin.IsZero() {
		call = call.TimeMin(formatInstant(opts.TimeMin))
	}
	if !opts.TimeMax.IsZero() {
		call = call.TimeMax(formatInstant(opts.TimeMax))
	}
	if opts.Query != "" {
		call = call.Q(opts.Query)
	}
	if opts.MaxResults > 0 {
		call = call.MaxResults(opts.MaxResults)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, &GatewayError{Op: "list events", Err: err}
	}

	events = make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, toEvent(item))
	}
	return events, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (_ *Event, err error) {
	ctx, done := c.trace(ctx, "get")
	defer func() { done(err) }()

	item, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, &GatewayError{Op: "get event", Err: err}
	}
	ev := toEvent(item)
	return &ev, nil
}

// InsertEvent creates an event from draft.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, draft EventDraft) (_ *Event, err error) {
	ctx, done := c.trace(ctx, "create")
	defer func() { done(err) }()

	event := &calendar.Event{
		Summary:     draft.Summary,
		Description: draft.Description,
		Location:    draft.Location,
		Start:       eventDateTime(draft.Start, draft.TimeZone),
		End:         eventDateTime(draft.End, draft.TimeZone),
		Recurrence:  draft.Recurrence,
		Attendees:   eventAttendees(draft.Attendees),
	}

	call := c.svc.Events.Insert(calendarID, event)
	if draft.AddConference {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		}
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Context(ctx).Do()
	if err != nil {
		return nil, &GatewayError{Op: "create event", Err: err}
	}
	ev := toEvent(created)
	return &ev, nil
}

// PatchEvent changes only the fields set in patch.
func (c *Client) PatchEvent(ctx context.Context, calendarID, eventID string, patch EventPatch, send SendUpdates) (_ *Event, err error) {
	ctx, done := c.trace(ctx, "update")
	defer func() { done(err) }()

	event := &calendar.Event{}
	if patch.Summary != nil {
		event.Summary = *patch.Summary
		event.ForceSendFields = append(event.ForceSendFields, "Summary")
	}
	if patch.Description != nil {
		event.Description = *patch.Description
		event.ForceSendFields = append(event.ForceSendFields, "Description")
	}
	if patch.Location != nil {
		event.Location = *patch.Location
		event.ForceSendFields = append(event.ForceSendFields, "Location")
	}
	if patch.Start != nil {
		event.Start = eventDateTime(*patch.Start, patch.TimeZone)
	}
	if patch.End != nil {
		event.End = eventDateTime(*patch.End, patch.TimeZone)
	}
	if patch.Recurrence != nil {
		event.Recurrence = patch.Recurrence
		event.ForceSendFields = append(event.ForceSendFields, "Recurrence")
	}
	if patch.Attendees != nil {
		event.Attendees = eventAttendees(patch.Attendees)
		event.ForceSendFields = append(event.ForceSendFields, "Attendees")
	}

	call := c.svc.Events.Patch(calendarID, eventID, event)
	if send != "" {
		call = call.SendUpdates(string(send))
	}
	updated, err := call.Context(ctx).Do()
	if err != nil {
		return nil, &GatewayError{Op: "update event", Err: err}
	}
	ev := toEvent(updated)
	return &ev, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string, send SendUpdates) (err error) {
	ctx, done := c.trace(ctx, "delete")
	defer func() { done(err) }()

	call := c.svc.Events.Delete(calendarID, eventID)
	if send != "" {
		call = call.SendUpdates(string(send))
	}
	if err := call.Context(ctx).Do(); err != nil {
		return &GatewayError{Op: "delete event", Err: err}
	}
	return nil
}

// QueryFreeBusy returns the busy intervals of all calendars merged and
// sorted by start. A per-calendar error fails the whole query.
func (c *Client) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) (busy []BusyInterval, err error) {
	ctx, done := c.trace(ctx, "freebusy")
	defer func() { done(err) }()

	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: formatInstant(timeMin),
		TimeMax: formatInstant(timeMax),
		Items:   items,
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, &GatewayError{Op: "query free/busy", Err: err}
	}

	for calID, cal := range result.Calendars {
		if len(cal.Errors) > 0 {
			return nil, &GatewayError{Op: "query free/busy", Err: fmt.Errorf("calendar %s: %s", calID, cal.Errors[0].Reason)}
		}
		for _, b := range cal.Busy {
			start, err := time.Parse(time.RFC3339, b.Start)
			if err != nil {
				return nil, &GatewayError{Op: "query free/busy", Err: fmt.Errorf("invalid busy start %q: %w", b.Start, err)}
			}
			end, err := time.Parse(time.RFC3339, b.End)
			if err != nil {
				return nil, &GatewayError{Op: "query free/busy", Err: fmt.Errorf("invalid busy end %q: %w", b.End, err)}
			}
			busy = append(busy, BusyInterval{Start: start, End: end})
		}
	}

	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return busy, nil
}

func eventDateTime(t time.Time, tz string) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: formatInstant(t),
		TimeZone: tz,
	}
}

func eventAttendees(emails []string) []*calendar.EventAttendee {
	if emails == nil {
		return nil
	}
	out := make([]*calendar.EventAttendee, 0, len(emails))
	for _, email := range emails {
		out = append(out, &calendar.EventAttendee{Email: email})
	}
	return out
}
