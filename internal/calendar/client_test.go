package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	status, response := f.status, f.response
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, response)
}

func (f *fakeAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "expected a request")
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := calendar.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return NewClientWithService(svc, "default")
}

func TestListEvents(t *testing.T) {
	api := &fakeAPI{response: `{"items":[
		{"id":"ev1","summary":"Standup","start":{"dateTime":"2026-10-26T14:00:00Z"},"end":{"dateTime":"2026-10-26T14:30:00Z"},"htmlLink":"https://calendar.example/ev1"},
		{"id":"ev2","summary":"Holiday","start":{"date":"2026-10-27"},"end":{"date":"2026-10-28"}}
	]}`}
	client := newTestClient(t, api)

	loc := time.FixedZone("UTC-4", -4*60*60)
	events, err := client.ListEvents(context.Background(), "primary", ListOptions{
		Query:      "standup",
		TimeMin:    time.Date(2026, 10, 26, 9, 0, 0, 0, loc),
		TimeMax:    time.Date(2026, 10, 27, 9, 0, 0, 0, loc),
		MaxResults: 5,
	})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "ev1", events[0].ID)
	assert.True(t, events[0].Start.Equal(time.Date(2026, 10, 26, 14, 0, 0, 0, time.UTC)))
	assert.False(t, events[0].AllDay)
	assert.Equal(t, "https://calendar.example/ev1", events[0].HTMLLink)
	assert.True(t, events[1].AllDay)

	req := api.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/calendars/primary/events", req.Path)
	assert.Equal(t, "2026-10-26T13:00:00Z", req.Query.Get("timeMin"))
	assert.Equal(t, "2026-10-27T13:00:00Z", req.Query.Get("timeMax"))
	assert.Equal(t, "standup", req.Query.Get("q"))
	assert.Equal(t, "5", req.Query.Get("maxResults"))
	assert.Equal(t, "startTime", req.Query.Get("orderBy"))
	assert.Equal(t, "true", req.Query.Get("singleEvents"))
}

func TestInsertEvent(t *testing.T) {
	api := &fakeAPI{response: `{"id":"new1","summary":"Planning","htmlLink":"https://calendar.example/new1",
		"conferenceData":{"entryPoints":[{"entryPointType":"video","uri":"https://meet.example/abc"}]}}`}
	client := newTestClient(t, api)

	loc := time.FixedZone("UTC+2", 2*60*60)
	ev, err := client.InsertEvent(context.Background(), "primary", EventDraft{
		Summary:       "Planning",
		Start:         time.Date(2026, 10, 26, 10, 0, 0, 0, loc),
		End:           time.Date(2026, 10, 26, 11, 0, 0, 0, loc),
		TimeZone:      "Europe/Berlin",
		Recurrence:    []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=4"},
		Attendees:     []string{"a@example.com"},
		AddConference: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "new1", ev.ID)
	assert.Equal(t, "https://meet.example/abc", ev.MeetLink)

	req := api.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "1", req.Query.Get("conferenceDataVersion"))

	start := req.Body["start"].(map[string]any)
	assert.Equal(t, "2026-10-26T08:00:00Z", start["dateTime"])
	assert.Equal(t, "Europe/Berlin", start["timeZone"])
	assert.Equal(t, []any{"RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=4"}, req.Body["recurrence"])

	conf := req.Body["conferenceData"].(map[string]any)
	create := conf["createRequest"].(map[string]any)
	assert.NotEmpty(t, create["requestId"])
}

func TestPatchEvent_SendsOnlyProvidedFields(t *testing.T) {
	api := &fakeAPI{response: `{"id":"ev1","summary":"Renamed","htmlLink":"https://calendar.example/ev1"}`}
	client := newTestClient(t, api)

	summary := "Renamed"
	empty := ""
	ev, err := client.PatchEvent(context.Background(), "primary", "ev1", EventPatch{
		Summary:  &summary,
		Location: &empty,
	}, SendUpdatesAll)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", ev.Summary)

	req := api.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/calendars/primary/events/ev1", req.Path)
	assert.Equal(t, "all", req.Query.Get("sendUpdates"))
	assert.Equal(t, map[string]any{"summary": "Renamed", "location": ""}, req.Body)
}

func TestPatchEvent_Times(t *testing.T) {
	api := &fakeAPI{response: `{"id":"ev1"}`}
	client := newTestClient(t, api)

	start := time.Date(2026, 10, 26, 15, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	_, err := client.PatchEvent(context.Background(), "primary", "ev1", EventPatch{Start: &start, End: &end, TimeZone: "UTC"}, SendUpdatesNone)
	require.NoError(t, err)

	req := api.last(t)
	assert.Equal(t, "none", req.Query.Get("sendUpdates"))
	assert.Equal(t, "2026-10-26T15:00:00Z", req.Body["start"].(map[string]any)["dateTime"])
	assert.Equal(t, "2026-10-26T16:00:00Z", req.Body["end"].(map[string]any)["dateTime"])
	assert.NotContains(t, req.Body, "summary")
}

func TestDeleteEvent(t *testing.T) {
	api := &fakeAPI{status: http.StatusNoContent}
	client := newTestClient(t, api)

	require.NoError(t, client.DeleteEvent(context.Background(), "primary", "ev1", SendUpdatesExternalOnly))

	req := api.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/calendars/primary/events/ev1", req.Path)
	assert.Equal(t, "externalOnly", req.Query.Get("sendUpdates"))
}

func TestGetEvent_NotFound(t *testing.T) {
	api := &fakeAPI{status: http.StatusNotFound, response: `{"error":{"code":404,"message":"Not Found"}}`}
	client := newTestClient(t, api)

	_, err := client.GetEvent(context.Background(), "primary", "missing")
	require.Error(t, err)

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "get event", gwErr.Op)
	assert.True(t, IsNotFound(err))
}

func TestQueryFreeBusy(t *testing.T) {
	api := &fakeAPI{response: `{"calendars":{
		"primary":{"busy":[{"start":"2026-10-26T15:00:00Z","end":"2026-10-26T16:00:00Z"}]},
		"b@example.com":{"busy":[{"start":"2026-10-26T13:00:00Z","end":"2026-10-26T14:00:00Z"}]}
	}}`}
	client := newTestClient(t, api)

	timeMin := time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)
	busy, err := client.QueryFreeBusy(context.Background(), timeMin, timeMin.AddDate(0, 0, 1), []string{"primary", "b@example.com"})
	require.NoError(t, err)
	require.Len(t, busy, 2)
	assert.True(t, busy[0].Start.Before(busy[1].Start), "busy intervals must be sorted")
	assert.Equal(t, 13, busy[0].Start.Hour())

	req := api.last(t)
	assert.Equal(t, "/freeBusy", req.Path)
	assert.Equal(t, "2026-10-26T00:00:00Z", req.Body["timeMin"])
	assert.Equal(t, "2026-10-27T00:00:00Z", req.Body["timeMax"])
	assert.Len(t, req.Body["items"], 2)
}

func TestQueryFreeBusy_CalendarError(t *testing.T) {
	api := &fakeAPI{response: `{"calendars":{"x@example.com":{"errors":[{"domain":"global","reason":"notFound"}]}}}`}
	client := newTestClient(t, api)

	now := time.Now()
	_, err := client.QueryFreeBusy(context.Background(), now, now.Add(time.Hour), []string{"x@example.com"})
	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Contains(t, err.Error(), "notFound")
}

func TestParseSendUpdates(t *testing.T) {
	tests := []struct {
		in      string
		want    SendUpdates
		wantErr bool
	}{
		{in: "", want: SendUpdatesNone},
		{in: "none", want: SendUpdatesNone},
		{in: "all", want: SendUpdatesAll},
		{in: "externalOnly", want: SendUpdatesExternalOnly},
		{in: "everyone", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSendUpdates(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventPatchIsEmpty(t *testing.T) {
	assert.True(t, EventPatch{}.IsEmpty())
	assert.True(t, EventPatch{TimeZone: "UTC"}.IsEmpty())

	s := "x"
	assert.False(t, EventPatch{Description: &s}.IsEmpty())
	assert.False(t, EventPatch{Attendees: []string{}}.IsEmpty())
}
