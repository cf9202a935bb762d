package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calagent/internal/assistant"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/server"
	"github.com/teemow/calagent/internal/tools/common"
)

// RegisterEventTools registers event-related tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Search events tool (read-only, always available)
	searchEventsTool := mcp.NewTool("calendar_search_events",
		mcp.WithDescription("Search calendar events by text and/or time range. Times accept natural language (e.g., 'tomorrow', 'next friday at 5pm') or RFC3339."),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description(calendarIDDescription),
		),
		mcp.WithString("query",
			mcp.Description("Free text matched against event fields"),
		),
		mcp.WithString("timeMin",
			mcp.Description("Only events ending after this time"),
		),
		mcp.WithString("timeMax",
			mcp.Description("Only events starting before this time"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description(fmt.Sprintf("Maximum number of events to return (default: %d)", assistant.DefaultMaxResults)),
		),
	)

	s.AddTool(searchEventsTool, common.InstrumentedToolHandlerWithService("calendar_search_events",
		instrumentation.ServiceCalendar, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchEvents(ctx, request, sc)
		}))

	// List upcoming events tool
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List upcoming events of the default calendar, starting now"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithNumber("maxResults",
			mcp.Description(fmt.Sprintf("Maximum number of events to return (default: %d)", assistant.DefaultMaxResults)),
		),
	)

	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithService("calendar_list_events",
		instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	// Get event tool
	getEventTool := mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Get details of a specific calendar event"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description(calendarIDDescription),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to retrieve"),
		),
	)

	s.AddTool(getEventTool, common.InstrumentedToolHandlerWithService("calendar_get_event",
		instrumentation.ServiceCalendar, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvent(ctx, request, sc)
		}))

	// Export event tool
	exportEventTool := mcp.NewTool("calendar_export_event_ics",
		mcp.WithDescription("Export a calendar event as an iCalendar (.ics) document"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description(calendarIDDescription),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to export"),
		),
	)

	s.AddTool(exportEventTool, common.InstrumentedToolHandlerWithService("calendar_export_event_ics",
		instrumentation.ServiceCalendar, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleExportEvent(ctx, request, sc)
		}))

	// Register create/update/delete tools only if not in read-only mode
	if readOnly {
		return nil
	}

	// Create event tool
	createEventTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create a new calendar event. Times and recurrence accept natural language (e.g., start 'next monday at 10am', duration '30 minutes', recurrence 'every tuesday for 3 weeks')."),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description(calendarIDDescription),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title/summary"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time, natural language or RFC3339"),
		),
		mcp.WithString("end",
			mcp.Description("End time, natural language or RFC3339. Takes precedence over duration."),
		),
		mcp.WithString("duration",
			mcp.Description("Event length such as '1 hour' or '45 minutes' (default: 1 hour)"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("recurrence",
			mcp.Description("Recurrence as natural language ('every monday for 5 weeks') or an RRULE ('RRULE:FREQ=WEEKLY;BYDAY=MO')"),
		),
		mcp.WithBoolean("addGoogleMeet",
			mcp.Description("Automatically add a Google Meet link to the event"),
		),
	)

	s.AddTool(createEventTool, common.InstrumentedToolHandlerWithService("calendar_create_event",
		instrumentation.ServiceCalendar, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	// Update event tool
	updateEventTool := mcp.NewTool("calendar_update_event",
		mcp.WithDescription("Update an existing calendar event. Only the provided fields are changed."),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description(calendarIDDescription),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("New event description"),
		),
		mcp.WithString("location",
			mcp.Description("New event location"),
		),
		mcp.WithString("start",
			mcp.Description("New start time, natural language or RFC3339"),
		),
		mcp.WithString("end",
			mcp.Description("New end time, natural language or RFC3339"),
		),
		mcp.WithString("duration",
			mcp.Description("New length, used with start when end is not given"),
		),
		mcp.WithString("attendees",
			mcp.Description("New comma-separated list of attendee email addresses (replaces the current list)"),
		),
		mcp.WithString("recurrence",
			mcp.Description("New recurrence; an empty string removes it"),
		),
		mcp.WithString("sendUpdates",
			mcp.Description("Who gets notified: 'all', 'externalOnly' or 'none' (default: none)"),
		),
	)

	s.AddTool(updateEventTool, common.InstrumentedToolHandlerWithService("calendar_update_event",
		instrumentation.ServiceCalendar, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	// Delete event tool
	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description(calendarIDDescription),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
		mcp.WithString("sendUpdates",
			mcp.Description("Who gets notified: 'all', 'externalOnly' or 'none' (default: none)"),
		),
	)

	s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithService("calendar_delete_event",
		instrumentation.ServiceCalendar, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

func handleSearchEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	svc, errResult := assistantFor(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	lines, err := svc.SearchEvents(ctx, assistant.SearchRequest{
		CalendarID: common.StringArg(args, "calendarId"),
		Query:      common.StringArg(args, "query"),
		TimeMin:    common.StringArg(args, "timeMin"),
		TimeMax:    common.StringArg(args, "timeMax"),
		MaxResults: common.IntArg(args, "maxResults", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search events: %v", err)), nil
	}
	return linesResult(lines), nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	svc, errResult := assistantFor(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	lines, err := svc.ListEvents(ctx, common.IntArg(args, "maxResults", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}
	return linesResult(lines), nil
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID := common.StringArg(args, "eventId")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	svc, errResult := assistantFor(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	details, err := svc.GetEvent(ctx, common.StringArg(args, "calendarId"), eventID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get event: %v", err)), nil
	}
	return mcp.NewToolResultText(details), nil
}

func handleExportEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID := common.StringArg(args, "eventId")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	svc, errResult := assistantFor(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	ics, err := svc.ExportEventICS(ctx, common.StringArg(args, "calendarId"), eventID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to export event: %v", err)), nil
	}
	return mcp.NewToolResultText(ics), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	summary := common.StringArg(args, "summary")
	if summary == "" {
		return mcp.NewToolResultError("summary is required"), nil
	}
	start := common.StringArg(args, "start")
	if start == "" {
		return mcp.NewToolResultError("start is required"), nil
	}

	svc, errResult := assistantFor(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	out, err := svc.CreateEvent(ctx, assistant.CreateRequest{
		CalendarID:    common.StringArg(args, "calendarId"),
		Summary:       summary,
		Start:         start,
		End:           common.StringArg(args, "end"),
		Duration:      common.StringArg(args, "duration"),
		Location:      common.StringArg(args, "location"),
		Description:   common.StringArg(args, "description"),
		Recurrence:    common.StringArg(args, "recurrence"),
		Attendees:     assistant.SplitList(common.StringArg(args, "attendees")),
		AddConference: common.BoolArg(args, "addGoogleMeet"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID := common.StringArg(args, "eventId")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	svc, errResult := assistantFor(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	req := assistant.UpdateRequest{
		CalendarID:  common.StringArg(args, "calendarId"),
		EventID:     eventID,
		Summary:     common.OptionalStringArg(args, "summary"),
		Description: common.OptionalStringArg(args, "description"),
		Location:    common.OptionalStringArg(args, "location"),
		Start:       common.StringArg(args, "start"),
		End:         common.StringArg(args, "end"),
		Duration:    common.StringArg(args, "duration"),
		Recurrence:  common.OptionalStringArg(args, "recurrence"),
		SendUpdates: common.StringArg(args, "sendUpdates"),
	}
	if attendees := common.OptionalStringArg(args, "attendees"); attendees != nil {
		req.Attendees = assistant.SplitList(*attendees)
	}

	out, err := svc.UpdateEvent(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update event: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID := common.StringArg(args, "eventId")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	svc, errResult := assistantFor(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	out, err := svc.DeleteEvent(ctx, common.StringArg(args, "calendarId"), eventID, common.StringArg(args, "sendUpdates"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}
