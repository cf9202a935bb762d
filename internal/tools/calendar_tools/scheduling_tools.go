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

// RegisterSchedulingTools registers the availability and date parsing tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Suggest meeting times tool
	suggestTool := mcp.NewTool("calendar_suggest_meeting_times",
		mcp.WithDescription("Suggest free meeting slots on a given day, checking the calendar's busy times and optionally those of attendees"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Day to search, natural language or RFC3339 (e.g., 'tomorrow', 'next tuesday')"),
		),
		mcp.WithString("duration",
			mcp.Description(fmt.Sprintf("Meeting length such as '30 minutes' (default: %s)", assistant.DefaultMeetingDuration)),
		),
		mcp.WithString("preferredTime",
			mcp.Description("Preferred part of the day: 'morning', 'afternoon', 'evening' or a range like '2 PM to 4 PM'"),
		),
		mcp.WithString("calendarId",
			mcp.Description(calendarIDDescription),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated attendee emails whose busy times are also respected"),
		),
		mcp.WithNumber("maxSuggestions",
			mcp.Description("Maximum number of slots to return (default: 3)"),
		),
	)

	s.AddTool(suggestTool, common.InstrumentedToolHandlerWithService("calendar_suggest_meeting_times",
		instrumentation.ServiceCalendar, instrumentation.OperationFreeBusy, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSuggestMeetingTimes(ctx, request, sc)
		}))

	// Parse datetime tool (no Google API access)
	parseDateTimeTool := mcp.NewTool("calendar_parse_datetime",
		mcp.WithDescription("Show how a natural-language date/time is interpreted, in UTC and in the server's timezone"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Date/time phrase such as 'next monday at 10 AM'"),
		),
		mcp.WithString("duration",
			mcp.Description("Length such as '1 hour' (default: 1 hour)"),
		),
		mcp.WithString("preferredTime",
			mcp.Description("Optional part of the day: 'morning', 'afternoon', 'evening' or a range like '2 PM to 4 PM'"),
		),
	)

	s.AddTool(parseDateTimeTool, common.InstrumentedToolHandler("calendar_parse_datetime", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleParseDateTime(ctx, request, sc)
		}))

	// Parse recurrence tool (no Google API access)
	parseRecurrenceTool := mcp.NewTool("calendar_parse_recurrence",
		mcp.WithDescription("Convert a natural-language recurrence into an RRULE and preview the next occurrences"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Recurrence phrase such as 'every tuesday for 3 weeks'"),
		),
		mcp.WithString("start",
			mcp.Description("First occurrence, natural language or RFC3339 (default: now)"),
		),
	)

	s.AddTool(parseRecurrenceTool, common.InstrumentedToolHandler("calendar_parse_recurrence", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleParseRecurrence(ctx, request, sc)
		}))

	return nil
}

func handleSuggestMeetingTimes(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	date := common.StringArg(args, "date")
	if date == "" {
		return mcp.NewToolResultError("date is required"), nil
	}

	svc, errResult := assistantFor(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	lines, err := svc.SuggestMeetingTimes(ctx, assistant.SuggestRequest{
		Date:           date,
		Duration:       common.StringArg(args, "duration"),
		PreferredTime:  common.StringArg(args, "preferredTime"),
		CalendarID:     common.StringArg(args, "calendarId"),
		Attendees:      assistant.SplitList(common.StringArg(args, "attendees")),
		MaxSuggestions: common.IntArg(args, "maxSuggestions", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to suggest meeting times: %v", err)), nil
	}
	return linesResult(lines), nil
}

func handleParseDateTime(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	text := common.StringArg(args, "text")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	out, err := sc.Offline().ResolveDateTime(text, common.StringArg(args, "duration"), common.StringArg(args, "preferredTime"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse date/time: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func handleParseRecurrence(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	text := common.StringArg(args, "text")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	out, err := sc.Offline().ResolveRecurrence(text, common.StringArg(args, "start"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse recurrence: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}
