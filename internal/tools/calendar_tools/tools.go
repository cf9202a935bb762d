package calendar_tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calagent/internal/assistant"
	"github.com/teemow/calagent/internal/google"
	"github.com/teemow/calagent/internal/server"
	"github.com/teemow/calagent/internal/tools/common"
)

const (
	accountDescription    = "Account name (default: 'default'). Used to manage multiple Google accounts."
	calendarIDDescription = "Calendar ID (default: 'primary')"
)

// RegisterCalendarTools registers all Calendar-related tools with the MCP server.
// Write tools are skipped when readOnly is true.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterEventTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}

	return nil
}

// assistantFor returns the facade for the account named in args. When the
// account cannot reach the Calendar API, the second return value is a tool
// error telling the agent how to authorize it.
func assistantFor(sc *server.ServerContext, args map[string]interface{}) (*assistant.Service, *mcp.CallToolResult) {
	account := common.GetAccountFromArgs(args, sc.DefaultAccount())
	svc, err := sc.Assistant(account)
	if err == nil {
		return svc, nil
	}

	var cfgErr *google.ConfigurationError
	if errors.As(err, &cfgErr) {
		return nil, mcp.NewToolResultError(fmt.Sprintf(`Google Calendar is not available for account "%s": %s

To authorize access:
1. Call the google_get_auth_url tool with account="%s" and open the URL in a browser
2. Sign in and grant calendar access
3. Call the google_save_auth_code tool with the authorization code

Note: You only need to authorize once. The tokens will be automatically refreshed.`, account, cfgErr.Reason, account))
	}
	return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to create Calendar client for account %s: %v", account, err))
}

// linesResult joins facade output into a single text result.
func linesResult(lines []string) *mcp.CallToolResult {
	return mcp.NewToolResultText(strings.Join(lines, "\n"))
}
