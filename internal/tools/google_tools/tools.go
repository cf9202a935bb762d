package google_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calagent/internal/google"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/server"
	"github.com/teemow/calagent/internal/tools/common"
)

const (
	operationAuthURL  = "auth_url"
	operationSaveCode = "save_code"
)

// RegisterGoogleTools registers all Google OAuth-related tools with the MCP server
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Get OAuth URL tool
	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize Google Calendar access for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)

	s.AddTool(getAuthURLTool, common.InstrumentedToolHandlerWithService("google_get_auth_url",
		instrumentation.ServiceAuth, operationAuthURL, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, sc)
		}))

	// Save authorization code tool
	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Google Calendar authentication for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)

	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandlerWithService("google_save_auth_code",
		instrumentation.ServiceAuth, operationSaveCode, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc)
		}))

	return nil
}

func handleGetAuthURL(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments(), sc.DefaultAccount())
	if err := google.ValidateAccountName(account); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	conf, err := sc.OAuthConfig()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot build the authorization URL: %v", err)), nil
	}

	result := fmt.Sprintf(`To authorize Google Calendar access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Google Calendar
4. Copy the authorization code

5. Call the google_save_auth_code tool with the code and account name to complete authentication`, account, google.GetAuthURLForAccount(conf, account))

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args, sc.DefaultAccount())

	authCode := common.StringArg(args, "authCode")
	if authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	conf, err := sc.OAuthConfig()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
	}

	if err := google.SaveTokenForAccount(ctx, conf, sc.Tokens(), account, authCode); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
	}
	sc.ForgetCalendarClient(account)

	return mcp.NewToolResultText(fmt.Sprintf("Authorization successful for account '%s'. Google Calendar token saved.", account)), nil
}
