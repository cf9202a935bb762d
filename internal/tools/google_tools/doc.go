// Package google_tools provides MCP tools for Google OAuth authentication.
//
// The OAuth flow:
//  1. A calendar tool reports that an account has no token
//  2. Call google_get_auth_url to get the authorization URL
//  3. The user visits the URL, authorizes access and copies the code
//  4. Call google_save_auth_code with the code to save the token
//
// Saving a token drops the cached calendar client of the account, so the next
// calendar tool call uses the new credentials.
package google_tools
