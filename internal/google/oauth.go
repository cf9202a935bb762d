package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// Environment variables holding the OAuth client.
const (
	EnvClientID     = "GOOGLE_CLIENT_ID"
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"
	EnvRedirectURL  = "GOOGLE_REDIRECT_URL"
)

// DefaultAccount is used when a caller does not name an account.
const DefaultAccount = "default"

// defaultRedirectURL is the loopback redirect for desktop clients. The code
// is copied from the browser's address bar.
const defaultRedirectURL = "http://localhost"

// Scopes requested for calendar access.
var Scopes = []string{
	calendar.CalendarScope,
}

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateAccountName rejects names that are unsafe to use in file names.
func ValidateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, hyphens and underscores are allowed", account)
	}
	return nil
}

// OAuthConfig builds the OAuth2 client configuration from the environment.
func OAuthConfig() (*oauth2.Config, error) {
	clientID := os.Getenv(EnvClientID)
	clientSecret := os.Getenv(EnvClientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("%s and %s must be set", EnvClientID, EnvClientSecret)}
	}

	redirect := os.Getenv(EnvRedirectURL)
	if redirect == "" {
		redirect = defaultRedirectURL
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       Scopes,
	}, nil
}

// GetAuthURLForAccount returns the consent URL for account. The account name
// is carried in the state parameter.
func GetAuthURLForAccount(conf *oauth2.Config, account string) string {
	return conf.AuthCodeURL(account, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// SaveTokenForAccount exchanges an authorization code and stores the token.
func SaveTokenForAccount(ctx context.Context, conf *oauth2.Config, store TokenStore, account, authCode string) error {
	if err := ValidateAccountName(account); err != nil {
		return err
	}

	tok, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	if err := store.SaveToken(account, tok); err != nil {
		return err
	}
	return nil
}

// NewHTTPClient returns an authenticated client that refreshes tok as needed.
// HTTP/2 is disabled; the Calendar API intermittently resets HTTP/2 streams.
func NewHTTPClient(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) *http.Client {
	base := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: base})
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, tok))
}
