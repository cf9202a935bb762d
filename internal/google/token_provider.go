package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// TokenProvider supplies OAuth tokens for Google APIs.
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// TokenStore is a TokenProvider that can also persist tokens.
type TokenStore interface {
	TokenProvider
	SaveToken(account string, tok *oauth2.Token) error
}

var _ TokenStore = (*FileTokenProvider)(nil)

// FileTokenProvider stores one JSON token file per account in Dir.
type FileTokenProvider struct {
	Dir string
}

// NewFileTokenProvider creates a provider rooted at DefaultTokenDir.
func NewFileTokenProvider() *FileTokenProvider {
	return &FileTokenProvider{Dir: DefaultTokenDir()}
}

// DefaultTokenDir returns the per-user cache directory for tokens.
func DefaultTokenDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "calagent")
}

func (p *FileTokenProvider) tokenPath(account string) string {
	return filepath.Join(p.Dir, fmt.Sprintf("google-%s.token.json", account))
}

// GetTokenForAccount reads the stored token for account.
func (p *FileTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	if err := ValidateAccountName(account); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.tokenPath(account))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("no Google token for account %q; run `calagent auth --account %s`", account, account)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("token for account %q is empty", account)}
	}
	return &tok, nil
}

// HasTokenForAccount checks if a token file exists for the specified account.
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	if ValidateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(p.tokenPath(account))
	return err == nil
}

// SaveToken writes tok for account, readable only by the current user.
func (p *FileTokenProvider) SaveToken(account string, tok *oauth2.Token) error {
	if err := ValidateAccountName(account); err != nil {
		return err
	}
	if err := os.MkdirAll(p.Dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(p.tokenPath(account), data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
