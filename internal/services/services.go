// package services talks to the HTTP APIs musicutil authenticates against
package services

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

// OAuthService is a provider that issues tokens through the authorization code flow.
type OAuthService interface {
	// Name returns the name of the service (e.g., "Spotify")
	Name() string

	// AuthURL returns the page the user visits to grant access.
	AuthURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// Refresh returns a fresh token for an expired one that carries a refresh token.
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// TokenPath returns <dir>/.cache-<username>. An empty dir means the working directory.
func TokenPath(dir, username string) string {
	return filepath.Join(dir, ".cache-"+username)
}

// LoadToken reads a token saved by [SaveToken]. A missing file yields (nil, nil).
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token cache: %w", err)
	}
	return &token, nil
}

// SaveToken writes token as JSON, readable only by the current user.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}
