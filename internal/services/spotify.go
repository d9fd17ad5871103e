// Spotify implementation of [OAuthService]
package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// DefaultRedirectURI matches the redirect registered for the example config.
const DefaultRedirectURI = "http://127.0.0.1:3000/callback"

// SpotifyCredentials identifies the application asking for a token.
//
// TokenURL and APIURL default to Spotify's own endpoints.
type SpotifyCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	TokenURL     string
	APIURL       string
}

// CredentialsFromConfig copies the [shared.SpotifyConfig] fields that identify the application.
func CredentialsFromConfig(cfg shared.SpotifyConfig) SpotifyCredentials {
	return SpotifyCredentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
	}
}

// WithEnv fills empty fields from SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET
// and SPOTIFY_REDIRECT_URI, then from their SPOTIPY_ spellings.
func (c SpotifyCredentials) WithEnv() SpotifyCredentials {
	fill := func(v *string, name string) {
		if *v != "" {
			return
		}
		for _, prefix := range []string{"SPOTIFY_", "SPOTIPY_"} {
			if env := os.Getenv(prefix + name); env != "" {
				*v = env
				return
			}
		}
	}

	fill(&c.ClientID, "CLIENT_ID")
	fill(&c.ClientSecret, "CLIENT_SECRET")
	fill(&c.RedirectURI, "REDIRECT_URI")
	return c
}

// SpotifyError mirrors the error Spotify clients raise: an HTTP status,
// a Spotify error code and a message.
type SpotifyError struct {
	HTTPStatus int
	Code       int
	Msg        string
	err        error
}

func (e *SpotifyError) Error() string {
	return fmt.Sprintf("http status: %d, code:%d - %s", e.HTTPStatus, e.Code, e.Msg)
}

func (e *SpotifyError) Unwrap() error { return e.err }

// NoCredentialsError is returned by [PromptForToken] when no client id is configured.
func NoCredentialsError() *SpotifyError {
	return &SpotifyError{HTTPStatus: 550, Code: -1, Msg: "no credentials set", err: shared.ErrMissingCredentials}
}

// SpotifyService builds authorize URLs, exchanges codes and verifies tokens
// against the Spotify accounts service and Web API.
type SpotifyService struct {
	auth   *spotifyauth.Authenticator
	config *oauth2.Config
	apiURL string
}

// NewSpotifyService creates the authenticator for creds. An empty redirect
// URI falls back to [DefaultRedirectURI].
func NewSpotifyService(creds SpotifyCredentials) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, NoCredentialsError()
	}
	if creds.RedirectURI == "" {
		creds.RedirectURI = DefaultRedirectURI
	}
	scopes := creds.Scopes
	if len(scopes) == 0 {
		scopes = []string{spotifyauth.ScopeUserReadPrivate, spotifyauth.ScopeUserReadEmail}
	}

	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	s := &SpotifyService{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(creds.ClientID),
			spotifyauth.WithClientSecret(creds.ClientSecret),
			spotifyauth.WithRedirectURL(creds.RedirectURI),
			spotifyauth.WithScopes(scopes...),
		),
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       scopes,
			Endpoint:     oauth2.Endpoint{AuthURL: spotifyauth.AuthURL, TokenURL: tokenURL},
		},
		apiURL: creds.APIURL,
	}
	if s.apiURL != "" && !strings.HasSuffix(s.apiURL, "/") {
		s.apiURL += "/"
	}
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// RedirectURI returns the URL Spotify sends the user back to.
func (s *SpotifyService) RedirectURI() string {
	return s.config.RedirectURL
}

// AuthURL returns the authorization page for state.
func (s *SpotifyService) AuthURL(state string) string {
	return s.auth.AuthURL(state)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Refresh uses the refresh token carried by token to obtain a valid one.
func (s *SpotifyService) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token == nil || token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", shared.ErrNoToken)
	}

	expired := *token
	expired.AccessToken = ""
	fresh, err := s.config.TokenSource(ctx, &expired).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh: %v", shared.ErrAuthFailed, err)
	}
	return fresh, nil
}

// CurrentUser fetches the profile that accessToken belongs to.
func (s *SpotifyService) CurrentUser(ctx context.Context, accessToken string) (*spotify.PrivateUser, error) {
	if accessToken == "" {
		return nil, shared.ErrNoToken
	}

	var opts []spotify.ClientOption
	if s.apiURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.apiURL))
	}

	token := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	client := spotify.New(s.auth.Client(ctx, token), opts...)

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return user, nil
}
