package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicutil/internal/server"
	"github.com/desertthunder/musicutil/internal/shared"
	"golang.org/x/oauth2"
)

const (
	ModePaste    = "paste"
	ModeCallback = "callback"

	// DefaultCallbackTimeout bounds the wait for the browser redirect in callback mode.
	DefaultCallbackTimeout = 2 * time.Minute
)

const setupHelp = `
    You need to set your Spotify API credentials. You can do this by
    setting environment variables like so:

    export SPOTIFY_CLIENT_ID='your-spotify-client-id'
    export SPOTIFY_CLIENT_SECRET='your-spotify-client-secret'
    export SPOTIFY_REDIRECT_URI='your-app-redirect-url'

    or by filling in [credentials.spotify] in config.toml.

    Get your credentials at
        https://developer.spotify.com/dashboard
`

const pasteInstructions = `
    User authentication requires interaction with your
    web browser. Once you enter your credentials and
    give authorization, you will be redirected to
    a url.  Paste that url you were directed to to
    complete the authorization.
`

// PromptOpts configures [PromptForToken]. Zero values fall back to defaults.
type PromptOpts struct {
	Username    string
	Credentials SpotifyCredentials

	// Mode is [ModePaste] or [ModeCallback].
	Mode     string
	TokenDir string
	Timeout  time.Duration

	In          io.Reader
	Out         io.Writer
	OpenBrowser func(string) error
	Logger      *log.Logger
}

// PromptOptsFromConfig maps the [credentials.spotify] section onto [PromptOpts].
func PromptOptsFromConfig(cfg shared.SpotifyConfig) PromptOpts {
	return PromptOpts{
		Username:    cfg.Username,
		Credentials: CredentialsFromConfig(cfg),
		Mode:        cfg.Mode,
		TokenDir:    cfg.TokenDir,
	}
}

func (o *PromptOpts) defaults() {
	if o.Mode == "" {
		o.Mode = ModePaste
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultCallbackTimeout
	}
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.OpenBrowser == nil {
		o.OpenBrowser = shared.OpenBrowser
	}
	if o.Logger == nil {
		o.Logger = shared.NewLogger(nil)
	}
}

// PromptForToken returns a Spotify access token for opts.Username, asking
// the user to log in only when the token cache holds nothing usable.
//
// Empty credentials are read from the environment (see [SpotifyCredentials.WithEnv]).
// Without a client id the setup help is printed and a [*SpotifyError]
// wrapping [shared.ErrMissingCredentials] is returned.
func PromptForToken(ctx context.Context, opts PromptOpts) (string, error) {
	opts.defaults()
	creds := opts.Credentials.WithEnv()

	if creds.ClientID == "" {
		fmt.Fprint(opts.Out, setupHelp)
		return "", NoCredentialsError()
	}

	svc, err := NewSpotifyService(creds)
	if err != nil {
		return "", err
	}

	path := TokenPath(opts.TokenDir, opts.Username)
	logger := shared.WithLogger(opts.Logger, "service", svc.Name())

	if token := cachedToken(ctx, svc, path, logger); token != nil {
		return token.AccessToken, nil
	}

	var token *oauth2.Token
	switch opts.Mode {
	case ModePaste:
		token, err = pasteFlow(ctx, svc, opts)
	case ModeCallback:
		token, err = callbackFlow(ctx, svc, opts, logger)
	default:
		return "", fmt.Errorf("%w: unknown auth mode %q", shared.ErrInvalidConfig, opts.Mode)
	}
	if err != nil {
		return "", err
	}

	if token == nil || token.AccessToken == "" {
		return "", shared.ErrNoToken
	}

	if err := SaveToken(path, token); err != nil {
		logger.Warn("failed to cache token", "path", path, "error", err)
	}
	return token.AccessToken, nil
}

// cachedToken returns the token stored at path when it is still valid or can be refreshed.
func cachedToken(ctx context.Context, svc OAuthService, path string, logger *log.Logger) *oauth2.Token {
	token, err := LoadToken(path)
	if err != nil {
		logger.Warn("ignoring token cache", "path", path, "error", err)
		return nil
	}
	if token == nil {
		return nil
	}
	if token.Valid() {
		logger.Debug("using cached token", "path", path, "expires", token.Expiry)
		return token
	}

	fresh, err := svc.Refresh(ctx, token)
	if err != nil {
		logger.Debug("cached token expired", "path", path, "error", err)
		return nil
	}
	if err := SaveToken(path, fresh); err != nil {
		logger.Warn("failed to cache refreshed token", "path", path, "error", err)
	}
	return fresh
}

func openAuthURL(opts PromptOpts, authURL string) {
	if err := opts.OpenBrowser(authURL); err != nil {
		fmt.Fprintf(opts.Out, "Please navigate here: %s\n", authURL)
		return
	}
	fmt.Fprintf(opts.Out, "Opened %s in your browser\n", authURL)
}

func pasteFlow(ctx context.Context, svc OAuthService, opts PromptOpts) (*oauth2.Token, error) {
	state := shared.GenerateState()

	fmt.Fprint(opts.Out, pasteInstructions)
	fmt.Fprintln(opts.Out)
	openAuthURL(opts, svc.AuthURL(state))
	fmt.Fprint(opts.Out, "\n\nEnter the URL you were redirected to: ")

	line, err := bufio.NewReader(opts.In).ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
		return nil, fmt.Errorf("%w: failed to read redirect url: %v", shared.ErrMissingArgument, err)
	}
	fmt.Fprint(opts.Out, "\n\n")

	response := strings.TrimSpace(line)
	if got := responseState(response); got != "" && got != state {
		return nil, shared.ErrStateMismatch
	}

	code := ParseResponseCode(response)
	if code == "" {
		return nil, fmt.Errorf("%w: no authorization code in %q", shared.ErrAuthFailed, response)
	}
	return svc.Exchange(ctx, code)
}

// callbackFlow listens on the redirect URI's host and port and waits for the browser.
func callbackFlow(ctx context.Context, svc *SpotifyService, opts PromptOpts, logger *log.Logger) (*oauth2.Token, error) {
	redirect, err := url.Parse(svc.RedirectURI())
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: redirect uri %q", shared.ErrInvalidConfig, svc.RedirectURI())
	}

	state := shared.GenerateState()
	handler := server.NewOAuthHandler(svc, state, redirect.Path)

	router := server.NewBasicRouter()
	router.Use(server.Logging(logger))
	router.Handler(handler)

	srv, err := server.Listen(redirect.Host, router)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Warn("error shutting down callback server", "error", err)
		}
	}()
	logger.Debug("waiting for oauth callback", "addr", srv.Addr(), "path", redirect.Path)

	openAuthURL(opts, svc.AuthURL(state))
	fmt.Fprintf(opts.Out, "→ Waiting for authorization (%s timeout)...\n", opts.Timeout)

	timeout := time.NewTimer(opts.Timeout)
	defer timeout.Stop()

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return nil, fmt.Errorf("authorization failed: %w", result.Error())
		}
		return result.Token, nil
	case err := <-srv.Errors():
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, opts.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ParseResponseCode returns the code parameter of the URL Spotify
// redirected to. Input that is not such a URL is returned as is.
func ParseResponseCode(response string) string {
	response = strings.TrimSpace(response)
	u, err := url.Parse(response)
	if err != nil {
		return response
	}
	if code := u.Query().Get("code"); code != "" {
		return code
	}
	if u.RawQuery == "" {
		return response
	}
	return ""
}

func responseState(response string) string {
	u, err := url.Parse(response)
	if err != nil {
		return ""
	}
	return u.Query().Get("state")
}
