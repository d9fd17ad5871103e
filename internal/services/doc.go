// Package services obtains and verifies Spotify Web API tokens.
//
// # OAuth Service
//
// [OAuthService] is the small surface the token prompt needs from a
// provider. [SpotifyService] implements it with the zmb3/spotify
// authenticator for authorize URLs and API clients, and an [oauth2.Config]
// for code exchange and refresh.
//
// # Token Prompt
//
// [PromptForToken] returns a cached token when the file .cache-<username>
// holds one that is valid or refreshable. Otherwise it opens the authorize
// URL in the browser (printing it when that fails) and waits for the code:
//
//   - paste mode reads the URL the browser was redirected to from the terminal
//   - callback mode serves the redirect URI itself through [server.OAuthHandler]
//     and gives up after two minutes with [shared.ErrTimeout]
//
// The new token is written back to the cache file with mode 0600.
//
// # Error Handling
//
// Missing credentials produce a [*SpotifyError] with status 550 that wraps
// [shared.ErrMissingCredentials]. Exchange and refresh failures wrap
// [shared.ErrAuthFailed]; Web API failures wrap [shared.ErrAPIRequest].
package services
