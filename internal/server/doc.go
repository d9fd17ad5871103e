// Package server provides the HTTP routing, middleware and OAuth callback
// handling used when musicutil asks Spotify for a token.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] is the only middleware shipped; it never logs query strings.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the redirect leg of the authorization code flow.
//
// The handler validates the state parameter, exchanges the authorization code
// through an [Exchanger] and sends the result through a channel. It only
// processes one callback; later hits get 400.
//
// In callback mode the token helper listens on the host and port of the
// configured redirect URI, serves this handler on the redirect path, and
// shuts the server down as soon as a result arrives.
package server
