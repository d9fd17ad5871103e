package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed    = fmt.Errorf("authentication failed")
	ErrStateMismatch = fmt.Errorf("oauth state mismatch")
	ErrNoToken       = fmt.Errorf("no access token")
	ErrTimeout       = fmt.Errorf("operation timed out")

	// Scraping and transport errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrRemoteStatus    = fmt.Errorf("unexpected remote status")
	ErrMarkupNotFound  = fmt.Errorf("expected markup not found")
	ErrUnknownSource   = fmt.Errorf("unknown source")
	ErrUnknownQuality  = fmt.Errorf("unknown quality")
	ErrNoQualities     = fmt.Errorf("no qualities to choose from")
	ErrInvalidSize     = fmt.Errorf("invalid size")
	ErrInvalidDownload = fmt.Errorf("invalid download url")

	// Storage errors
	ErrNotFound = fmt.Errorf("not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
