package source

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/musicutil/internal/shared"
)

// Error is returned for every response outside the 2xx range.
//
// Code is a site specific error code; scraping sessions have none and use -1.
type Error struct {
	HTTPStatus int
	Code       int
	Msg        string
	Headers    http.Header
}

func newError(status int, rawURL string, headers http.Header) *Error {
	return &Error{
		HTTPStatus: status,
		Code:       -1,
		Msg:        rawURL + ":\n Error Occured",
		Headers:    headers,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("Http Status: %d, Code:%d => %s", e.HTTPStatus, e.Code, e.Msg)
}

// Unwrap lets callers match with errors.Is(err, shared.ErrAPIRequest).
func (e *Error) Unwrap() error {
	return shared.ErrAPIRequest
}
