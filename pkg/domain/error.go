package domain

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrNotFound reports an absent resource: repository, run, artifact,
	// archive member or a matching test artifact.
	ErrNotFound = goerr.New("resource not found", goerr.ID("not_found"))
	// ErrAccessDenied covers authorization failures and rate limiting.
	ErrAccessDenied = goerr.New("access denied or rate limit exceeded", goerr.ID("access_denied"))
	// ErrTransport covers any other non-success response or network failure.
	ErrTransport = goerr.New("transport error", goerr.ID("transport"))
	// ErrFormat reports a payload that is present but structurally invalid.
	ErrFormat = goerr.New("invalid format", goerr.ID("format"))

	ErrConfiguration = goerr.New("configuration error", goerr.ID("configuration"))
	ErrRepository    = goerr.New("repository error", goerr.ID("repository"))
)

// StatusKey is the goerr value key holding the HTTP status of a failed request.
const StatusKey = "status"

// StatusCode returns the HTTP status attached to err, if any.
func StatusCode(err error) (int, bool) {
	for err != nil {
		var gerr *goerr.Error
		if !errors.As(err, &gerr) {
			return 0, false
		}
		if status, ok := gerr.Values()[StatusKey].(int); ok {
			return status, true
		}
		err = gerr.Unwrap()
	}
	return 0, false
}
