package wordpress

import (
	"errors"
	"fmt"
)

// The client reports failures as one of four distinct kinds so callers can
// match on outcome instead of inspecting status codes:
//
//   - ValidationError: bad input, rejected before any request is sent
//   - NotFoundError:   the site has no post matching the reference
//   - RemoteError:     the site answered with a non-2xx status
//   - UnreachableError: the request never reached the site
//
// Configuration problems are a startup concern and live in internal/config.

// ValidationError reports caller input that violates an operation's
// constraints. No network request is issued when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports that the target post does not exist on the site,
// either as an HTTP 404 or as an empty slug query result.
type NotFoundError struct {
	Ref string // human-readable post reference, e.g. `id 42` or `slug "hello-world"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no post found with %s", e.Ref)
}

// RemoteError carries a non-2xx response from the site. Message is the
// server-provided error text, surfaced verbatim; Code is the WordPress
// error code when the body carried one (e.g. "rest_cannot_create").
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("wordpress returned HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("wordpress returned HTTP %d", e.StatusCode)
}

// UnreachableError wraps transport-level failures (DNS resolution, refused
// connections, timeouts). Distinct from RemoteError so callers can tell
// "server rejected" from "server unreachable".
type UnreachableError struct {
	URL string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("wordpress site unreachable at %s: %v", e.URL, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError anywhere in its chain.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
