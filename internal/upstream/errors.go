package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dimitrije/pod-console/internal/apperr"
)

var (
	ErrNoToken        = errors.New("no upstream token")
	ErrRefreshFailed  = errors.New("token refresh failed")
	ErrMissingToken   = errors.New("upstream response carried no token")
	ErrMalformedReply = errors.New("malformed upstream response")
)

// StatusError is an upstream failure that has no domain meaning.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}

// statusError converts a failed upstream response into the console's error
// taxonomy. The upstream message is kept so it can reach the admin.
func statusError(status int, message string) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if message == "" {
			message = "invalid request"
		}
		return apperr.Validation("", "%s", message)
	case http.StatusUnauthorized, http.StatusForbidden:
		if message == "" {
			message = http.StatusText(status)
		}
		return &apperr.AuthError{Status: status, Message: message}
	case http.StatusNotFound:
		return apperr.NotFound(notFoundResource(message), "")
	case http.StatusConflict:
		if message == "" {
			message = "conflicting state"
		}
		return apperr.Precondition("%s", message)
	}
	return &StatusError{Status: status, Message: message}
}

// IsUnauthorized reports whether err is an upstream 401.
func IsUnauthorized(err error) bool {
	var a *apperr.AuthError
	return errors.As(err, &a) && a.Status == http.StatusUnauthorized
}

// IsAuthRejection reports whether err is an upstream 401 or 403, the only
// refresh failures that end a session.
func IsAuthRejection(err error) bool {
	var a *apperr.AuthError
	return errors.As(err, &a) && (a.Status == http.StatusUnauthorized || a.Status == http.StatusForbidden)
}

// notFoundResource turns "Pod not found" into "Pod" so the error does not
// repeat itself.
func notFoundResource(message string) string {
	message = strings.TrimSpace(message)
	if i := strings.LastIndex(strings.ToLower(message), " not found"); i > 0 {
		message = message[:i]
	}
	return orText(message, "resource")
}

func orText(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
