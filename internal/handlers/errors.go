package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/middleware"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/internal/upstream"
	"github.com/m1z23r/drift/pkg/drift"
)

// respondError writes the status for err's kind. Unclassified errors are
// logged and answered with fallback so internals never reach the client.
func respondError(c *drift.Context, err error, fallback string) {
	msg := apperr.Message(err)
	var authErr *apperr.AuthError
	var statusErr *upstream.StatusError

	switch {
	case apperr.IsValidation(err):
		c.BadRequest(msg)
	case apperr.IsPrecondition(err):
		_ = c.JSON(http.StatusConflict, map[string]string{
			"error":   "precondition failed",
			"message": msg,
		})
	case apperr.IsNotFound(err):
		c.NotFound(msg)
	case errors.As(err, &authErr):
		if authErr.Status == http.StatusForbidden {
			c.Forbidden(msg)
			return
		}
		c.Unauthorized(msg)
	case apperr.IsIntegrity(err):
		slog.Error("integrity violation", "path", c.Request.URL.Path, "error", err)
		c.InternalServerError(msg)
	case errors.As(err, &statusErr):
		slog.Warn("upstream failure", "path", c.Request.URL.Path, "status", statusErr.Status, "error", err)
		c.BadGateway(statusErr.Message)
	default:
		slog.Error(fallback, "path", c.Request.URL.Path, "error", err)
		c.InternalServerError(fallback)
	}
}

// errorPayload builds a JSON body for the error kinds a rejected plan can
// carry, so the plan can be attached to it. Status 0 means err is some other
// kind.
func errorPayload(err error) (int, map[string]any) {
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest, map[string]any{"error": apperr.Message(err)}
	case apperr.IsPrecondition(err):
		return http.StatusConflict, map[string]any{"error": "precondition failed", "message": apperr.Message(err)}
	}
	return 0, nil
}

// actor returns the signed-in admin or answers 401.
func actor(c *drift.Context) (session.Actor, bool) {
	a := middleware.GetActor(c)
	if a == nil {
		c.Unauthorized("not authenticated")
		return nil, false
	}
	return a, true
}
