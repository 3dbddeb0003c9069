package middleware

import (
	"context"
	"strings"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/services"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	SessionIDKey  = "session_id"
	AdminIDKey    = "admin_id"
	AdminEmailKey = "admin_email"
	SuperAdminKey = "super_admin"
	ActorKey      = "actor"

	// EventSource cannot set headers, so the events stream may pass the
	// console token as a query parameter instead.
	tokenQueryParam = "access_token"
)

func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, msg := bearerToken(c)
		if token == "" {
			c.Unauthorized(msg)
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(SessionIDKey, claims.SessionID)
		c.Set(AdminIDKey, claims.AdminID)
		c.Set(AdminEmailKey, claims.Email)
		c.Set(SuperAdminKey, claims.SuperAdmin)

		c.Next()
	}
}

func bearerToken(c *drift.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.QueryParam(tokenQueryParam); token != "" {
			return token, ""
		}
		return "", "missing authorization header"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", "invalid authorization header format"
	}
	return strings.TrimSpace(parts[1]), ""
}

// ActorResolver loads the live session behind a console token.
type ActorResolver interface {
	Actor(ctx context.Context, sessionID uuid.UUID) (session.Actor, error)
}

// Session must run after Auth. It aborts with 401 when the session has
// ended, for example because a background refresh was rejected upstream.
func Session(resolver ActorResolver) drift.HandlerFunc {
	return func(c *drift.Context) {
		sessionID := GetSessionID(c)
		if sessionID == uuid.Nil {
			c.Unauthorized("not authenticated")
			return
		}

		actor, err := resolver.Actor(c.Request.Context(), sessionID)
		if err != nil {
			if apperr.IsAuth(err) {
				c.Unauthorized(apperr.Message(err))
				return
			}
			c.InternalServerError("failed to load session")
			return
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

func GetSessionID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(SessionIDKey); ok {
		if sid, ok := id.(uuid.UUID); ok {
			return sid
		}
	}
	return uuid.Nil
}

func GetAdminID(c *drift.Context) string {
	if id, ok := c.Get(AdminIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

func GetAdminEmail(c *drift.Context) string {
	if email, ok := c.Get(AdminEmailKey); ok {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}

func GetActor(c *drift.Context) session.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(session.Actor); ok {
			return actor
		}
	}
	return nil
}
