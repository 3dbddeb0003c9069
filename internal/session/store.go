// Package session keeps signed-in admins' upstream tokens and refreshes them
// in the background.
package session

import (
	"context"
	"errors"

	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/upstream"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions. The console server uses Postgres, podctl the OS
// keyring.
type Store interface {
	Create(ctx context.Context, s *models.AdminSession) error
	Get(ctx context.Context, id uuid.UUID) (*models.AdminSession, error)
	UpdateToken(ctx context.Context, id uuid.UUID, token string) error
	UpdateAdmin(ctx context.Context, id uuid.UUID, admin models.Admin) error
	Delete(ctx context.Context, id uuid.UUID) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// Actor is a signed-in admin as services see it: who they are and the
// upstream API bound to their credentials.
type Actor interface {
	API() *upstream.API
	Admin() *models.Admin
}
