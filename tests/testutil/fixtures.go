package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/pod-console/internal/database"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/internal/upstream"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateSession stores a signed-in admin session with default values
func (f *Fixtures) CreateSession(t *testing.T, opts ...SessionOption) *models.AdminSession {
	t.Helper()
	f.counter++

	admin := models.Admin{
		ID:    fmt.Sprintf("adm-%d", f.counter),
		Name:  fmt.Sprintf("Admin %d", f.counter),
		Email: fmt.Sprintf("admin%d@example.com", f.counter),
		Role:  models.NamedRole("ops", nil),
	}
	sess := &models.AdminSession{
		ID:        uuid.New(),
		AdminID:   admin.ID,
		Email:     admin.Email,
		Token:     fmt.Sprintf("upstream-token-%d", f.counter),
		Admin:     admin,
		ExpiresAt: time.Now().Add(12 * time.Hour),
	}

	for _, opt := range opts {
		opt(sess)
	}

	if err := session.NewPostgresStore(f.db).Create(context.Background(), sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess
}

// SessionOption configures a test session
type SessionOption func(*models.AdminSession)

// WithSuperAdmin gives the session's admin the super-admin role
func WithSuperAdmin() SessionOption {
	return func(s *models.AdminSession) {
		s.Admin.Role = models.SuperAdminRole()
	}
}

// WithScope limits the session's admin to the subtree of podID
func WithScope(podID string) SessionOption {
	return func(s *models.AdminSession) {
		s.Admin.PodID = &podID
	}
}

// WithExpiry sets when the session expires
func WithExpiry(at time.Time) SessionOption {
	return func(s *models.AdminSession) {
		s.ExpiresAt = at
	}
}

// WithToken sets the upstream token stored for the session
func WithToken(token string) SessionOption {
	return func(s *models.AdminSession) {
		s.Token = token
	}
}

// Actor is a session.Actor for handler and service tests
type Actor struct {
	Upstream *upstream.API
	Profile  *models.Admin
}

func (a *Actor) API() *upstream.API { return a.Upstream }
func (a *Actor) Admin() *models.Admin { return a.Profile }

// SuperAdminActor returns an unscoped actor with no upstream binding
func SuperAdminActor() *Actor {
	return &Actor{Profile: &models.Admin{ID: "adm-root", Email: "root@acme.io", Role: models.SuperAdminRole()}}
}

// ScopedActor returns an actor limited to the subtree of podID
func ScopedActor(podID string) *Actor {
	return &Actor{Profile: &models.Admin{ID: "adm-ops", Email: "ops@acme.io", Role: models.NamedRole("ops", nil), PodID: &podID}}
}
