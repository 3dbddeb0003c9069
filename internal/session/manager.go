package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/metrics"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/upstream"
	"github.com/google/uuid"
)

const (
	DefaultRefreshInterval = 50 * time.Minute
	DefaultTTL             = 12 * time.Hour

	storeTimeout = 10 * time.Second
)

var errSessionEnded = &apperr.AuthError{Status: http.StatusUnauthorized, Message: "session expired, please sign in again"}

type Options struct {
	RefreshInterval time.Duration
	TTL             time.Duration
	Logger          *slog.Logger
}

// Manager owns the live sessions of one process. Each live session has its
// own upstream credentials and refresher.
type Manager struct {
	store    Store
	client   *upstream.Client
	interval time.Duration
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	live map[uuid.UUID]*Active
}

func NewManager(store Store, client *upstream.Client, opts Options) *Manager {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		store:    store,
		client:   client,
		interval: opts.RefreshInterval,
		ttl:      opts.TTL,
		logger:   opts.Logger,
		now:      time.Now,
		live:     make(map[uuid.UUID]*Active),
	}
}

// Active is a signed-in admin with a bound upstream API.
type Active struct {
	id        uuid.UUID
	api       *upstream.API
	refresher *refresher

	mu     sync.RWMutex
	record models.AdminSession
}

func (a *Active) ID() uuid.UUID { return a.id }

func (a *Active) API() *upstream.API { return a.api }

func (a *Active) Admin() *models.Admin {
	a.mu.RLock()
	defer a.mu.RUnlock()
	admin := a.record.Admin
	return &admin
}

func (a *Active) Record() models.AdminSession {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.record
}

func (a *Active) setAdmin(admin models.Admin) {
	a.mu.Lock()
	a.record.Admin = admin
	a.record.AdminID = admin.ID
	a.record.Email = admin.Email
	a.mu.Unlock()
}

// Login signs in upstream and starts a session for the returned admin.
func (m *Manager) Login(ctx context.Context, email, password string) (*Active, error) {
	result, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := m.now()
	record := &models.AdminSession{
		ID:        uuid.New(),
		AdminID:   result.Admin.ID,
		Email:     result.Admin.Email,
		Token:     result.Token,
		Admin:     *result.Admin,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, record); err != nil {
		return nil, err
	}

	m.logger.Info("admin signed in",
		"session_id", record.ID,
		"admin_id", record.AdminID,
		"super_admin", record.Admin.IsSuperAdmin())
	return m.activate(record), nil
}

// Get returns the live session id, restoring it from the store after a
// restart. Expired or unknown sessions are AuthErrors.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Active, error) {
	m.mu.Lock()
	active, ok := m.live[id]
	m.mu.Unlock()

	if ok {
		if active.Record().Expired(m.now()) {
			m.end(active, "expired")
			return nil, errSessionEnded
		}
		return active, nil
	}

	record, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, errSessionEnded
	}
	if err != nil {
		return nil, err
	}
	if record.Expired(m.now()) || record.Token == "" {
		_ = m.store.Delete(ctx, id)
		return nil, errSessionEnded
	}

	active = m.activate(record)

	// A restored token may have expired while the process was down.
	if exp := upstream.TokenExpiry(record.Token); !exp.IsZero() && !exp.After(m.now()) {
		if _, err := m.Refresh(ctx, id); err != nil {
			if upstream.IsAuthRejection(err) {
				m.end(active, "refresh rejected")
				return nil, errSessionEnded
			}
			return nil, err
		}
	}
	return active, nil
}

func (m *Manager) activate(record *models.AdminSession) *Active {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.live[record.ID]; ok {
		return existing
	}

	creds := upstream.NewCredentials(record.Token)
	active := &Active{id: record.ID, api: m.client.Bind(creds), record: *record}
	active.record.Token = ""

	active.refresher = &refresher{
		interval: m.interval,
		timeout:  upstream.DefaultTimeout,
		refresh: func(ctx context.Context) error {
			_, err := m.Refresh(ctx, record.ID)
			return err
		},
		current:  creds.Value,
		rejected: func() { m.end(active, "refresh rejected") },
		logger:   m.logger.With("session_id", record.ID),
	}

	creds.OnChange(func(token string) {
		active.refresher.arm(token)
		if token == "" {
			m.end(active, "token cleared")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := m.store.UpdateToken(ctx, record.ID, token); err != nil {
			m.logger.Error("failed to persist refreshed token", "session_id", record.ID, "error", err)
		}
	})

	active.refresher.arm(record.Token)
	m.live[record.ID] = active
	metrics.SessionStarted()
	return active
}

// end drops a session locally. It is safe to call more than once.
func (m *Manager) end(active *Active, reason string) {
	m.mu.Lock()
	current, ok := m.live[active.id]
	if ok && current == active {
		delete(m.live, active.id)
	}
	m.mu.Unlock()
	if !ok || current != active {
		return
	}

	active.refresher.stop()
	metrics.SessionEnded()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.Delete(ctx, active.id); err != nil {
		m.logger.Error("failed to delete session", "session_id", active.id, "error", err)
	}
	m.logger.Info("session ended", "session_id", active.id, "reason", reason)
}

// Refresh renews the upstream token now. A returned admin profile replaces
// the cached one.
func (m *Manager) Refresh(ctx context.Context, id uuid.UUID) (*Active, error) {
	m.mu.Lock()
	active, ok := m.live[id]
	m.mu.Unlock()
	if !ok {
		return nil, errSessionEnded
	}

	result, err := active.api.RefreshToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh upstream token: %w", err)
	}
	if result.Admin != nil {
		m.storeAdmin(ctx, active, *result.Admin)
	}
	return active, nil
}

// Me re-reads the admin profile from upstream; the cached copy is only ever
// written from such responses.
func (m *Manager) Me(ctx context.Context, active *Active) (*models.Admin, error) {
	admin, err := active.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	m.storeAdmin(ctx, active, *admin)
	return admin, nil
}

func (m *Manager) storeAdmin(ctx context.Context, active *Active, admin models.Admin) {
	active.setAdmin(admin)
	if err := m.store.UpdateAdmin(ctx, active.id, admin); err != nil {
		m.logger.Error("failed to persist admin profile", "session_id", active.id, "error", err)
	}
}

// Logout signs out upstream and always ends the local session, even when
// the upstream call fails.
func (m *Manager) Logout(ctx context.Context, active *Active) error {
	err := active.api.Logout(ctx)
	if err != nil {
		m.logger.Warn("upstream logout failed", "session_id", active.id, "error", err)
	}
	m.end(active, "logout")
	if err != nil && !upstream.IsAuthRejection(err) {
		return err
	}
	return nil
}

// Cleanup removes expired sessions from memory and from the store.
func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	now := m.now()
	m.mu.Lock()
	var expired []*Active
	for _, a := range m.live {
		if a.Record().Expired(now) {
			expired = append(expired, a)
		}
	}
	m.mu.Unlock()

	for _, a := range expired {
		m.end(a, "expired")
	}
	return m.store.CleanupExpired(ctx)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Cleanup(ctx)
			if err != nil {
				m.logger.Error("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				m.logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}

// Close stops every refresher without ending the sessions, so they can be
// restored by the next process.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.live {
		a.refresher.stop()
		delete(m.live, id)
		metrics.SessionEnded()
	}
}
