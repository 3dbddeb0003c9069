package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/upstream"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]models.AdminSession
}

func newMemStore() *memStore {
	return &memStore{sessions: map[uuid.UUID]models.AdminSession{}}
}

func (s *memStore) Create(_ context.Context, sess *models.AdminSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*models.AdminSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *memStore) UpdateToken(_ context.Context, id uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.Token = token
	s.sessions[id] = sess
	return nil
}

func (s *memStore) UpdateAdmin(_ context.Context, id uuid.UUID, admin models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.Admin = admin
	s.sessions[id] = sess
	return nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memStore) CleanupExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.Expired(time.Now()) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) token(id uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess.Token, ok
}

type fakeUpstream struct {
	refreshStatus atomic.Int32
	refreshes     atomic.Int32
	logouts       atomic.Int32
}

func (f *fakeUpstream) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/admin/login":
		_, _ = w.Write([]byte(`{"token":"t0","admin":{"_id":"a1","name":"Ana","email":"ana@x.com","isSuperAdmin":true}}`))
	case "/admin/refresh-token":
		n := f.refreshes.Add(1)
		if status := f.refreshStatus.Load(); status != 0 {
			w.WriteHeader(int(status))
			_, _ = w.Write([]byte(`{"message":"nope"}`))
			return
		}
		_, _ = w.Write([]byte(`{"accessToken":"t` + string(rune('0'+n)) + `"}`))
	case "/admin/logout":
		f.logouts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	case "/admin/me":
		_, _ = w.Write([]byte(`{"admin":{"_id":"a1","name":"Ana Renamed","email":"ana@x.com","role":"super-admin"}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setupManager(t *testing.T, interval time.Duration) (*Manager, *memStore, *fakeUpstream) {
	t.Helper()
	fake := &fakeUpstream{}
	server := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(server.Close)

	store := newMemStore()
	m := NewManager(store, upstream.New(server.URL, 5*time.Second, nil), Options{RefreshInterval: interval, TTL: time.Hour})
	t.Cleanup(m.Close)
	return m, store, fake
}

func TestManager_Login(t *testing.T) {
	m, store, _ := setupManager(t, time.Hour)

	active, err := m.Login(context.Background(), "ana@x.com", "pw")

	require.NoError(t, err)
	assert.True(t, active.Admin().IsSuperAdmin())
	assert.Empty(t, active.Record().Token)
	token, ok := store.token(active.ID())
	assert.True(t, ok)
	assert.Equal(t, "t0", token)
	assert.True(t, active.refresher.armed())
}

func TestManager_RefresherRenewsAndPersists(t *testing.T) {
	m, store, fake := setupManager(t, 20*time.Millisecond)

	active, err := m.Login(context.Background(), "ana@x.com", "pw")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return fake.refreshes.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		token, _ := store.token(active.ID())
		return token != "t0"
	}, time.Second, 10*time.Millisecond)
}

func TestManager_RefreshRejectedEndsSession(t *testing.T) {
	m, store, fake := setupManager(t, 20*time.Millisecond)
	fake.refreshStatus.Store(http.StatusForbidden)

	active, err := m.Login(context.Background(), "ana@x.com", "pw")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := store.token(active.ID())
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	_, err = m.Get(context.Background(), active.ID())
	assert.True(t, apperr.IsAuth(err))
}

func TestManager_RefreshServerErrorKeepsSession(t *testing.T) {
	m, store, fake := setupManager(t, 20*time.Millisecond)
	fake.refreshStatus.Store(http.StatusInternalServerError)

	active, err := m.Login(context.Background(), "ana@x.com", "pw")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return fake.refreshes.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	_, ok := store.token(active.ID())
	assert.True(t, ok)
	assert.True(t, active.refresher.armed())
}

func TestManager_ClearedTokenDisarms(t *testing.T) {
	m, store, _ := setupManager(t, time.Hour)

	active, err := m.Login(context.Background(), "ana@x.com", "pw")
	require.NoError(t, err)

	active.API().Credentials().Clear()

	assert.False(t, active.refresher.armed())
	_, ok := store.token(active.ID())
	assert.False(t, ok)
}

func TestManager_LogoutEndsSessionDespiteUpstreamFailure(t *testing.T) {
	m, store, fake := setupManager(t, time.Hour)
	active, err := m.Login(context.Background(), "ana@x.com", "pw")
	require.NoError(t, err)

	err = m.Logout(context.Background(), active)

	assert.Error(t, err)
	assert.Equal(t, int32(1), fake.logouts.Load())
	_, ok := store.token(active.ID())
	assert.False(t, ok)
}

func TestManager_GetRestoresFromStore(t *testing.T) {
	m, store, _ := setupManager(t, time.Hour)
	id := uuid.New()
	require.NoError(t, store.Create(context.Background(), &models.AdminSession{
		ID:        id,
		Token:     "opaque",
		Admin:     models.Admin{ID: "a1"},
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	active, err := m.Get(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "opaque", active.API().Credentials().Value())
}

func TestManager_GetExpired(t *testing.T) {
	m, store, _ := setupManager(t, time.Hour)
	id := uuid.New()
	require.NoError(t, store.Create(context.Background(), &models.AdminSession{ID: id, Token: "tok", ExpiresAt: time.Now().Add(-time.Minute)}))

	_, err := m.Get(context.Background(), id)

	assert.True(t, apperr.IsAuth(err))
	_, ok := store.token(id)
	assert.False(t, ok)
}

func TestManager_GetLiveSessionPastExpiry(t *testing.T) {
	m, store, _ := setupManager(t, time.Hour)
	active, err := m.Login(context.Background(), "ana@x.com", "pw")
	require.NoError(t, err)
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = m.Get(context.Background(), active.ID())

	assert.True(t, apperr.IsAuth(err))
	_, ok := store.token(active.ID())
	assert.False(t, ok)
}

func TestManager_GetUnknown(t *testing.T) {
	m, _, _ := setupManager(t, time.Hour)

	_, err := m.Get(context.Background(), uuid.New())

	assert.True(t, apperr.IsAuth(err))
}

func TestManager_MeUpdatesCachedAdmin(t *testing.T) {
	m, store, _ := setupManager(t, time.Hour)
	active, err := m.Login(context.Background(), "ana@x.com", "pw")
	require.NoError(t, err)

	admin, err := m.Me(context.Background(), active)

	require.NoError(t, err)
	assert.Equal(t, "Ana Renamed", admin.Name)
	assert.Equal(t, "Ana Renamed", active.Admin().Name)
	stored, _ := store.Get(context.Background(), active.ID())
	assert.Equal(t, "Ana Renamed", stored.Admin.Name)
}

func TestManager_Cleanup(t *testing.T) {
	m, store, _ := setupManager(t, time.Hour)
	active, err := m.Login(context.Background(), "ana@x.com", "pw")
	require.NoError(t, err)
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = m.Cleanup(context.Background())

	require.NoError(t, err)
	_, ok := store.token(active.ID())
	assert.False(t, ok)
}
