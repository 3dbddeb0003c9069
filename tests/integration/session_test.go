package integration

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_Integration_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTest(t)
	fixtures := testutil.NewFixtures(db)
	store := session.NewPostgresStore(db)
	ctx := context.Background()

	created := fixtures.CreateSession(t, testutil.WithScope("pod-7"))
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.AdminID, got.AdminID)
	assert.Equal(t, created.Token, got.Token)
	assert.Nil(t, got.RefreshedAt)
	require.NotNil(t, got.Admin.PodID)
	assert.Equal(t, "pod-7", *got.Admin.PodID)
	assert.Equal(t, "pod-7", got.Admin.ScopePodID())
}

func TestSessionStore_Integration_SuperAdminRoleSurvives(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTest(t)
	fixtures := testutil.NewFixtures(db)
	store := session.NewPostgresStore(db)

	created := fixtures.CreateSession(t, testutil.WithSuperAdmin())

	got, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, got.Admin.IsSuperAdmin())
	assert.Equal(t, "", got.Admin.ScopePodID())
}

func TestSessionStore_Integration_UpdateToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTest(t)
	fixtures := testutil.NewFixtures(db)
	store := session.NewPostgresStore(db)
	ctx := context.Background()

	created := fixtures.CreateSession(t, testutil.WithToken("old-token"))

	require.NoError(t, store.UpdateToken(ctx, created.ID, "new-token"))

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-token", got.Token)
	assert.NotNil(t, got.RefreshedAt)
}

func TestSessionStore_Integration_UpdateAdmin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTest(t)
	fixtures := testutil.NewFixtures(db)
	store := session.NewPostgresStore(db)
	ctx := context.Background()

	created := fixtures.CreateSession(t)
	profile := created.Admin
	profile.Email = "renamed@example.com"

	require.NoError(t, store.UpdateAdmin(ctx, created.ID, profile))

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed@example.com", got.Email)
	assert.Equal(t, "renamed@example.com", got.Admin.Email)
}

func TestSessionStore_Integration_MissingSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTest(t)
	store := session.NewPostgresStore(db)
	ctx := context.Background()

	_, err := store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	err = store.UpdateToken(ctx, uuid.New(), "token")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	err = store.UpdateAdmin(ctx, uuid.New(), models.Admin{ID: "adm-x"})
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionStore_Integration_CleanupExpired(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTest(t)
	fixtures := testutil.NewFixtures(db)
	store := session.NewPostgresStore(db)
	ctx := context.Background()

	expired := fixtures.CreateSession(t, testutil.WithExpiry(time.Now().Add(-time.Hour)))
	live := fixtures.CreateSession(t)

	removed, err := store.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.Get(ctx, expired.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = store.Get(ctx, live.ID)
	assert.NoError(t, err)
}

func TestSessionStore_Integration_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTest(t)
	fixtures := testutil.NewFixtures(db)
	store := session.NewPostgresStore(db)
	ctx := context.Background()

	created := fixtures.CreateSession(t)
	require.NoError(t, store.Delete(ctx, created.ID))

	_, err := store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
