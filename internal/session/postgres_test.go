package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dimitrije/pod-console/internal/database"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewPostgresStore(db), mock
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock := setupPostgresStore(t)
	ctx := context.Background()
	now := time.Now()
	sess := &models.AdminSession{
		ID:        uuid.New(),
		AdminID:   "a1",
		Email:     "ana@x.com",
		Token:     "tok",
		Admin:     models.Admin{ID: "a1", Email: "ana@x.com", Role: models.SuperAdminRole()},
		ExpiresAt: now.Add(time.Hour),
	}

	mock.ExpectQuery(`INSERT INTO admin_sessions`).
		WithArgs(sess.ID, "a1", "ana@x.com", "tok", pgxmock.AnyArg(), sess.ExpiresAt).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	err := store.Create(ctx, sess)

	assert.NoError(t, err)
	assert.Equal(t, now, sess.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := setupPostgresStore(t)
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()
	admin, _ := json.Marshal(models.Admin{ID: "a1", Name: "Ana", Role: models.NamedRole("viewer", nil)})

	rows := pgxmock.NewRows([]string{
		"id", "admin_id", "email", "token", "admin", "expires_at", "refreshed_at", "created_at", "updated_at",
	}).AddRow(id, "a1", "ana@x.com", "tok", admin, now.Add(time.Hour), nil, now, now)
	mock.ExpectQuery(`SELECT id, admin_id, email, token, admin`).
		WithArgs(id).
		WillReturnRows(rows)

	sess, err := store.Get(ctx, id)

	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, "Ana", sess.Admin.Name)
	assert.False(t, sess.Admin.IsSuperAdmin())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	store, mock := setupPostgresStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT id, admin_id, email, token, admin`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Get(context.Background(), id)

	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateToken(t *testing.T) {
	store, mock := setupPostgresStore(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE admin_sessions SET token`).
		WithArgs(id, "fresh").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.UpdateToken(context.Background(), id, "fresh")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateToken_Missing(t *testing.T) {
	store, mock := setupPostgresStore(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE admin_sessions SET token`).
		WithArgs(id, "fresh").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdateToken(context.Background(), id, "fresh")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPostgresStore_UpdateAdmin(t *testing.T) {
	store, mock := setupPostgresStore(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE admin_sessions SET admin`).
		WithArgs(id, pgxmock.AnyArg(), "new@x.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.UpdateAdmin(context.Background(), id, models.Admin{ID: "a1", Email: "new@x.com"})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock := setupPostgresStore(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM admin_sessions WHERE id`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, store.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CleanupExpired(t *testing.T) {
	store, mock := setupPostgresStore(t)

	mock.ExpectExec(`DELETE FROM admin_sessions WHERE expires_at`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := store.CleanupExpired(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
