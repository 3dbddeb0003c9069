package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dimitrije/pod-console/internal/database"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PostgresStore struct {
	db *database.DB
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, sess *models.AdminSession) error {
	admin, err := json.Marshal(sess.Admin)
	if err != nil {
		return fmt.Errorf("failed to encode admin: %w", err)
	}
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO admin_sessions (id, admin_id, email, token, admin, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, sess.ID, sess.AdminID, sess.Email, sess.Token, admin, sess.ExpiresAt).Scan(&sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.AdminSession, error) {
	var sess models.AdminSession
	var admin []byte
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, admin_id, email, token, admin, expires_at, refreshed_at, created_at, updated_at
		FROM admin_sessions WHERE id = $1
	`, id).Scan(&sess.ID, &sess.AdminID, &sess.Email, &sess.Token, &admin,
		&sess.ExpiresAt, &sess.RefreshedAt, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal(admin, &sess.Admin); err != nil {
		return nil, fmt.Errorf("failed to decode session admin: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) UpdateToken(ctx context.Context, id uuid.UUID, token string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE admin_sessions SET token = $2, refreshed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id, token)
	if err != nil {
		return fmt.Errorf("failed to update session token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateAdmin(ctx context.Context, id uuid.UUID, admin models.Admin) error {
	data, err := json.Marshal(admin)
	if err != nil {
		return fmt.Errorf("failed to encode admin: %w", err)
	}
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE admin_sessions SET admin = $2, email = $3, updated_at = NOW()
		WHERE id = $1
	`, id, data, admin.Email)
	if err != nil {
		return fmt.Errorf("failed to update session admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM admin_sessions WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
