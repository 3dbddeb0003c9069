package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS admin_sessions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		admin_id VARCHAR(64) NOT NULL,
		email VARCHAR(255) NOT NULL,
		token TEXT NOT NULL,
		admin JSONB NOT NULL DEFAULT '{}',
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_admin_sessions_admin_id ON admin_sessions(admin_id)`,
	`CREATE INDEX IF NOT EXISTS idx_admin_sessions_expires_at ON admin_sessions(expires_at)`,

	// Upstream token refreshes are recorded so a console restart can tell how
	// stale a restored session is.
	`ALTER TABLE admin_sessions ADD COLUMN IF NOT EXISTS refreshed_at TIMESTAMP WITH TIME ZONE`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
