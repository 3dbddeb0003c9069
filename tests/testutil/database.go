package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/pod-console/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Postgres is one throwaway server shared by a test package.
type Postgres struct {
	container testcontainers.Container
	DSN       string
}

// StartPostgres boots a postgres:16 container. It takes no *testing.T so a
// TestMain can own the container for the whole package.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "console",
				"POSTGRES_PASSWORD": "console",
				"POSTGRES_DB":       "pod_console",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	endpoint, err := container.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("resolve postgres endpoint: %w", err)
	}

	return &Postgres{
		container: container,
		DSN:       fmt.Sprintf("postgres://console:console@%s/pod_console?sslmode=disable", endpoint),
	}, nil
}

func (p *Postgres) Terminate(ctx context.Context) error {
	return p.container.Terminate(ctx)
}

// NewDB connects to the shared server, applies migrations and empties the
// session table so every test starts clean.
func (p *Postgres) NewDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, p.DSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, "TRUNCATE TABLE admin_sessions"); err != nil {
		t.Fatalf("reset admin_sessions: %v", err)
	}
	return db
}
