package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dimitrije/pod-console/internal/logging"
	"github.com/dimitrije/pod-console/internal/reports"
	"github.com/dimitrije/pod-console/internal/services"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/internal/upstream"
)

const (
	upstreamTimeout  = 120 * time.Second
	batchExportDelay = 500 * time.Millisecond
	bulkConcurrency  = 4
	maxSheetBytes    = 10 << 20
)

var errNotSignedIn = errors.New("not signed in, run podctl login first")

// cli is what every command needs: the upstream client, the keyring-backed
// session and the services running against it.
type cli struct {
	profile  *Profile
	logger   *slog.Logger
	sessions *session.Manager
	store    *session.KeyringStore

	pods       *services.PodService
	massUpload *services.MassUploadService
	reports    *services.ReportService
}

func newCLI() (*cli, error) {
	profile, err := loadProfile(profilePath)
	if err != nil {
		return nil, err
	}
	if apiURLFlag != "" {
		profile.APIURL = apiURLFlag
	}
	if accountFlag != "" {
		profile.Account = accountFlag
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level, false)

	client := upstream.New(profile.APIURL, upstreamTimeout, logger)
	store := session.NewKeyringStore(profile.Account)

	return &cli{
		profile:    profile,
		logger:     logger,
		store:      store,
		sessions:   session.NewManager(store, client, session.Options{Logger: logger}),
		pods:       services.NewPodService(nil, bulkConcurrency, logger),
		massUpload: services.NewMassUploadService(nil, bulkConcurrency, logger),
		reports:    services.NewReportService(reports.NewExporter(batchExportDelay), nil, logger),
	}, nil
}

// actor restores the signed-in session from the keyring. Its refresher
// keeps the upstream token fresh while a long command runs.
func (c *cli) actor(ctx context.Context) (*session.Active, error) {
	record, err := c.store.Current(ctx)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, errNotSignedIn
	}
	if err != nil {
		return nil, err
	}
	return c.sessions.Get(ctx, record.ID)
}

func (c *cli) close() {
	c.sessions.Close()
}

// withActor runs fn with the signed-in session and releases it afterwards.
func withActor(ctx context.Context, fn func(c *cli, a *session.Active) error) error {
	c, err := newCLI()
	if err != nil {
		return err
	}
	defer c.close()

	a, err := c.actor(ctx)
	if err != nil {
		return err
	}
	return fn(c, a)
}

// readSheet loads an upload file, refusing empty or oversized ones.
func readSheet(path string) (string, []byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if info.Size() == 0 {
		return "", nil, fmt.Errorf("%s is empty", path)
	}
	if info.Size() > maxSheetBytes {
		return "", nil, fmt.Errorf("%s exceeds %d MB", path, maxSheetBytes>>20)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return filepath.Base(path), data, nil
}
