package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dimitrije/pod-console/internal/upstream"
)

// refresher renews one session's upstream token on a fixed interval. The
// timer restarts whenever the token changes and stops while there is no
// token. Only a 401 or 403 from the refresh endpoint ends the session; other
// failures are logged and retried at the next tick.
type refresher struct {
	interval time.Duration
	timeout  time.Duration
	refresh  func(ctx context.Context) error
	current  func() string
	rejected func()
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func (r *refresher) arm(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.stopped || token == "" || r.interval <= 0 {
		return
	}
	r.timer = time.AfterFunc(r.interval, r.fire)
}

func (r *refresher) armed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer != nil
}

func (r *refresher) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *refresher) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := r.refresh(ctx)
	if err != nil && upstream.IsAuthRejection(err) {
		r.logger.Warn("token refresh rejected, ending session", "error", err)
		r.rejected()
		return
	}
	if err != nil {
		r.logger.Warn("token refresh failed", "error", err)
	}
	r.arm(r.current())
}
