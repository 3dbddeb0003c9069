package services

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/dimitrije/pod-console/internal/ledger"
	"github.com/dimitrije/pod-console/internal/metrics"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/internal/sse"
	"github.com/dimitrije/pod-console/internal/upstream"
	"golang.org/x/sync/errgroup"
)

const opMassUpload = "mass_upload"

// MassUploadService spreads one user file across many pods by the file's
// pod name column.
type MassUploadService struct {
	notify      Notifier
	logger      *slog.Logger
	concurrency int
}

func NewMassUploadService(notify Notifier, concurrency int, logger *slog.Logger) *MassUploadService {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MassUploadService{notify: notifierOrNop(notify), logger: logger, concurrency: concurrency}
}

func (s *MassUploadService) Template() []byte {
	return ledger.Template()
}

func (s *MassUploadService) directory(ctx context.Context, actor session.Actor) (*ledger.Directory, error) {
	pods, err := scopedPods(ctx, actor, false)
	if err != nil {
		return nil, err
	}
	return ledger.NewDirectory(pods), nil
}

// Preview summarises the file per pod without changing anything.
func (s *MassUploadService) Preview(ctx context.Context, actor session.Actor, fileName string, data []byte) (*ledger.Preview, error) {
	rows, err := ledger.ReadRows(bytes.NewReader(data), fileName)
	if err != nil {
		return nil, err
	}
	dir, err := s.directory(ctx, actor)
	if err != nil {
		return nil, err
	}
	return ledger.PreviewUpload(rows, dir), nil
}

// Upload plans every pod's group with the ledger, then sends one bulk-add
// per planned pod. Pod names that resolve to nothing block the whole upload.
// A group rejected locally or upstream is marked failed; the others proceed.
func (s *MassUploadService) Upload(ctx context.Context, actor session.Actor, fileName string, data []byte) (*ledger.MassResult, error) {
	rows, err := ledger.ReadRows(bytes.NewReader(data), fileName)
	if err != nil {
		return nil, err
	}
	dir, err := s.directory(ctx, actor)
	if err != nil {
		return nil, err
	}

	groups, missing, _ := ledger.GroupRows(rows, dir)
	if len(missing) > 0 {
		// MassUpload reports the blocking error.
		return ledger.MassUpload(rows, dir, nil, actor.Admin())
	}

	current, err := s.members(ctx, actor, groups)
	if err != nil {
		return nil, err
	}

	result, err := ledger.MassUpload(rows, dir, current, actor.Admin())
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	failed := make(map[string]error)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, pr := range result.PodResults {
		if pr.Failed() {
			metrics.BulkItem(opMassUpload, false)
			continue
		}
		g.Go(func() error {
			err := actor.API().BulkAdd(gctx, pr.PodID, upstream.BulkUsers{
				NewUsers:      pr.Import.NewUsers,
				ExistingUsers: pr.Import.ExistingUsers,
				InvalidEmails: pr.Import.InvalidEmails,
			})
			metrics.BulkItem(opMassUpload, err == nil)
			if err != nil {
				s.logger.Warn("mass upload group failed", "pod_id", pr.PodID, "error", err)
				mu.Lock()
				failed[pr.PodID] = err
				mu.Unlock()
				return nil
			}
			s.notify.BroadcastPodChange(sse.MembersChanged, pr.PodID, actorID(actor))
			return nil
		})
	}
	_ = g.Wait()

	for podID, err := range failed {
		result.Fail(podID, err)
	}

	s.logger.Info("mass upload finished",
		"admin_id", actorID(actor),
		"pods", result.TotalPodsAffected,
		"failed_pods", result.FailedPods,
		"users_added", result.TotalUsersAdded,
		"users_updated", result.TotalUsersUpdated)
	return result, nil
}

func (s *MassUploadService) members(ctx context.Context, actor session.Actor, groups []ledger.Group) (map[string][]models.PodUser, error) {
	out := make(map[string][]models.PodUser, len(groups))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, grp := range groups {
		id := grp.Pod.ID
		g.Go(func() error {
			users, err := members(gctx, actor, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = users
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
