package services

import (
	"context"
	"fmt"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/hierarchy"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/session"
)

// memberPageSize is the page size used when a service needs a pod's whole
// membership.
const memberPageSize = 500

// Notifier receives pod change events after a mutation succeeds upstream.
type Notifier interface {
	BroadcastPodChange(kind, podID, changedBy string, alsoNotify ...string)
}

type nopNotifier struct{}

func (nopNotifier) BroadcastPodChange(string, string, string, ...string) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// scopedPods lists pods, keeping only the actor's subtree for pod-scoped
// admins.
func scopedPods(ctx context.Context, actor session.Actor, includeDeleted bool) ([]models.Pod, error) {
	pods, err := actor.API().ListPods(ctx, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	return hierarchy.Scope(pods, actor.Admin().ScopePodID())
}

// checkScope refuses pods outside a pod-scoped admin's subtree. The listing
// must include deleted pods when id may be deleted.
func checkScope(pods []models.Pod, actor session.Actor, id string) error {
	scope := actor.Admin().ScopePodID()
	if scope == "" {
		return nil
	}
	idx := hierarchy.NewIndex(pods)
	if _, ok := idx[id]; !ok {
		return apperr.NotFound("pod", id)
	}
	ok, err := idx.InScope(scope, id)
	if err != nil {
		return err
	}
	if !ok {
		return &apperr.AuthError{Status: 403, Message: "pod is outside your assigned pod"}
	}
	return nil
}

// authorize checks id against the full listing for pod-scoped admins. Super
// admins and unscoped admins skip the extra upstream call.
func authorize(ctx context.Context, actor session.Actor, id string) error {
	if actor.Admin().ScopePodID() == "" {
		return nil
	}
	pods, err := actor.API().ListPods(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list pods: %w", err)
	}
	return checkScope(pods, actor, id)
}

// members loads every user of a pod page by page.
func members(ctx context.Context, actor session.Actor, podID string) ([]models.PodUser, error) {
	var out []models.PodUser
	for page := 1; ; page++ {
		p, err := actor.API().PodUsers(ctx, podID, page, memberPageSize, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load users of pod %s: %w", podID, err)
		}
		out = append(out, p.Users...)
		if len(p.Users) == 0 || page >= p.Pagination.Pages {
			return out, nil
		}
	}
}

// podInterviews loads every interview of a pod page by page, ignoring any
// list filter.
func podInterviews(ctx context.Context, actor session.Actor, podID string) ([]models.Interview, error) {
	var out []models.Interview
	for page := 1; ; page++ {
		p, err := actor.API().PodInterviews(ctx, podID, models.InterviewFilter{Page: page, Limit: memberPageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to load interviews of pod %s: %w", podID, err)
		}
		out = append(out, p.Interviews...)
		if len(p.Interviews) == 0 || page >= p.Pagination.Pages {
			return out, nil
		}
	}
}

func actorID(actor session.Actor) string {
	return actor.Admin().ID
}
