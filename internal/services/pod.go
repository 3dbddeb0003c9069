package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/hierarchy"
	"github.com/dimitrije/pod-console/internal/ledger"
	"github.com/dimitrije/pod-console/internal/lifecycle"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/internal/sse"
	"github.com/dimitrije/pod-console/internal/upstream"
	"golang.org/x/sync/errgroup"
)

type PodService struct {
	notify      Notifier
	logger      *slog.Logger
	concurrency int
	now         func() time.Time
}

func NewPodService(notify Notifier, concurrency int, logger *slog.Logger) *PodService {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PodService{
		notify:      notifierOrNop(notify),
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}
}

type CreatePodInput struct {
	Name              string
	Type              models.PodType
	Email             string
	EducationalStatus string
	OrganizationName  string
	InstituteName     string
	ParentPodID       string
}

// Tree returns the actor's active pods as flattened tree rows, after the
// name/email search.
func (s *PodService) Tree(ctx context.Context, actor session.Actor, search string) ([]hierarchy.Row, error) {
	pods, err := scopedPods(ctx, actor, false)
	if err != nil {
		return nil, err
	}
	return hierarchy.Tree(hierarchy.Filter(hierarchy.Active(pods), search))
}

// Bin lists the actor's soft-deleted pods.
func (s *PodService) Bin(ctx context.Context, actor session.Actor, search string) ([]lifecycle.BinEntry, error) {
	pods, err := scopedPods(ctx, actor, true)
	if err != nil {
		return nil, err
	}
	return lifecycle.Bin(pods, search)
}

func (s *PodService) Create(ctx context.Context, actor session.Actor, input CreatePodInput) (*models.Pod, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if input.Name == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	if !input.Type.Valid() {
		return nil, apperr.Validation("type", "must be institution or organization")
	}
	if !ledger.ValidEmail(input.Email) {
		return nil, apperr.Validation("email", "invalid email address %q", input.Email)
	}

	var parentID *string
	if input.ParentPodID != "" {
		pods, err := actor.API().ListPods(ctx, true)
		if err != nil {
			return nil, fmt.Errorf("failed to list pods: %w", err)
		}
		if err := checkScope(pods, actor, input.ParentPodID); err != nil {
			return nil, err
		}
		parent, ok := hierarchy.NewIndex(pods)[input.ParentPodID]
		if !ok {
			return nil, apperr.NotFound("parent pod", input.ParentPodID)
		}
		if parent.IsDeleted {
			return nil, apperr.Precondition("parent pod %s is deleted; restore it first", parent.Name)
		}
		parentID = &input.ParentPodID
	} else if scope := actor.Admin().ScopePodID(); scope != "" {
		parentID = &scope
	}

	pod, err := actor.API().CreatePod(ctx, upstream.CreatePodInput{
		Name:              input.Name,
		Type:              string(input.Type),
		Email:             input.Email,
		EducationalStatus: input.EducationalStatus,
		OrganizationName:  input.OrganizationName,
		InstituteName:     input.InstituteName,
		ParentPodID:       parentID,
	})
	if err != nil {
		return nil, err
	}

	var also []string
	if parentID != nil {
		also = append(also, *parentID)
	}
	s.notify.BroadcastPodChange(sse.PodCreated, pod.ID, actorID(actor), also...)
	s.logger.Info("pod created", "pod_id", pod.ID, "admin_id", actorID(actor))
	return pod, nil
}

func (s *PodService) Get(ctx context.Context, actor session.Actor, id string) (*models.Pod, error) {
	if err := authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	return actor.API().GetPod(ctx, id)
}

// Children lists the direct children of id.
func (s *PodService) Children(ctx context.Context, actor session.Actor, id string) ([]models.Pod, error) {
	if err := authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	return actor.API().PodsByParent(ctx, id)
}

// Hierarchy returns id with its parent and direct children. When the
// upstream sends children as bare ids the full listing fills them in.
func (s *PodService) Hierarchy(ctx context.Context, actor session.Actor, id string) (*upstream.Hierarchy, error) {
	if err := authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	h, err := actor.API().PodHierarchy(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(h.Children) > 0 {
		return h, nil
	}

	pods, err := actor.API().ListPods(ctx, false)
	if err != nil {
		return h, nil
	}
	if n, err := hierarchy.NeighbourhoodOf(pods, id); err == nil {
		h.Children = n.Children
		if h.Parent == nil {
			h.Parent = n.Parent
		}
	}
	if h.Children == nil {
		h.Children = []models.Pod{}
	}
	return h, nil
}

func (s *PodService) Analytics(ctx context.Context, actor session.Actor, id string) (*models.PodAnalytics, error) {
	if err := authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	return actor.API().PodAnalytics(ctx, id)
}

type AggregatedAnalytics struct {
	Totals models.PodAnalytics `json:"totals"`
	Pods   int                 `json:"pods"`
	Failed map[string]string   `json:"failed,omitempty"`
}

// AggregatedAnalytics sums the analytics of every active pod in the actor's
// scope. A pod whose analytics fail is listed in Failed and left out of the
// totals. Completion rate is weighted by each pod's user count.
func (s *PodService) AggregatedAnalytics(ctx context.Context, actor session.Actor) (*AggregatedAnalytics, error) {
	pods, err := scopedPods(ctx, actor, false)
	if err != nil {
		return nil, err
	}
	pods = hierarchy.Active(pods)

	results := make([]*models.PodAnalytics, len(pods))
	errs := make([]error, len(pods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range pods {
		g.Go(func() error {
			results[i], errs[i] = actor.API().PodAnalytics(gctx, pods[i].ID)
			return nil
		})
	}
	_ = g.Wait()

	out := &AggregatedAnalytics{Failed: map[string]string{}}
	weighted := 0.0
	for i, a := range results {
		if errs[i] != nil {
			out.Failed[pods[i].ID] = apperr.Message(errs[i])
			s.logger.Warn("pod analytics failed", "pod_id", pods[i].ID, "error", errs[i])
			continue
		}
		out.Totals.Add(*a)
		weighted += a.CompletionRate * float64(a.TotalUsers)
		out.Pods++
	}
	if out.Totals.TotalUsers > 0 {
		out.Totals.CompletionRate = weighted / float64(out.Totals.TotalUsers)
	}
	return out, nil
}

func (s *PodService) Users(ctx context.Context, actor session.Actor, id string, page, limit int, search string) (*models.UserPage, error) {
	if err := authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	return actor.API().PodUsers(ctx, id, page, limit, search)
}

type AddUserInput struct {
	Name          string
	Email         string
	Qualification string
	DOB           string
	Licenses      int
}

// AddUser checks the license cap locally, adds the user upstream and returns
// the refetched pod.
func (s *PodService) AddUser(ctx context.Context, actor session.Actor, podID string, input AddUserInput) (*models.Pod, error) {
	if err := authorize(ctx, actor, podID); err != nil {
		return nil, err
	}
	pod, err := actor.API().GetPod(ctx, podID)
	if err != nil {
		return nil, err
	}

	user := models.PodUser{
		PodID:    podID,
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.TrimSpace(input.Email),
		Licenses: input.Licenses,
	}
	expected := *pod
	if err := ledger.AddUser(&expected, user, actor.Admin()); err != nil {
		return nil, err
	}

	err = actor.API().AddUser(ctx, podID, upstream.AddUserInput{
		Name:          user.Name,
		Email:         user.Email,
		Qualification: input.Qualification,
		DOB:           input.DOB,
		Licenses:      input.Licenses,
	})
	if err != nil {
		return nil, err
	}

	return s.settle(ctx, actor, &expected, sse.MembersChanged)
}

// RemoveUser removes userID from the pod and returns the refetched pod.
func (s *PodService) RemoveUser(ctx context.Context, actor session.Actor, podID, userID string) (*models.Pod, error) {
	if err := authorize(ctx, actor, podID); err != nil {
		return nil, err
	}
	pod, err := actor.API().GetPod(ctx, podID)
	if err != nil {
		return nil, err
	}
	users, err := members(ctx, actor, podID)
	if err != nil {
		return nil, err
	}

	var expected *models.Pod
	for _, u := range users {
		if u.ID == userID {
			p := *pod
			ledger.RemoveUser(&p, u)
			expected = &p
			break
		}
	}
	if expected == nil {
		return nil, apperr.NotFound("user", userID)
	}

	if err := actor.API().RemoveUser(ctx, podID, userID); err != nil {
		return nil, err
	}
	return s.settle(ctx, actor, expected, sse.MembersChanged)
}

// PreviewUsers forwards an import file to the upstream preview.
func (s *PodService) PreviewUsers(ctx context.Context, actor session.Actor, podID, fileName string, data []byte) (*upstream.BulkUsers, error) {
	if err := authorize(ctx, actor, podID); err != nil {
		return nil, err
	}
	return actor.API().PreviewUsers(ctx, podID, fileName, data)
}

// UploadUsersExcel forwards an import file to the upstream in one call; the
// upstream applies it without a local plan.
func (s *PodService) UploadUsersExcel(ctx context.Context, actor session.Actor, podID, fileName string, data []byte) (*models.Pod, error) {
	if err := authorize(ctx, actor, podID); err != nil {
		return nil, err
	}
	if err := actor.API().UploadUsersExcel(ctx, podID, fileName, data); err != nil {
		return nil, err
	}
	pod, err := actor.API().GetPod(ctx, podID)
	if err != nil {
		return nil, err
	}
	s.notify.BroadcastPodChange(sse.MembersChanged, podID, actorID(actor))
	return pod, nil
}

type BulkImportResult struct {
	Import *ledger.ImportResult `json:"import"`
	Pod    *models.Pod          `json:"pod,omitempty"`
	DryRun bool                 `json:"dry_run"`
}

// BulkImport plans an import file against the pod and its current members,
// then sends the planned users upstream in one bulk-add. With dryRun the
// plan is returned without calling bulk-add. A rejected plan is returned
// alongside its error.
func (s *PodService) BulkImport(ctx context.Context, actor session.Actor, podID, fileName string, data []byte, dryRun bool) (*BulkImportResult, error) {
	rows, err := ledger.ReadRows(bytes.NewReader(data), fileName)
	if err != nil {
		return nil, err
	}

	pods, err := actor.API().ListPods(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	if err := checkScope(pods, actor, podID); err != nil {
		return nil, err
	}
	pod, err := actor.API().GetPod(ctx, podID)
	if err != nil {
		return nil, err
	}
	current, err := members(ctx, actor, podID)
	if err != nil {
		return nil, err
	}

	expected := *pod
	plan, err := ledger.BulkImport(&expected, rows, current, ledger.NewDirectory(pods), actor.Admin())
	result := &BulkImportResult{Import: plan, DryRun: dryRun}
	if err != nil || dryRun {
		return result, err
	}

	if err := s.dispatch(ctx, actor, podID, plan); err != nil {
		return result, err
	}

	result.Pod, err = s.settle(ctx, actor, &expected, sse.MembersChanged)
	return result, err
}

func (s *PodService) dispatch(ctx context.Context, actor session.Actor, podID string, plan *ledger.ImportResult) error {
	return actor.API().BulkAdd(ctx, podID, upstream.BulkUsers{
		NewUsers:      plan.NewUsers,
		ExistingUsers: plan.ExistingUsers,
		InvalidEmails: plan.InvalidEmails,
	})
}

// SoftDelete moves the pod to the bin. Children keep their own state.
func (s *PodService) SoftDelete(ctx context.Context, actor session.Actor, id string) error {
	pods, err := actor.API().ListPods(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list pods: %w", err)
	}
	if err := checkScope(pods, actor, id); err != nil {
		return err
	}
	pod, ok := hierarchy.NewIndex(pods)[id]
	if !ok {
		return apperr.NotFound("pod", id)
	}
	if id == actor.Admin().ScopePodID() {
		return apperr.Precondition("cannot delete your own assigned pod")
	}
	probe := *pod
	if err := lifecycle.SoftDelete(&probe, s.now()); err != nil {
		return err
	}

	if err := actor.API().SoftDeletePod(ctx, id); err != nil {
		return err
	}
	s.notify.BroadcastPodChange(sse.PodDeleted, id, actorID(actor), parentsOf(pod)...)
	s.logger.Info("pod deleted", "pod_id", id, "admin_id", actorID(actor))
	return nil
}

// Restore brings a pod back from the bin. Its parent must be active.
func (s *PodService) Restore(ctx context.Context, actor session.Actor, id string) error {
	pods, err := actor.API().ListPods(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list pods: %w", err)
	}
	if err := checkScope(pods, actor, id); err != nil {
		return err
	}
	if err := lifecycle.CanRestore(pods, id); err != nil {
		return err
	}

	if err := actor.API().RestorePod(ctx, id); err != nil {
		return err
	}
	s.notify.BroadcastPodChange(sse.PodRestored, id, actorID(actor), parentsOf(hierarchy.NewIndex(pods)[id])...)
	s.logger.Info("pod restored", "pod_id", id, "admin_id", actorID(actor))
	return nil
}

// Purge permanently deletes a childless pod from the bin. confirmation must
// be lifecycle.ConfirmationToken.
func (s *PodService) Purge(ctx context.Context, actor session.Actor, id, confirmation string) error {
	pods, err := actor.API().ListPods(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list pods: %w", err)
	}
	if err := checkScope(pods, actor, id); err != nil {
		return err
	}
	if err := lifecycle.CanPurge(pods, id, confirmation); err != nil {
		return err
	}

	if err := actor.API().PermanentlyDeletePod(ctx, id); err != nil {
		return err
	}
	s.notify.BroadcastPodChange(sse.PodPurged, id, actorID(actor), parentsOf(hierarchy.NewIndex(pods)[id])...)
	s.logger.Warn("pod permanently deleted", "pod_id", id, "admin_id", actorID(actor))
	return nil
}

// SetLicenses replaces the pod's total. It may not drop below what is
// already assigned.
func (s *PodService) SetLicenses(ctx context.Context, actor session.Actor, id string, total int) (*models.Pod, error) {
	if err := authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	pod, err := actor.API().GetPod(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := *pod
	if err := expected.SetTotalLicenses(total); err != nil {
		return nil, err
	}
	if err := actor.API().SetLicenses(ctx, id, total); err != nil {
		return nil, err
	}
	return s.settle(ctx, actor, &expected, sse.LicensesChanged)
}

func (s *PodService) AddLicenses(ctx context.Context, actor session.Actor, id string, amount int) (*models.Pod, error) {
	if err := authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	pod, err := actor.API().GetPod(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := *pod
	if err := expected.AddLicenses(amount); err != nil {
		return nil, err
	}
	if err := actor.API().AddLicenses(ctx, id, amount); err != nil {
		return nil, err
	}
	return s.settle(ctx, actor, &expected, sse.LicensesChanged)
}

// settle refetches the pod after a mutation, warns when the upstream's
// counters differ from the local projection, and broadcasts the change.
func (s *PodService) settle(ctx context.Context, actor session.Actor, expected *models.Pod, kind string) (*models.Pod, error) {
	s.notify.BroadcastPodChange(kind, expected.ID, actorID(actor))

	pod, err := actor.API().GetPod(ctx, expected.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload pod: %w", err)
	}
	if pod.TotalLicenses != expected.TotalLicenses ||
		pod.AssignedLicenses != expected.AssignedLicenses ||
		pod.AvailableLicenses != expected.AvailableLicenses {
		s.logger.Warn("license counters differ from local projection",
			"pod_id", pod.ID,
			"expected_total", expected.TotalLicenses, "total", pod.TotalLicenses,
			"expected_assigned", expected.AssignedLicenses, "assigned", pod.AssignedLicenses)
	}
	if err := pod.CheckConsistency(); err != nil {
		s.logger.Error("upstream pod violates license conservation", "pod_id", pod.ID, "error", err)
	}
	return pod, nil
}

func parentsOf(pod *models.Pod) []string {
	if pod == nil || pod.ParentID() == "" {
		return nil
	}
	return []string{pod.ParentID()}
}
