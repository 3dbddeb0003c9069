// Package lifecycle is the soft-delete state machine for pods:
//
//	Active -> Deleted       soft delete, never cascades to children
//	Deleted -> Active       restore, only under an active (or absent) parent
//	Deleted -> Purged       permanent delete, childless pods only, confirmed
//
// The checks run before the matching upstream call so the console can refuse
// early with an actionable message; the upstream stays authoritative.
package lifecycle

import (
	"time"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/hierarchy"
	"github.com/dimitrije/pod-console/internal/models"
)

type State string

const (
	Active  State = "active"
	Deleted State = "deleted"
	Purged  State = "purged"
)

// ConfirmationToken must be typed back before a pod is purged.
const ConfirmationToken = "DELETE"

func StateOf(pod *models.Pod) State {
	if pod.IsDeleted {
		return Deleted
	}
	return Active
}

// SoftDelete marks pod deleted. Children keep their own state.
func SoftDelete(pod *models.Pod, now time.Time) error {
	if StateOf(pod) != Active {
		return apperr.Precondition("pod %s is already deleted", pod.Name)
	}
	pod.IsDeleted = true
	deletedAt := now
	pod.DeletedAt = &deletedAt
	return nil
}

// CanRestore checks id against the current pod listing without changing it.
func CanRestore(pods []models.Pod, id string) error {
	idx := hierarchy.NewIndex(pods)
	pod, ok := idx[id]
	if !ok {
		return apperr.NotFound("pod", id)
	}
	if StateOf(pod) != Deleted {
		return apperr.Precondition("pod %s is not deleted", pod.Name)
	}
	if idx.ParentDeleted(id) {
		return apperr.Precondition("cannot restore %s: its parent pod %s is deleted; restore the parent pod first",
			pod.Name, idx.ParentName(id))
	}
	return nil
}

// Restore flips id back to active in pods.
func Restore(pods []models.Pod, id string) error {
	if err := CanRestore(pods, id); err != nil {
		return err
	}
	for i := range pods {
		if pods[i].ID == id {
			pods[i].IsDeleted = false
			pods[i].DeletedAt = nil
		}
	}
	return nil
}

// CanPurge checks a permanent delete of id. confirmation must equal
// ConfirmationToken.
func CanPurge(pods []models.Pod, id, confirmation string) error {
	idx := hierarchy.NewIndex(pods)
	pod, ok := idx[id]
	if !ok {
		return apperr.NotFound("pod", id)
	}
	if StateOf(pod) != Deleted {
		return apperr.Precondition("pod %s must be deleted before it can be permanently deleted", pod.Name)
	}
	if confirmation != ConfirmationToken {
		return apperr.Validation("confirmation", "type %s to confirm permanent deletion", ConfirmationToken)
	}
	if children := hierarchy.Children(pods, id); len(children) > 0 {
		return apperr.Precondition("pod %s still has %d child pod(s); purge or move them first", pod.Name, len(children))
	}
	return nil
}

// Purge removes id from pods and returns the shortened listing.
func Purge(pods []models.Pod, id, confirmation string) ([]models.Pod, error) {
	if err := CanPurge(pods, id, confirmation); err != nil {
		return pods, err
	}
	out := make([]models.Pod, 0, len(pods)-1)
	for _, p := range pods {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out, nil
}

// BinEntry is a deleted pod as the recycle bin lists it.
type BinEntry struct {
	Pod           models.Pod `json:"pod"`
	DisplayLevel  int        `json:"display_level"`
	ParentName    string     `json:"parent_name,omitempty"`
	ParentDeleted bool       `json:"parent_deleted"`
	CanRestore    bool       `json:"can_restore"`
	ChildCount    int        `json:"child_count"`
}

// Bin lists the deleted pods of a full listing as a flattened tree, after
// applying the name/email search. Restore and purge eligibility is computed
// against the full listing.
func Bin(pods []models.Pod, search string) ([]BinEntry, error) {
	idx := hierarchy.NewIndex(pods)

	rows, err := hierarchy.Tree(hierarchy.Filter(hierarchy.Deleted(pods), search))
	if err != nil {
		return nil, err
	}

	entries := make([]BinEntry, 0, len(rows))
	for _, row := range rows {
		id := row.Pod.ID
		parentDeleted := idx.ParentDeleted(id)
		entries = append(entries, BinEntry{
			Pod:           *row.Pod,
			DisplayLevel:  row.DisplayLevel,
			ParentName:    idx.ParentName(id),
			ParentDeleted: parentDeleted,
			CanRestore:    !parentDeleted,
			ChildCount:    len(hierarchy.Children(pods, id)),
		})
	}
	return entries, nil
}
