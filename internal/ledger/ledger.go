// Package ledger keeps a pod's license counters consistent with the licenses
// held by its users as they are added, removed and imported in bulk.
//
// Every function works on in-memory pods. Callers send the resulting changes
// upstream and refetch; nothing here performs I/O.
package ledger

import (
	"strings"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/hierarchy"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AddUser charges user's licenses to pod. Only super-admins may exceed the
// pod's available pool; when they do the pool grows to cover the shortfall.
func AddUser(pod *models.Pod, user models.PodUser, actor *models.Admin) error {
	if strings.TrimSpace(user.Name) == "" {
		return apperr.Validation("name", "name is required")
	}
	if !ValidEmail(strings.TrimSpace(user.Email)) {
		return apperr.Validation("email", "invalid email address %q", user.Email)
	}
	if user.Licenses < 0 {
		return apperr.Validation("licenses", "must be a non-negative number")
	}
	if pod.IsDeleted {
		return apperr.Precondition("pod %s is deleted; restore it before adding users", pod.Name)
	}
	if !actor.IsSuperAdmin() && user.Licenses > pod.AvailableLicenses {
		return apperr.Validation("licenses", "insufficient licenses: requested %d, available %d",
			user.Licenses, pod.AvailableLicenses)
	}
	return pod.Assign(user.Licenses)
}

// RemoveUser returns user's licenses to pod.
func RemoveUser(pod *models.Pod, user models.PodUser) {
	pod.Release(user.Licenses)
}

// Directory resolves pod names, case-insensitively, to the active pods known
// upstream.
type Directory struct {
	pods   []models.Pod
	index  hierarchy.Index
	byName map[string]*models.Pod
}

func NewDirectory(pods []models.Pod) *Directory {
	owned := make([]models.Pod, len(pods))
	copy(owned, pods)

	d := &Directory{
		pods:   owned,
		index:  hierarchy.NewIndex(owned),
		byName: make(map[string]*models.Pod, len(owned)),
	}
	for i := range owned {
		if owned[i].IsDeleted {
			continue
		}
		key := nameKey(owned[i].Name)
		if _, taken := d.byName[key]; !taken {
			d.byName[key] = &owned[i]
		}
	}
	return d
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func (d *Directory) Resolve(name string) (*models.Pod, bool) {
	pod, ok := d.byName[nameKey(name)]
	return pod, ok
}

func (d *Directory) Get(id string) (*models.Pod, bool) {
	pod, ok := d.index[id]
	return pod, ok
}

// Pods returns the directory's own copies, including any counter changes
// applied by imports.
func (d *Directory) Pods() []models.Pod {
	return d.pods
}

func (d *Directory) checkScope(actor *models.Admin, pod *models.Pod) error {
	ok, err := d.index.InScope(actor.ScopePodID(), pod.ID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Precondition("pod %s is outside your assigned pod", pod.Name)
	}
	return nil
}
