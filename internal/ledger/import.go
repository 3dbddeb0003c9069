package ledger

import (
	"sort"
	"strings"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/models"
)

type RowError struct {
	Line   int    `json:"line"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// ImportResult describes one pod's bulk import. NewUsers and ExistingUsers
// are what the upstream bulk-add call receives; existing users carry their
// new license count.
type ImportResult struct {
	PodID            string           `json:"pod_id"`
	PodName          string           `json:"pod_name"`
	NewUsers         []models.PodUser `json:"new_users"`
	ExistingUsers    []models.PodUser `json:"existing_users"`
	InvalidEmails    []string         `json:"invalid_emails"`
	MissingPods      []string         `json:"missing_pods"`
	DuplicateEmails  []string         `json:"duplicate_emails"`
	RowErrors        []RowError       `json:"row_errors"`
	UsersAdded       int              `json:"users_added"`
	UsersUpdated     int              `json:"users_updated"`
	TotalUsers       int              `json:"total_users"`
	LicensesAssigned int              `json:"licenses_assigned"`
}

func newImportResult(pod *models.Pod) *ImportResult {
	return &ImportResult{
		PodID:           pod.ID,
		PodName:         pod.Name,
		NewUsers:        []models.PodUser{},
		ExistingUsers:   []models.PodUser{},
		InvalidEmails:   []string{},
		MissingPods:     []string{},
		DuplicateEmails: []string{},
		RowErrors:       []RowError{},
	}
}

// BulkImport applies rows to pod. Rows with a blank pod name target pod.
//
// Pod resolution is all-or-nothing: if any row names a pod the directory does
// not know, nothing is applied and a PreconditionError is returned. Row
// problems are lenient: malformed emails, in-batch duplicates and negative
// license counts are reported and skipped while the other rows proceed.
// Emails already in members become updates charged by their license delta.
//
// The acting admin is evaluated once for the whole batch. Super-admins bypass
// the license cap; anyone else needs the batch's net license demand to fit in
// the pod's available pool or the batch is rejected with a ValidationError.
//
// The result is returned even when the batch is rejected so callers can show
// what was wrong. The pod's counters change only on success.
func BulkImport(pod *models.Pod, rows []Row, members []models.PodUser, dir *Directory, actor *models.Admin) (*ImportResult, error) {
	result := newImportResult(pod)

	if pod.IsDeleted {
		return result, apperr.Precondition("pod %s is deleted; restore it before importing users", pod.Name)
	}
	if dir != nil {
		if err := dir.checkScope(actor, pod); err != nil {
			return result, err
		}
	}

	existing := make(map[string]models.PodUser, len(members))
	for _, m := range members {
		existing[normalizeEmail(m.Email)] = m
	}

	missing := make(map[string]bool)
	seen := make(map[string]bool)
	demand := 0
	for _, row := range rows {
		if name := strings.TrimSpace(row.PodName); name != "" && nameKey(name) != nameKey(pod.Name) {
			var target *models.Pod
			var ok bool
			if dir != nil {
				target, ok = dir.Resolve(name)
			}
			if !ok {
				if !missing[nameKey(name)] {
					missing[nameKey(name)] = true
					result.MissingPods = append(result.MissingPods, name)
				}
				continue
			}
			result.RowErrors = append(result.RowErrors, RowError{
				Line: row.Line, Email: row.Email,
				Reason: "row belongs to pod " + target.Name,
			})
			continue
		}

		email := strings.TrimSpace(row.Email)
		if !ValidEmail(email) {
			result.InvalidEmails = append(result.InvalidEmails, row.Email)
			continue
		}
		if row.Licenses < 0 {
			result.RowErrors = append(result.RowErrors, RowError{
				Line: row.Line, Email: email, Reason: "licenses must be a non-negative number",
			})
			continue
		}

		key := normalizeEmail(email)
		if seen[key] {
			result.DuplicateEmails = append(result.DuplicateEmails, email)
			continue
		}
		seen[key] = true

		if current, ok := existing[key]; ok {
			updated := current
			if row.Name != "" {
				updated.Name = row.Name
			}
			if row.UniqueID != "" {
				updated.UniqueID = row.UniqueID
			}
			updated.Licenses = row.Licenses
			result.ExistingUsers = append(result.ExistingUsers, updated)
			demand += row.Licenses - current.Licenses
			continue
		}

		result.NewUsers = append(result.NewUsers, models.PodUser{
			PodID:    pod.ID,
			Name:     row.Name,
			Email:    email,
			UniqueID: row.UniqueID,
			Licenses: row.Licenses,
		})
		demand += row.Licenses
	}

	if len(result.MissingPods) > 0 {
		result.NewUsers = []models.PodUser{}
		result.ExistingUsers = []models.PodUser{}
		return result, apperr.Precondition("some pods not found: %s", strings.Join(result.MissingPods, ", "))
	}

	if !actor.IsSuperAdmin() && demand > pod.AvailableLicenses {
		return result, apperr.Validation("licenses",
			"insufficient licenses: import needs %d, pod %s has %d available",
			demand, pod.Name, pod.AvailableLicenses)
	}

	if demand >= 0 {
		if err := pod.Assign(demand); err != nil {
			return result, err
		}
	} else {
		pod.Release(-demand)
	}

	result.UsersAdded = len(result.NewUsers)
	result.UsersUpdated = len(result.ExistingUsers)
	result.TotalUsers = len(members) + result.UsersAdded
	result.LicensesAssigned = demand
	return result, nil
}

type PodResult struct {
	PodID            string        `json:"pod_id"`
	PodName          string        `json:"pod_name"`
	UsersAdded       int           `json:"users_added"`
	UsersUpdated     int           `json:"users_updated"`
	TotalUsers       int           `json:"total_users"`
	LicensesAssigned int           `json:"licenses_assigned"`
	Error            string        `json:"error,omitempty"`
	Import           *ImportResult `json:"-"`
}

func (r PodResult) Failed() bool {
	return r.Error != ""
}

type MassResult struct {
	PodResults            []PodResult `json:"pod_results"`
	InvalidEmails         []string    `json:"invalid_emails"`
	RowErrors             []RowError  `json:"row_errors"`
	TotalPodsAffected     int         `json:"total_pods_affected"`
	TotalUsersAdded       int         `json:"total_users_added"`
	TotalUsersUpdated     int         `json:"total_users_updated"`
	TotalLicensesAssigned int         `json:"total_licenses_assigned"`
	FailedPods            int         `json:"failed_pods"`
}

// Fail marks podID's group as failed after the fact, e.g. when the upstream
// rejected it, and recomputes the totals.
func (m *MassResult) Fail(podID string, err error) {
	for i := range m.PodResults {
		if m.PodResults[i].PodID == podID {
			m.PodResults[i].Error = apperr.Message(err)
		}
	}
	m.summarize()
}

func (m *MassResult) summarize() {
	m.TotalPodsAffected, m.TotalUsersAdded, m.TotalUsersUpdated = 0, 0, 0
	m.TotalLicensesAssigned, m.FailedPods = 0, 0
	for _, r := range m.PodResults {
		if r.Failed() {
			m.FailedPods++
			continue
		}
		m.TotalPodsAffected++
		m.TotalUsersAdded += r.UsersAdded
		m.TotalUsersUpdated += r.UsersUpdated
		m.TotalLicensesAssigned += r.LicensesAssigned
	}
}

// Group is the rows of a mass upload that resolved to one pod.
type Group struct {
	Pod  *models.Pod
	Rows []Row
}

// errPodNameRequired is the row error for a mass upload row without a pod.
const errPodNameRequired = "pod name is required"

// GroupRows splits rows by resolved pod name in first-seen order. Names that
// resolve to no active pod are returned as missing. Rows without a pod name
// come back as row errors.
func GroupRows(rows []Row, dir *Directory) ([]Group, []string, []RowError) {
	var groups []Group
	at := make(map[string]int)
	var missing []string
	var rowErrors []RowError
	missingSeen := make(map[string]bool)

	for _, row := range rows {
		if strings.TrimSpace(row.PodName) == "" {
			rowErrors = append(rowErrors, RowError{Line: row.Line, Email: row.Email, Reason: errPodNameRequired})
			continue
		}
		pod, ok := dir.Resolve(row.PodName)
		if !ok {
			name := strings.TrimSpace(row.PodName)
			if !missingSeen[nameKey(name)] {
				missingSeen[nameKey(name)] = true
				missing = append(missing, name)
			}
			continue
		}
		i, ok := at[pod.ID]
		if !ok {
			i = len(groups)
			at[pod.ID] = i
			groups = append(groups, Group{Pod: pod})
		}
		r := row
		r.PodName = ""
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups, missing, rowErrors
}

// MassUpload distributes rows across pods by pod name and imports each group
// independently. Unresolvable pod names block the whole upload before any
// group runs. After that a group's failure is recorded on its PodResult and
// the remaining groups still run.
func MassUpload(rows []Row, dir *Directory, members map[string][]models.PodUser, actor *models.Admin) (*MassResult, error) {
	groups, missing, rowErrors := GroupRows(rows, dir)
	if len(missing) > 0 {
		return nil, apperr.Precondition("cannot upload: some pods don't exist: %s", strings.Join(missing, ", "))
	}

	result := &MassResult{PodResults: []PodResult{}, InvalidEmails: []string{}, RowErrors: []RowError{}}
	result.RowErrors = append(result.RowErrors, rowErrors...)
	for _, g := range groups {
		imported, err := BulkImport(g.Pod, g.Rows, members[g.Pod.ID], dir, actor)
		result.InvalidEmails = append(result.InvalidEmails, imported.InvalidEmails...)

		pr := PodResult{PodID: g.Pod.ID, PodName: g.Pod.Name, Import: imported}
		if err != nil {
			pr.Error = apperr.Message(err)
		} else {
			pr.UsersAdded = imported.UsersAdded
			pr.UsersUpdated = imported.UsersUpdated
			pr.TotalUsers = imported.TotalUsers
			pr.LicensesAssigned = imported.LicensesAssigned
		}
		result.PodResults = append(result.PodResults, pr)
	}
	result.summarize()
	return result, nil
}

type PodLicenses struct {
	PodID     string `json:"pod_id"`
	PodName   string `json:"pod_name"`
	Total     int    `json:"total"`
	Assigned  int    `json:"assigned"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

type Preview struct {
	TotalRows     int              `json:"total_rows"`
	ValidRows     int              `json:"valid_rows"`
	InvalidEmails []string         `json:"invalid_emails"`
	PodsFound     []string         `json:"pods_found"`
	MissingPods   []string         `json:"missing_pods"`
	RowErrors     []RowError       `json:"row_errors"`
	UsersByPod    map[string][]Row `json:"users_by_pod"`
	Pods          []PodLicenses    `json:"pods"`
}

// CanUpload reports whether MassUpload would accept these rows.
func (p *Preview) CanUpload() bool {
	return len(p.MissingPods) == 0 && p.ValidRows > 0
}

// PreviewUpload summarises rows without touching any pod.
func PreviewUpload(rows []Row, dir *Directory) *Preview {
	p := &Preview{
		TotalRows:     len(rows),
		InvalidEmails: []string{},
		PodsFound:     []string{},
		MissingPods:   []string{},
		RowErrors:     []RowError{},
		UsersByPod:    make(map[string][]Row),
		Pods:          []PodLicenses{},
	}

	groups, missing, rowErrors := GroupRows(rows, dir)
	if missing != nil {
		p.MissingPods = missing
	}
	p.RowErrors = append(p.RowErrors, rowErrors...)

	for _, g := range groups {
		requested := 0
		for _, row := range g.Rows {
			if !ValidEmail(strings.TrimSpace(row.Email)) {
				p.InvalidEmails = append(p.InvalidEmails, row.Email)
				continue
			}
			p.ValidRows++
			requested += row.Licenses
			p.UsersByPod[g.Pod.Name] = append(p.UsersByPod[g.Pod.Name], row)
		}
		p.PodsFound = append(p.PodsFound, g.Pod.Name)
		p.Pods = append(p.Pods, PodLicenses{
			PodID:     g.Pod.ID,
			PodName:   g.Pod.Name,
			Total:     g.Pod.TotalLicenses,
			Assigned:  g.Pod.AssignedLicenses,
			Available: g.Pod.AvailableLicenses,
			Requested: requested,
		})
	}

	for _, row := range rows {
		if strings.TrimSpace(row.PodName) == "" {
			continue
		}
		if _, ok := dir.Resolve(row.PodName); !ok && !ValidEmail(strings.TrimSpace(row.Email)) {
			p.InvalidEmails = append(p.InvalidEmails, row.Email)
		}
	}

	sort.Strings(p.PodsFound)
	return p
}
