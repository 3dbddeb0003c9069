package models

import (
	"time"

	"github.com/dimitrije/pod-console/internal/apperr"
)

type PodType string

const (
	PodTypeInstitution  PodType = "institution"
	PodTypeOrganization PodType = "organization"
)

func (t PodType) Valid() bool {
	return t == PodTypeInstitution || t == PodTypeOrganization
}

type Pod struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Type              PodType    `json:"type"`
	AssociatedEmail   string     `json:"associated_email"`
	ParentPodID       *string    `json:"parent_pod_id,omitempty"`
	ParentName        string     `json:"parent_name,omitempty"`
	NestingLevel      int        `json:"nesting_level"`
	EducationalStatus string     `json:"educational_status,omitempty"`
	OrganizationName  string     `json:"organization_name,omitempty"`
	InstituteName     string     `json:"institute_name,omitempty"`
	TotalLicenses     int        `json:"total_licenses"`
	AssignedLicenses  int        `json:"assigned_licenses"`
	AvailableLicenses int        `json:"available_licenses"`
	IsDeleted         bool       `json:"is_deleted"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ParentID returns the parent id, or "" for a root pod.
func (p *Pod) ParentID() string {
	if p.ParentPodID == nil {
		return ""
	}
	return *p.ParentPodID
}

func (p *Pod) IsRoot() bool {
	return p.ParentID() == ""
}

// SetTotalLicenses replaces the pool size. The pod is left untouched when n
// would drop below the licenses already handed out.
func (p *Pod) SetTotalLicenses(n int) error {
	if n < 0 {
		return apperr.Validation("totalLicenses", "must be a non-negative number")
	}
	if n < p.AssignedLicenses {
		return apperr.Validation("totalLicenses", "cannot set total below %d (already assigned to users)", p.AssignedLicenses)
	}
	p.TotalLicenses = n
	p.AvailableLicenses = n - p.AssignedLicenses
	return nil
}

func (p *Pod) AddLicenses(delta int) error {
	if delta <= 0 {
		return apperr.Validation("amount", "please enter a valid positive number")
	}
	p.TotalLicenses += delta
	p.AvailableLicenses += delta
	return nil
}

// Assign moves n licenses from the available pool to users. When the pool is
// short the total grows by the shortfall, so callers must check the cap
// before calling unless they are allowed to bypass it.
func (p *Pod) Assign(n int) error {
	if n < 0 {
		return apperr.Validation("licenses", "must be a non-negative number")
	}
	if n > p.AvailableLicenses {
		p.TotalLicenses += n - p.AvailableLicenses
		p.AvailableLicenses = n
	}
	p.AssignedLicenses += n
	p.AvailableLicenses -= n
	return nil
}

// Release returns n licenses to the pool. Counters are floored at zero so an
// already inconsistent record never goes negative.
func (p *Pod) Release(n int) {
	if n <= 0 {
		return
	}
	released := n
	if released > p.AssignedLicenses {
		released = p.AssignedLicenses
	}
	p.AssignedLicenses -= released
	p.AvailableLicenses += released
	if p.AvailableLicenses < 0 {
		p.AvailableLicenses = 0
	}
}

// CheckConsistency reports a counter breach without repairing it.
func (p *Pod) CheckConsistency() error {
	if p.TotalLicenses < 0 || p.AssignedLicenses < 0 || p.AvailableLicenses < 0 {
		return apperr.Integrity("pod %s has a negative license counter", p.ID)
	}
	if p.TotalLicenses != p.AssignedLicenses+p.AvailableLicenses {
		return apperr.Integrity("pod %s licenses do not add up: total %d, assigned %d, available %d",
			p.ID, p.TotalLicenses, p.AssignedLicenses, p.AvailableLicenses)
	}
	return nil
}
