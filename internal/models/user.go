package models

import "time"

// PodUser is a pod membership record: the user's identity plus the licenses
// drawn from the owning pod.
type PodUser struct {
	ID            string     `json:"id"`
	PodID         string     `json:"pod_id,omitempty"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	UniqueID      string     `json:"unique_id,omitempty"`
	Licenses      int        `json:"licenses"`
	Qualification string     `json:"qualification,omitempty"`
	DOB           string     `json:"dob,omitempty"`
	Verified      bool       `json:"verified"`
	ProfileLocked bool       `json:"profile_locked"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type UserPage struct {
	Users      []PodUser  `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// PodAnalytics is the per-pod membership summary the dashboard cards show.
type PodAnalytics struct {
	TotalUsers         int     `json:"total_users"`
	VerifiedUsers      int     `json:"verified_users"`
	PendingUsers       int     `json:"pending_users"`
	ProfileLockedCount int     `json:"profile_locked_count"`
	ActiveUsers        int     `json:"active_users"`
	CompletionRate     float64 `json:"completion_rate"`
}

func (a *PodAnalytics) Add(other PodAnalytics) {
	a.TotalUsers += other.TotalUsers
	a.VerifiedUsers += other.VerifiedUsers
	a.PendingUsers += other.PendingUsers
	a.ProfileLockedCount += other.ProfileLockedCount
	a.ActiveUsers += other.ActiveUsers
}
