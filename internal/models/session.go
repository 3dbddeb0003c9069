package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminSession is the console's record of a signed-in admin: the upstream
// bearer token and the last admin profile the upstream returned.
type AdminSession struct {
	ID          uuid.UUID  `json:"id"`
	AdminID     string     `json:"admin_id"`
	Email       string     `json:"email"`
	Token       string     `json:"-"`
	Admin       Admin      `json:"admin"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (s AdminSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
