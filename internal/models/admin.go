package models

import (
	"encoding/json"
	"strings"
)

const SuperAdminRoleName = "super-admin"

type RoleKind string

const (
	RoleKindSuperAdmin RoleKind = "super_admin"
	RoleKindNamed      RoleKind = "named"
)

type Permission struct {
	Feature string   `json:"feature"`
	Actions []string `json:"actions"`
}

// Role is either the super-admin role or a named role carrying permissions.
// Kind selects the variant; Name and Permissions are only meaningful for
// named roles.
type Role struct {
	Kind        RoleKind     `json:"kind"`
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
}

func SuperAdminRole() Role {
	return Role{Kind: RoleKindSuperAdmin, Name: SuperAdminRoleName}
}

func NamedRole(name string, permissions []Permission) Role {
	return Role{Kind: RoleKindNamed, Name: name, Permissions: permissions}
}

func (r Role) IsSuperAdmin() bool {
	return r.Kind == RoleKindSuperAdmin
}

// Can reports whether the role grants action on feature. Super-admins can do
// everything; "*" matches any action.
func (r Role) Can(feature, action string) bool {
	if r.IsSuperAdmin() {
		return true
	}
	for _, p := range r.Permissions {
		if !strings.EqualFold(p.Feature, feature) {
			continue
		}
		for _, a := range p.Actions {
			if a == "*" || strings.EqualFold(a, action) {
				return true
			}
		}
	}
	return false
}

type rawRoleObject struct {
	ID          string       `json:"_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions"`
}

// NormalizeRole folds the three upstream encodings of super-admin status into
// a Role: the isSuperAdmin flag, the "super-admin" string sentinel, and a role
// object whose name is "super-admin". Anything else becomes a named role.
func NormalizeRole(isSuperAdmin bool, raw json.RawMessage) Role {
	if isSuperAdmin {
		return SuperAdminRole()
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return NamedRole("", nil)
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		if name == SuperAdminRoleName {
			return SuperAdminRole()
		}
		return NamedRole(name, nil)
	}

	var obj rawRoleObject
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Name == SuperAdminRoleName {
			return SuperAdminRole()
		}
		role := NamedRole(obj.Name, obj.Permissions)
		role.ID = obj.ID
		role.Description = obj.Description
		return role
	}

	return NamedRole("", nil)
}

type Admin struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Role  Role    `json:"role"`
	PodID *string `json:"pod_id,omitempty"`
}

func (a *Admin) IsSuperAdmin() bool {
	return a != nil && a.Role.IsSuperAdmin()
}

// ScopePodID is the root of the subtree a pod-scoped admin may touch, or ""
// when the admin is unrestricted.
func (a *Admin) ScopePodID() string {
	if a == nil || a.IsSuperAdmin() || a.PodID == nil {
		return ""
	}
	return *a.PodID
}
