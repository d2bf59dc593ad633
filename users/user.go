package users

import (
	"github.com/jrsteele09/go-task-client/sessions"
)

// User as managed through the users endpoint. Role, Password and
// AssignedToID are write-only; the API reports them back through
// RoleDisplay and AssignedTo.
type User struct {
	ID           int           `json:"id,omitempty"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	Role         sessions.Role `json:"role,omitempty"`
	RoleDisplay  sessions.Role `json:"role_display,omitempty"`
	IsActive     bool          `json:"is_active"`
	Password     string        `json:"password,omitempty"`
	AssignedTo   *int          `json:"assigned_to,omitempty"`    // ID of the admin the employee reports to
	AssignedToID *int          `json:"assigned_to_id,omitempty"` // Sets AssignedTo
}

// EffectiveRole is the role reported by the API, falling back to the role
// being written.
func (u User) EffectiveRole() sessions.Role {
	if u.RoleDisplay != "" {
		return u.RoleDisplay
	}
	return u.Role
}

// WithRole returns the users whose effective role is one of roles
func WithRole(list []User, roles ...sessions.Role) []User {
	var out []User
	for _, u := range list {
		for _, r := range roles {
			if u.EffectiveRole() == r {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// ReportingTo returns the users assigned to the admin with id adminID
func ReportingTo(list []User, adminID int) []User {
	var out []User
	for _, u := range list {
		if u.AssignedTo != nil && *u.AssignedTo == adminID {
			out = append(out, u)
		}
	}
	return out
}
