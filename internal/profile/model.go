package profile

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is a chapter role. It is used both for the effective role and for the
// role a member requests during sign-up.
type Role string

const (
	RolePending   Role = "Pending"
	RoleMember    Role = "Member"
	RoleOfficer   Role = "Officer"
	RolePresident Role = "President"
	RoleAdvisor   Role = "Advisor"
	RoleAdmin     Role = "Admin"
)

// requestableRoles are the values a member may ask for.
var requestableRoles = []Role{RoleMember, RoleOfficer, RolePresident, RoleAdvisor, RoleAdmin}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsRequestable reports whether r may be stored in requested_role.
func (r Role) IsRequestable() bool {
	for _, candidate := range requestableRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsAssignable reports whether an admin may set r as an effective role.
// Pending is assignable so that an admin can revoke a grant.
func (r Role) IsAssignable() bool {
	return r == RolePending || r.IsRequestable()
}

// ParseRole converts raw input into an assignable Role.
func ParseRole(value string) (Role, error) {
	r := Role(value)
	if !r.IsAssignable() {
		return "", fmt.Errorf("invalid role %q", value)
	}
	return r, nil
}

// RequestableRoles returns the roles a member may request, in display order.
func RequestableRoles() []Role {
	out := make([]Role, len(requestableRoles))
	copy(out, requestableRoles)
	return out
}

// School is the accepted set of school labels.
type School string

const (
	SchoolDenmark School = "Denmark"
	SchoolOther   School = "Other"
)

// IsValid reports whether s is an accepted school label.
func (s School) IsValid() bool {
	return s == SchoolDenmark || s == SchoolOther
}

// Profile represents a row in the users table.
type Profile struct {
	ID            uuid.UUID
	Email         *string
	FirstName     *string
	LastName      *string
	StudentID     *int64
	School        *School
	RequestedRole *Role
	Role          *Role
	CreatedAt     time.Time
	LastSignInAt  *time.Time
}

// EffectiveRole returns the stored role, or Pending when none is set.
func (p *Profile) EffectiveRole() Role {
	if p.Role == nil || *p.Role == "" {
		return RolePending
	}
	return *p.Role
}

// IsAdmin reports whether the profile's effective role is Admin.
func (p *Profile) IsAdmin() bool {
	return p.EffectiveRole() == RoleAdmin
}

// SelfUpdate holds the only columns a profile owner may write.
type SelfUpdate struct {
	FirstName     string
	LastName      string
	StudentID     int64
	School        School
	RequestedRole Role
}
