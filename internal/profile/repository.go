package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when no users row matches the id.
var ErrProfileNotFound = errors.New("profile not found")

// ElevatedAccess reads and writes any profile, bypassing row-level security.
// It must only be used after the caller has passed the admin check.
type ElevatedAccess interface {
	List(ctx context.Context) ([]Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, change RoleUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RestrictedAccess reads and writes the caller's own profile under the
// caller's identity, so row-level security applies.
type RestrictedAccess interface {
	GetOwn(ctx context.Context, callerID uuid.UUID) (*Profile, error)
	UpdateOwn(ctx context.Context, callerID uuid.UUID, u SelfUpdate) error
}

// RoleUpdate describes an admin write to the role columns.
type RoleUpdate struct {
	Role Role
	// ClearRequested also sets requested_role to NULL.
	ClearRequested bool
}
