package membership_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/sparkfbla/chapter/internal/profile"
)

// --- Mock Restricted Access ---

type mockRestricted struct {
	getOwnFn    func(ctx context.Context, callerID uuid.UUID) (*profile.Profile, error)
	updateOwnFn func(ctx context.Context, callerID uuid.UUID, u profile.SelfUpdate) error
}

func (m *mockRestricted) GetOwn(ctx context.Context, callerID uuid.UUID) (*profile.Profile, error) {
	if m.getOwnFn != nil {
		return m.getOwnFn(ctx, callerID)
	}
	return nil, profile.ErrProfileNotFound
}

func (m *mockRestricted) UpdateOwn(ctx context.Context, callerID uuid.UUID, u profile.SelfUpdate) error {
	if m.updateOwnFn != nil {
		return m.updateOwnFn(ctx, callerID, u)
	}
	return nil
}

// --- Mock Elevated Access ---

type mockElevated struct {
	listFn       func(ctx context.Context) ([]profile.Profile, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	updateRoleFn func(ctx context.Context, id uuid.UUID, change profile.RoleUpdate) error
	deleteFn     func(ctx context.Context, id uuid.UUID) error

	calls int
}

func (m *mockElevated) List(ctx context.Context) ([]profile.Profile, error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []profile.Profile{}, nil
}

func (m *mockElevated) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	m.calls++
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, profile.ErrProfileNotFound
}

func (m *mockElevated) UpdateRole(ctx context.Context, id uuid.UUID, change profile.RoleUpdate) error {
	m.calls++
	if m.updateRoleFn != nil {
		return m.updateRoleFn(ctx, id, change)
	}
	return nil
}

func (m *mockElevated) Delete(ctx context.Context, id uuid.UUID) error {
	m.calls++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock Identity Admin ---

type mockIdentities struct {
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockIdentities) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func rolePtr(r profile.Role) *profile.Role { return &r }
