package membership

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/sparkfbla/chapter/internal/identity"
	"github.com/sparkfbla/chapter/internal/metrics"
	"github.com/sparkfbla/chapter/internal/profile"
)

var (
	// ErrUnauthorized covers every failed admin check: no session, missing or
	// unreadable profile, or a role other than Admin.
	ErrUnauthorized = errors.New("Unauthorized")

	// ErrNoRequestedRole is returned when approving a user with nothing to approve.
	ErrNoRequestedRole = errors.New("No requested_role to approve.")

	// ErrUserNotFound is returned when a role write matches no row.
	ErrUserNotFound = errors.New("User not found.")

	// ErrInvalidRole is returned when an assigned role is outside the role set.
	ErrInvalidRole = errors.New("Invalid role")

	// ErrInvalidSignUp is returned when sign-up fields fail enumeration checks.
	ErrInvalidSignUp = errors.New("invalid sign-up fields")
)

// IdentityAdmin removes identity records at the identity provider.
type IdentityAdmin interface {
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
}

// Options tunes role transition behaviour.
type Options struct {
	// ClearRequestOnApprove clears requested_role when it is granted. When
	// false the request stays on the row as a record of what was asked for.
	ClearRequestOnApprove bool
	Metrics               *metrics.Metrics
}

// Admin is a caller that passed the admin check for the current request.
// It can only be obtained from Service.AuthorizeAdmin.
type Admin struct {
	caller identity.Caller
}

// ID returns the admin's identity id.
func (a *Admin) ID() uuid.UUID {
	return a.caller.ID
}

// DeleteResult reports the outcome of a successful account deletion.
type DeleteResult struct {
	// Warning is set when the identity was removed but the profile row could not be.
	Warning string
}

// Service implements the admin role lifecycle and member self-service.
type Service struct {
	restricted profile.RestrictedAccess
	elevated   profile.ElevatedAccess
	identities IdentityAdmin
	opts       Options
}

// NewService creates a new membership Service.
func NewService(restricted profile.RestrictedAccess, elevated profile.ElevatedAccess, identities IdentityAdmin, opts Options) *Service {
	return &Service{
		restricted: restricted,
		elevated:   elevated,
		identities: identities,
		opts:       opts,
	}
}

// AuthorizeAdmin checks that caller's stored role is Admin. The caller's row
// is read through restricted access; nothing elevated is touched until this
// passes. Every failure is ErrUnauthorized.
func (s *Service) AuthorizeAdmin(ctx context.Context, caller *identity.Caller) (*Admin, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	me, err := s.restricted.GetOwn(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: reading caller profile: %v", ErrUnauthorized, err)
	}

	if !me.IsAdmin() {
		return nil, fmt.Errorf("%w: caller role is %s", ErrUnauthorized, me.EffectiveRole())
	}

	return &Admin{caller: *caller}, nil
}

// List returns every profile, newest first.
func (s *Service) List(ctx context.Context, admin *Admin) ([]profile.Profile, error) {
	if admin == nil {
		return nil, ErrUnauthorized
	}

	profiles, err := s.elevated.List(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(profiles, func(a, b profile.Profile) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})

	return profiles, nil
}

// Apply performs a validated role transition on the target user.
func (s *Service) Apply(ctx context.Context, admin *Admin, id uuid.UUID, t Transition) error {
	switch t := t.(type) {
	case Approve:
		return s.Approve(ctx, admin, id)
	case SetRole:
		return s.SetRole(ctx, admin, id, t.Role)
	default:
		return fmt.Errorf("unsupported transition %T", t)
	}
}

// Approve grants the target's requested role.
func (s *Service) Approve(ctx context.Context, admin *Admin, id uuid.UUID) error {
	if admin == nil {
		return ErrUnauthorized
	}

	target, err := s.elevated.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			s.opts.Metrics.IncTransition("approve", "rejected")
			return ErrNoRequestedRole
		}
		s.opts.Metrics.IncTransition("approve", "error")
		return err
	}

	if target.RequestedRole == nil || *target.RequestedRole == "" {
		s.opts.Metrics.IncTransition("approve", "rejected")
		return ErrNoRequestedRole
	}

	granted := *target.RequestedRole
	if err := s.writeRole(ctx, id, profile.RoleUpdate{Role: granted, ClearRequested: s.opts.ClearRequestOnApprove}); err != nil {
		s.opts.Metrics.IncTransition("approve", outcome(err))
		return err
	}

	s.opts.Metrics.IncTransition("approve", "ok")
	slog.Info("role request approved", "id", id, "role", granted, "admin", admin.ID())
	return nil
}

// SetRole overwrites the target's effective role.
func (s *Service) SetRole(ctx context.Context, admin *Admin, id uuid.UUID, role profile.Role) error {
	if admin == nil {
		return ErrUnauthorized
	}

	if !role.IsAssignable() {
		s.opts.Metrics.IncTransition("set", "rejected")
		return ErrInvalidRole
	}

	if err := s.writeRole(ctx, id, profile.RoleUpdate{Role: role}); err != nil {
		s.opts.Metrics.IncTransition("set", outcome(err))
		return err
	}

	s.opts.Metrics.IncTransition("set", "ok")
	slog.Info("role set", "id", id, "role", role, "admin", admin.ID())
	return nil
}

func (s *Service) writeRole(ctx context.Context, id uuid.UUID, change profile.RoleUpdate) error {
	err := s.elevated.UpdateRole(ctx, id, change)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Delete removes the target's identity record and then its profile row. If
// the identity cannot be removed the profile row is left untouched. A failed
// profile removal after a successful identity removal is reported as a warning.
func (s *Service) Delete(ctx context.Context, admin *Admin, id uuid.UUID) (DeleteResult, error) {
	if admin == nil {
		return DeleteResult{}, ErrUnauthorized
	}

	if err := s.identities.DeleteIdentity(ctx, id); err != nil {
		s.opts.Metrics.IncTransition("delete", "error")
		return DeleteResult{}, err
	}

	if err := s.elevated.Delete(ctx, id); err != nil {
		slog.Warn("identity deleted but profile row remains", "id", id, "error", err)
		s.opts.Metrics.IncTransition("delete", "warning")
		return DeleteResult{Warning: err.Error()}, nil
	}

	s.opts.Metrics.IncTransition("delete", "ok")
	slog.Info("user deleted", "id", id, "admin", admin.ID())
	return DeleteResult{}, nil
}

// Profile returns the caller's own profile.
func (s *Service) Profile(ctx context.Context, caller *identity.Caller) (*profile.Profile, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	return s.restricted.GetOwn(ctx, caller.ID)
}

// CompleteSignUp writes the caller's sign-up fields. Only the columns in
// profile.SelfUpdate can be written; the effective role never is.
func (s *Service) CompleteSignUp(ctx context.Context, caller *identity.Caller, u profile.SelfUpdate) error {
	if caller == nil {
		return ErrUnauthorized
	}

	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	if u.FirstName == "" || u.LastName == "" || !u.School.IsValid() || !u.RequestedRole.IsRequestable() || u.StudentID < 0 {
		return ErrInvalidSignUp
	}

	return s.restricted.UpdateOwn(ctx, caller.ID, u)
}

func outcome(err error) string {
	if errors.Is(err, ErrUserNotFound) {
		return "rejected"
	}
	return "error"
}
