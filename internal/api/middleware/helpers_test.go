package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sparkfbla/chapter/internal/identity"
	"github.com/sparkfbla/chapter/internal/membership"
	"github.com/sparkfbla/chapter/internal/profile"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// --- Session resolver stub ---

type stubSessions struct {
	caller *identity.Caller
	err    error
}

func (s *stubSessions) CurrentUser(_ context.Context, _ *http.Request) (*identity.Caller, error) {
	return s.caller, s.err
}

// --- Profile store stubs ---

type stubRestricted struct {
	roles map[uuid.UUID]profile.Role
	err   error
	calls int
}

func (s *stubRestricted) GetOwn(_ context.Context, callerID uuid.UUID) (*profile.Profile, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	role, ok := s.roles[callerID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return &profile.Profile{ID: callerID, Role: &role}, nil
}

func (s *stubRestricted) UpdateOwn(context.Context, uuid.UUID, profile.SelfUpdate) error {
	return nil
}

type unusedElevated struct{}

var errElevatedUsed = errors.New("elevated access must not be used")

func (unusedElevated) List(context.Context) ([]profile.Profile, error) { return nil, errElevatedUsed }
func (unusedElevated) GetByID(context.Context, uuid.UUID) (*profile.Profile, error) {
	return nil, errElevatedUsed
}
func (unusedElevated) UpdateRole(context.Context, uuid.UUID, profile.RoleUpdate) error {
	return errElevatedUsed
}
func (unusedElevated) Delete(context.Context, uuid.UUID) error { return errElevatedUsed }

func newMembership(restricted profile.RestrictedAccess) *membership.Service {
	return membership.NewService(restricted, unusedElevated{}, nil, membership.Options{})
}
