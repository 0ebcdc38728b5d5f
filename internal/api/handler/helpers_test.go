package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sparkfbla/chapter/internal/api/middleware"
	"github.com/sparkfbla/chapter/internal/identity"
	"github.com/sparkfbla/chapter/internal/membership"
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
}

func (m *mockElevated) List(ctx context.Context) ([]profile.Profile, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []profile.Profile{}, nil
}

func (m *mockElevated) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, profile.ErrProfileNotFound
}

func (m *mockElevated) UpdateRole(ctx context.Context, id uuid.UUID, change profile.RoleUpdate) error {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(ctx, id, change)
	}
	return nil
}

func (m *mockElevated) Delete(ctx context.Context, id uuid.UUID) error {
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

// --- Helpers ---

var adminCaller = &identity.Caller{ID: uuid.New(), Email: "admin@example.com"}

func rolePtr(r profile.Role) *profile.Role { return &r }
func strPtr(s string) *string              { return &s }

// newService builds a membership service whose restricted access reports
// adminCaller as an Admin.
func newService(elevated *mockElevated, identities *mockIdentities) (*membership.Service, *mockRestricted) {
	restricted := &mockRestricted{
		getOwnFn: func(_ context.Context, callerID uuid.UUID) (*profile.Profile, error) {
			if callerID != adminCaller.ID {
				return nil, profile.ErrProfileNotFound
			}
			return &profile.Profile{ID: callerID, Role: rolePtr(profile.RoleAdmin)}, nil
		},
	}
	if elevated == nil {
		elevated = &mockElevated{}
	}
	if identities == nil {
		identities = &mockIdentities{}
	}
	return membership.NewService(restricted, elevated, identities, membership.Options{}), restricted
}

// asAdmin attaches adminCaller and a confirmed Admin to the request, the way
// Authenticate and RequireAdmin would.
func asAdmin(t *testing.T, svc *membership.Service, req *http.Request) *http.Request {
	t.Helper()
	admin, err := svc.AuthorizeAdmin(req.Context(), adminCaller)
	require.NoError(t, err)
	ctx := middleware.WithCaller(req.Context(), adminCaller)
	ctx = middleware.WithAdmin(ctx, admin)
	return req.WithContext(ctx)
}

func asCaller(req *http.Request, caller *identity.Caller) *http.Request {
	return req.WithContext(middleware.WithCaller(req.Context(), caller))
}

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &body)
	require.NoError(t, err, "failed to parse response body")
	return body
}
