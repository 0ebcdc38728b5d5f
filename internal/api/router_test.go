package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	specpkg "github.com/sparkfbla/chapter/api"
	"github.com/sparkfbla/chapter/internal/api"
	"github.com/sparkfbla/chapter/internal/chat"
	"github.com/sparkfbla/chapter/internal/identity"
	"github.com/sparkfbla/chapter/internal/membership"
	"github.com/sparkfbla/chapter/internal/metrics"
	"github.com/sparkfbla/chapter/internal/profile"
)

// --- In-memory profile store ---

type memStore struct {
	rows map[uuid.UUID]*profile.Profile
}

func (m *memStore) GetOwn(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdateOwn(_ context.Context, id uuid.UUID, u profile.SelfUpdate) error {
	p, ok := m.rows[id]
	if !ok {
		return profile.ErrProfileNotFound
	}
	p.FirstName, p.LastName = &u.FirstName, &u.LastName
	p.StudentID, p.School, p.RequestedRole = &u.StudentID, &u.School, &u.RequestedRole
	return nil
}

func (m *memStore) List(_ context.Context) ([]profile.Profile, error) {
	out := make([]profile.Profile, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	return m.GetOwn(ctx, id)
}

func (m *memStore) UpdateRole(_ context.Context, id uuid.UUID, change profile.RoleUpdate) error {
	p, ok := m.rows[id]
	if !ok {
		return profile.ErrProfileNotFound
	}
	role := change.Role
	p.Role = &role
	if change.ClearRequested {
		p.RequestedRole = nil
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

type noopIdentities struct{}

func (noopIdentities) DeleteIdentity(context.Context, uuid.UUID) error { return nil }

// headerSessions treats the X-Test-User header as the caller id.
type headerSessions struct{}

func (headerSessions) CurrentUser(_ context.Context, r *http.Request) (*identity.Caller, error) {
	id, err := uuid.Parse(r.Header.Get("X-Test-User"))
	if err != nil {
		return nil, identity.ErrNoSession
	}
	return &identity.Caller{ID: id}, nil
}

type fixture struct {
	router *chi.Mux
	store  *memStore
	admin  uuid.UUID
	member uuid.UUID
	reg    *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	admin, member := uuid.New(), uuid.New()
	adminRole, pending, officer := profile.RoleAdmin, profile.RolePending, profile.RoleOfficer
	store := &memStore{rows: map[uuid.UUID]*profile.Profile{
		admin:  {ID: admin, Role: &adminRole},
		member: {ID: member, Role: &pending, RequestedRole: &officer},
	}}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := membership.NewService(store, store, noopIdentities{}, membership.Options{Metrics: m})

	router := api.NewRouter(api.RouterDeps{
		Version:        "test",
		Sessions:       headerSessions{},
		Membership:     svc,
		Chat:           chat.NewSimulatedGenerator(0),
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		OpenAPISpec:    specpkg.OpenAPISpec,
	})
	return &fixture{router: router, store: store, admin: admin, member: member, reg: reg}
}

func (f *fixture) do(method, path string, as *uuid.UUID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("X-Test-User", as.String())
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouter_AdminRoutesRejectNonAdmins(t *testing.T) {
	f := newFixture(t)
	stranger := uuid.New()
	target := "/api/admin/users/" + f.member.String()

	requests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/admin/users", ""},
		{http.MethodPatch, target, `{"mode":"approve"}`},
		{http.MethodDelete, target, ""},
	}
	callers := map[string]*uuid.UUID{
		"no session":     nil,
		"pending member": &f.member,
		"no profile row": &stranger,
	}

	for name, caller := range callers {
		for _, rq := range requests {
			t.Run(fmt.Sprintf("%s_%s", name, rq.method), func(t *testing.T) {
				w := f.do(rq.method, rq.path, caller, rq.body)

				assert.Equal(t, http.StatusUnauthorized, w.Code)
				assert.Contains(t, w.Body.String(), `"error":"Unauthorized"`)
			})
		}
	}

	// Nothing changed.
	assert.Equal(t, profile.RolePending, *f.store.rows[f.member].Role)
}

func TestRouter_ApproveFlow(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPatch, "/api/admin/users/"+f.member.String(), &f.admin, `{"mode":"approve"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, profile.RoleOfficer, *f.store.rows[f.member].Role)

	w = f.do(http.MethodGet, "/api/admin/users", &f.admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Users []map[string]interface{} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Users, 2)
}

func TestRouter_PromotedMemberGainsAccess(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/admin/users", &f.member, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPatch, "/api/admin/users/"+f.member.String(), &f.admin, `{"mode":"set","role":"Admin"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/admin/users", &f.member, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ProfileCannotWriteRole(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPatch, "/api/profile", &f.member,
		`{"first_name":"A","last_name":"B","student_id":1,"school":"Denmark","requested_role":"Member","role":"Admin"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, profile.RolePending, *f.store.rows[f.member].Role)
}

func TestRouter_ChatRequiresSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/chat/prompts", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/chat/prompts", &f.member, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPatch, "/api/admin/users/"+f.member.String(), &f.admin, `{"mode":"approve"}`)

	w := f.do(http.MethodGet, "/metrics", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `membership_transitions_total{action="approve",outcome="ok"} 1`)
	assert.Contains(t, w.Body.String(), `route="/api/admin/users/{id}"`)
}

// --- OpenAPI coverage ---

type openAPISpec struct {
	Paths map[string]map[string]interface{} `json:"paths"`
}

type route struct {
	method string
	path   string
}

func TestOpenAPISpec_RoutesCoverAllPaths(t *testing.T) {
	t.Parallel()

	specJSON, err := yaml.YAMLToJSON(specpkg.OpenAPISpec)
	require.NoError(t, err, "embedded spec must convert to JSON")

	var spec openAPISpec
	require.NoError(t, json.Unmarshal(specJSON, &spec), "spec JSON must unmarshal")

	specRoutes := extractSpecRoutes(spec)
	require.NotEmpty(t, specRoutes)

	chiRoutes := extractChiRoutes(t, newFixture(t).router)
	require.NotEmpty(t, chiRoutes)

	for _, sr := range specRoutes {
		t.Run(fmt.Sprintf("spec_%s_%s_has_Chi_route", sr.method, sr.path), func(t *testing.T) {
			assert.Contains(t, chiRoutes, sr, "spec route %s %s not found in Chi router", sr.method, sr.path)
		})
	}
	for _, cr := range chiRoutes {
		t.Run(fmt.Sprintf("Chi_%s_%s_has_spec_path", cr.method, cr.path), func(t *testing.T) {
			assert.Contains(t, specRoutes, cr, "Chi route %s %s not found in OpenAPI spec", cr.method, cr.path)
		})
	}
}

func extractSpecRoutes(spec openAPISpec) []route {
	var routes []route
	for path, methods := range spec.Paths {
		for method := range methods {
			if method == "parameters" {
				continue
			}
			routes = append(routes, route{method: strings.ToUpper(method), path: path})
		}
	}
	sortRoutes(routes)
	return routes
}

func extractChiRoutes(t *testing.T, r *chi.Mux) []route {
	t.Helper()
	var routes []route
	walkFunc := func(method, routePath string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		// Subrouters register "/" which Walk reports with a trailing slash.
		normalized := strings.TrimRight(routePath, "/")
		if normalized == "" {
			normalized = "/"
		}
		routes = append(routes, route{method: method, path: normalized})
		return nil
	}
	require.NoError(t, chi.Walk(r, walkFunc))
	sortRoutes(routes)
	return routes
}

func sortRoutes(routes []route) {
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].path == routes[j].path {
			return routes[i].method < routes[j].method
		}
		return routes[i].path < routes[j].path
	})
}
