package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sparkfbla/chapter/internal/api/middleware"
	"github.com/sparkfbla/chapter/internal/api/response"
	"github.com/sparkfbla/chapter/internal/membership"
	"github.com/sparkfbla/chapter/internal/profile"
)

type roleChangeRequest struct {
	Mode string `json:"mode"`
	Role string `json:"role"`
}

type userProfileResponse struct {
	ID            string  `json:"id"`
	Email         *string `json:"email"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	StudentID     *int64  `json:"student_id"`
	School        *string `json:"school"`
	RequestedRole *string `json:"requested_role"`
	Role          *string `json:"role"`
	CreatedAt     string  `json:"created_at"`
	LastSignInAt  *string `json:"last_sign_in_at"`
}

type usersResponse struct {
	Users []userProfileResponse `json:"users"`
}

func toUserProfileResponse(p *profile.Profile) userProfileResponse {
	resp := userProfileResponse{
		ID:        p.ID.String(),
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		StudentID: p.StudentID,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.School != nil {
		s := string(*p.School)
		resp.School = &s
	}
	if p.RequestedRole != nil {
		rr := string(*p.RequestedRole)
		resp.RequestedRole = &rr
	}
	if p.Role != nil {
		role := string(*p.Role)
		resp.Role = &role
	}
	if p.LastSignInAt != nil {
		at := p.LastSignInAt.UTC().Format(time.RFC3339)
		resp.LastSignInAt = &at
	}
	return resp
}

// AdminUserHandler handles the admin user management endpoints. Every route
// expects RequireAdmin to have run.
type AdminUserHandler struct {
	svc *membership.Service
}

// NewAdminUserHandler creates a new AdminUserHandler.
func NewAdminUserHandler(svc *membership.Service) *AdminUserHandler {
	return &AdminUserHandler{svc: svc}
}

// List handles GET /api/admin/users.
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	profiles, err := h.svc.List(r.Context(), middleware.GetAdmin(r.Context()))
	if err != nil {
		writeServiceError(w, err, requestID)
		return
	}

	users := make([]userProfileResponse, 0, len(profiles))
	for i := range profiles {
		users = append(users, toUserProfileResponse(&profiles[i]))
	}

	response.JSON(w, http.StatusOK, usersResponse{Users: users})
}

// Update handles PATCH /api/admin/users/{id}.
func (h *AdminUserHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req roleChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON", requestID)
		return
	}

	transition, err := membership.ParseTransition(req.Mode, req.Role)
	if err != nil {
		writeServiceError(w, err, requestID)
		return
	}

	if err := h.svc.Apply(r.Context(), middleware.GetAdmin(r.Context()), id, transition); err != nil {
		writeServiceError(w, err, requestID)
		return
	}

	response.OK(w)
}

// Delete handles DELETE /api/admin/users/{id}.
func (h *AdminUserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "id must be a valid UUID", requestID)
		return
	}

	result, err := h.svc.Delete(r.Context(), middleware.GetAdmin(r.Context()), id)
	if err != nil {
		writeServiceError(w, err, requestID)
		return
	}

	if result.Warning != "" {
		response.OKWithWarning(w, result.Warning)
		return
	}
	response.OK(w)
}
