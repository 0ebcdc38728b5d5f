package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sparkfbla/chapter/internal/api/middleware"
	"github.com/sparkfbla/chapter/internal/api/response"
	"github.com/sparkfbla/chapter/internal/api/validation"
	"github.com/sparkfbla/chapter/internal/membership"
)

type profileResponse struct {
	Profile userProfileResponse `json:"profile"`
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	svc *membership.Service
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc *membership.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	p, err := h.svc.Profile(r.Context(), middleware.GetCaller(r.Context()))
	if err != nil {
		writeServiceError(w, err, requestID)
		return
	}

	response.JSON(w, http.StatusOK, profileResponse{Profile: toUserProfileResponse(p)})
}

// Update handles PATCH /api/profile. Only the sign-up columns may be sent;
// any other key, including role, rejects the whole request.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "Request body is too large", requestID)
		return
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON", requestID)
		return
	}

	if fieldErrors := validation.WritableFieldErrors(raw); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "Input validation failed", fieldErrors, requestID)
		return
	}

	var req validation.SignUpRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body has fields of the wrong type", requestID)
		return
	}

	if fieldErrors := validation.ValidateSignUpRequest(&req); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.svc.CompleteSignUp(r.Context(), middleware.GetCaller(r.Context()), req.ToSelfUpdate()); err != nil {
		writeServiceError(w, err, requestID)
		return
	}

	response.OK(w)
}
