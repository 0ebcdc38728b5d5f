package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sparkfbla/chapter/internal/api/response"
	"github.com/sparkfbla/chapter/internal/membership"
	"github.com/sparkfbla/chapter/internal/profile"
)

// writeServiceError maps membership errors onto the HTTP error taxonomy.
// Store and provider failures pass their message through with a 500.
func writeServiceError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, membership.ErrUnauthorized):
		response.Err(w, http.StatusUnauthorized, "Unauthorized", requestID)
	case errors.Is(err, membership.ErrNoRequestedRole),
		errors.Is(err, membership.ErrUserNotFound),
		errors.Is(err, membership.ErrInvalidRole),
		errors.Is(err, membership.ErrInvalidMode),
		errors.Is(err, membership.ErrMissingRole),
		errors.Is(err, membership.ErrInvalidSignUp):
		response.Err(w, http.StatusBadRequest, err.Error(), requestID)
	case errors.Is(err, profile.ErrProfileNotFound):
		response.Err(w, http.StatusNotFound, "Profile not found", requestID)
	default:
		slog.Error("request failed", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, err.Error(), requestID)
	}
}
