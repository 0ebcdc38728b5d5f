package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON body written for every failed request.
type ErrorBody struct {
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// OKBody acknowledges a successful mutation. Warning reports a partial
// success that needs no action from the caller.
type OKBody struct {
	OK      bool   `json:"ok"`
	Warning string `json:"warning,omitempty"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// OK writes {"ok": true}.
func OK(w http.ResponseWriter) {
	JSON(w, http.StatusOK, OKBody{OK: true})
}

// OKWithWarning writes {"ok": true, "warning": ...} with status 200.
func OKWithWarning(w http.ResponseWriter, warning string) {
	JSON(w, http.StatusOK, OKBody{OK: true, Warning: warning})
}

// Err writes an error JSON response.
func Err(w http.ResponseWriter, status int, message string, requestID string) {
	JSON(w, status, ErrorBody{
		Error:     message,
		RequestID: requestID,
	})
}

// ErrWithDetails writes an error JSON response with additional details.
func ErrWithDetails(w http.ResponseWriter, status int, message string, details any, requestID string) {
	JSON(w, status, ErrorBody{
		Error:     message,
		Details:   details,
		RequestID: requestID,
	})
}
