package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sparkfbla/chapter/internal/api/response"
	"github.com/sparkfbla/chapter/internal/identity"
	"github.com/sparkfbla/chapter/internal/membership"
)

const adminKey contextKey = "admin"

// AdminAuthorizer confirms that a caller currently holds the Admin role.
type AdminAuthorizer interface {
	AuthorizeAdmin(ctx context.Context, caller *identity.Caller) (*membership.Admin, error)
}

// RequireAdmin returns middleware that re-checks the caller's stored role on
// every request. Every rejection, whatever the cause, is the same 401 so a
// client cannot tell a missing session from a non-admin or a failed lookup.
func RequireAdmin(authz AdminAuthorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			admin, err := authz.AuthorizeAdmin(r.Context(), GetCaller(r.Context()))
			if err != nil {
				if !errors.Is(err, membership.ErrUnauthorized) {
					slog.Error("admin check failed", "error", err, "requestId", requestID)
				}
				response.Err(w, http.StatusUnauthorized, "Unauthorized", requestID)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
		})
	}
}

// WithAdmin returns a copy of ctx carrying a confirmed admin.
func WithAdmin(ctx context.Context, admin *membership.Admin) context.Context {
	return context.WithValue(ctx, adminKey, admin)
}

// GetAdmin retrieves the confirmed admin from the request context.
func GetAdmin(ctx context.Context) *membership.Admin {
	if a, ok := ctx.Value(adminKey).(*membership.Admin); ok {
		return a
	}
	return nil
}
