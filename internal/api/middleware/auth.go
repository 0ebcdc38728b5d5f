package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sparkfbla/chapter/internal/api/response"
	"github.com/sparkfbla/chapter/internal/identity"
)

const callerKey contextKey = "caller"

// SessionResolver resolves the identity behind a request's session.
type SessionResolver interface {
	CurrentUser(ctx context.Context, r *http.Request) (*identity.Caller, error)
}

// Authenticate is middleware that resolves the session attached to the
// request and stores the caller in the context. Requests without a valid
// session get 401 with a body that does not say why.
func Authenticate(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			caller, err := sessions.CurrentUser(r.Context(), r)
			if err != nil || caller == nil {
				slog.Debug("session rejected", "error", err, "requestId", requestID)
				response.Err(w, http.StatusUnauthorized, "Unauthorized", requestID)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller *identity.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller retrieves the authenticated caller from the request context.
func GetCaller(ctx context.Context) *identity.Caller {
	if c, ok := ctx.Value(callerKey).(*identity.Caller); ok {
		return c
	}
	return nil
}
