package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sparkfbla/chapter/internal/api/handler"
	"github.com/sparkfbla/chapter/internal/api/middleware"
	"github.com/sparkfbla/chapter/internal/chat"
	"github.com/sparkfbla/chapter/internal/membership"
	"github.com/sparkfbla/chapter/internal/metrics"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger       handler.DBPinger
	Version        string
	Sessions       middleware.SessionResolver
	Membership     *membership.Service
	Chat           chat.Generator
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	OpenAPISpec    []byte
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler, err := handler.NewOpenAPIHandler(deps.OpenAPISpec, deps.Version)
		if err != nil {
			slog.Error("OpenAPI document not served", "error", err)
		} else {
			r.Get("/openapi.json", openapiHandler.ServeHTTP)
		}
	}

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	if deps.Sessions == nil || deps.Membership == nil {
		return r
	}

	adminHandler := handler.NewAdminUserHandler(deps.Membership)
	profileHandler := handler.NewProfileHandler(deps.Membership)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Sessions))

		r.Route("/admin/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(deps.Membership))
			r.Get("/", adminHandler.List)
			r.Patch("/{id}", adminHandler.Update)
			r.Delete("/{id}", adminHandler.Delete)
		})

		r.Get("/profile", profileHandler.Get)
		r.Patch("/profile", profileHandler.Update)

		if deps.Chat != nil {
			chatHandler := handler.NewChatHandler(deps.Chat)
			r.Get("/chat/prompts", chatHandler.Prompts)
			r.Post("/chat", chatHandler.Stream)
		}
	})

	return r
}
