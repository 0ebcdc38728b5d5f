package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	specpkg "github.com/sparkfbla/chapter/api"
	"github.com/sparkfbla/chapter/internal/api"
	"github.com/sparkfbla/chapter/internal/chat"
	"github.com/sparkfbla/chapter/internal/config"
	"github.com/sparkfbla/chapter/internal/database"
	"github.com/sparkfbla/chapter/internal/identity"
	"github.com/sparkfbla/chapter/internal/membership"
	"github.com/sparkfbla/chapter/internal/metrics"
	"github.com/sparkfbla/chapter/internal/profile"
	"github.com/sparkfbla/chapter/internal/roster"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	elevatedDB, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer elevatedDB.Close()

	if cfg.AutoMigrate {
		if err := elevatedDB.Migrate(ctx, "up"); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("database migrations applied")
	}

	restrictedDB := elevatedDB
	if cfg.RestrictedDatabaseURL != "" {
		restrictedDB, err = database.New(ctx, cfg.RestrictedURL())
		if err != nil {
			slog.Error("failed to connect to database with restricted credential", "error", err)
			os.Exit(1)
		}
		defer restrictedDB.Close()
	}

	verifier, err := identity.NewVerifier(ctx, identity.VerifierConfig{
		Secret:     cfg.AuthJWTSecret,
		JWKSURL:    cfg.AuthJWKSURL,
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		CookieName: cfg.AuthCookieName,
	})
	if err != nil {
		slog.Error("failed to set up session verification", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	elevated := profile.NewElevatedRepository(elevatedDB.Pool())
	svc := membership.NewService(
		profile.NewRestrictedRepository(restrictedDB.Pool(), cfg.RestrictedRole),
		elevated,
		identity.NewAdminClient(cfg.IdentityURL, cfg.IdentityServiceKey, cfg.IdentityTimeout),
		membership.Options{
			ClearRequestOnApprove: cfg.ClearRequestOnApprove,
			Metrics:               m,
		},
	)

	if cfg.RosterInterval > 0 {
		go roster.NewSampler(elevated, m, cfg.RosterInterval).Start(ctx)
	}

	router := api.NewRouter(api.RouterDeps{
		DBPinger:       elevatedDB,
		Version:        cfg.Version,
		Sessions:       verifier,
		Membership:     svc,
		Chat:           chat.NewSimulatedGenerator(cfg.ChatTokenInterval),
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		OpenAPISpec:    specpkg.OpenAPISpec,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting chapter server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	stop()
	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
