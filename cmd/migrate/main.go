package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/sparkfbla/chapter/internal/database"
)

type migrateConfig struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
}

func main() {
	cmd := flag.String("cmd", "up", "goose command: up, down, status, version, redo, reset")
	to := flag.String("to", "", "target version for up-to / down-to")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "error", err)
	}

	var cfg migrateConfig
	if err := envconfig.Process("", &cfg); err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg.DatabaseURL, *cmd, *to); err != nil {
		slog.Error("migration failed", "cmd", *cmd, "error", err)
		os.Exit(1)
	}
	slog.Info("migration finished", "cmd", *cmd)
}

func run(ctx context.Context, databaseURL, cmd, to string) error {
	db, err := database.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer db.Close()

	if to != "" {
		return db.MigrateTo(ctx, to)
	}
	return db.Migrate(ctx, cmd)
}
