// Package main is the entry point for the codesave server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
//  1. Read configuration (config file, .env, flags)
//  2. Create the logger
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/sakif/codesave/internal/config"
	"github.com/sakif/codesave/internal/server"
)

func run(ctx context.Context, cmd *cli.Command) error {
	// === 1. CONFIGURATION ===
	// Defaults first, then the YAML file on top. A missing file is fine: the
	// defaults describe a local, auth-less vault under ./data.
	cfg := config.NewDefaultConfig()
	if err := config.LoadOptional(cmd.String("config"), cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.App.HTTP.Port = int(port)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --port: %w", err)
		}
	}

	// === 2. LOGGING ===
	logger := cfg.App.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// === 3. START ===
	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Run blocks until SIGINT/SIGTERM and closes the database on the way out.
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server run error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "codesave",
		Usage:  "Local paste vault with search, folders, stats and JSON backups",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("CODESAVE_CONFIG"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override app.http.port",
				Sources: cli.EnvVars("PORT"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
