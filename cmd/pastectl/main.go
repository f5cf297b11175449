// Command pastectl works on a codesave database from the shell: backups,
// restores, stats and search, without going through the HTTP server.
//
// Run it against the same config file as the server. It takes the database
// directly, so stop the server first when importing (one writer per database).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	_ "github.com/joho/godotenv/autoload"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v3"

	"github.com/sakif/codesave/internal/config"
	"github.com/sakif/codesave/internal/query"
	sqliteRepo "github.com/sakif/codesave/internal/repository/sqlite"
	"github.com/sakif/codesave/internal/service"
	"github.com/sakif/codesave/internal/snapshot"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// workspace is an opened database with the services on top of it.
type workspace struct {
	db     *sqliteRepo.DB
	store  *snapshot.Store
	pastes *service.PasteService
}

func (w *workspace) Close() error {
	return w.db.Close()
}

// app holds what every subcommand shares.
type app struct {
	out    io.Writer
	logger *slog.Logger
	now    func() time.Time
}

func (a *app) open(ctx context.Context, cmd *cli.Command) (*workspace, error) {
	cfg := config.NewDefaultConfig()
	if err := config.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if path := cmd.String("db"); path != "" {
		cfg.SQLite.Path = path
	}

	db, err := sqliteRepo.New(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.SQLite.Path, err)
	}
	store := snapshot.NewStore(db, a.logger)
	pastes := service.NewPasteService(store, a.logger)
	pastes.Load(ctx)

	return &workspace{db: db, store: store, pastes: pastes}, nil
}

// =========================================================================
// COMMANDS
// =========================================================================

func (a *app) export(ctx context.Context, cmd *cli.Command) error {
	ws, err := a.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	data, err := ws.store.ExportJSON(ctx)
	if err != nil {
		return err
	}

	out := cmd.String("out")
	if out == "-" {
		_, err := a.out.Write(append(data, '\n'))
		return err
	}
	if out == "" {
		out = snapshot.BackupFilename(a.now())
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(a.out, "exported %d pastes to %s\n", len(ws.pastes.List()), out)
	return nil
}

func (a *app) importBackup(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: pastectl import FILE")
	}
	file := cmd.Args().First()
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}

	ws, err := a.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	if !ws.pastes.Import(ctx, data) {
		return fmt.Errorf("%s is not a valid backup file", file)
	}
	fmt.Fprintf(a.out, "imported %s: %d pastes\n", file, len(ws.pastes.List()))
	return nil
}

func (a *app) stats(ctx context.Context, cmd *cli.Command) error {
	ws, err := a.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(ws.pastes.Dashboard())
}

func (a *app) search(ctx context.Context, cmd *cli.Command) error {
	ws, err := a.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	filters := query.Filters{
		Language:      cmd.String("language"),
		FavoritesOnly: cmd.Bool("favorites"),
	}
	switch cmd.String("privacy") {
	case "public":
		filters.Privacy = query.Bool(false)
	case "private":
		filters.Privacy = query.Bool(true)
	}

	found := ws.pastes.Search(cmd.Args().First(), filters)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLANGUAGE\tFOLDER\tVIEWS")
	for _, p := range found {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Title, p.Language, ws.pastes.FolderName(p.FolderID), p.Views)
	}
	return tw.Flush()
}

// =========================================================================
// WIRING
// =========================================================================

func newCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "pastectl",
		Usage: "Back up, restore and inspect a codesave database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "config/config.yaml",
				Sources: cli.EnvVars("CODESAVE_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Database path (overrides sqlite.path)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "export",
				Usage:  "Write a backup file",
				Action: a.export,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   `Output file ("-" for stdout); defaults to paste-app-backup-<date>.json`,
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Restore a backup file",
				ArgsUsage: "FILE",
				Action:    a.importBackup,
			},
			{
				Name:   "stats",
				Usage:  "Print dashboard statistics as JSON",
				Action: a.stats,
			},
			{
				Name:      "search",
				Usage:     "Search pastes",
				ArgsUsage: "QUERY",
				Action:    a.search,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "Exact language tag"},
					&cli.StringFlag{Name: "privacy", Usage: `"public" or "private"`},
					&cli.BoolFlag{Name: "favorites", Usage: "Favorites only"},
				},
			},
		},
	}
}

func main() {
	a := &app{
		out: os.Stdout,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})),
		now: time.Now,
	}

	if err := newCommand(a).Run(context.Background(), os.Args); err != nil {
		a.logger.Error("pastectl failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
