// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and routes,
// and decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → sqlite.DB → snapshot.Store → PasteService / AccountService → handlers
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/codesave/internal/auth"
	"github.com/sakif/codesave/internal/config"
	"github.com/sakif/codesave/internal/handler"
	"github.com/sakif/codesave/internal/middleware"
	sqliteRepo "github.com/sakif/codesave/internal/repository/sqlite"
	"github.com/sakif/codesave/internal/service"
	"github.com/sakif/codesave/internal/snapshot"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Run closes it on the way out so
// pending WAL writes are flushed and the file lock is released.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	pastes   *service.PasteService
	accounts *service.AccountService
	store    *snapshot.Store
	tokens   *auth.TokenService
	github   *auth.GitHubProvider
}

// New opens the database, loads the workspace and builds the router.
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` so it is not confused with the
// modernc.org/sqlite driver.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// === DATABASE ===
	if cfg.SQLite.Path != ":memory:" {
		dir := filepath.Dir(cfg.SQLite.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	db, err := sqliteRepo.New(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// === SESSIONS ===
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Only reachable with auth disabled: logins still work, but sessions
		// end with the process.
		if secret, err = randomSecret(); err != nil {
			db.Close()
			return nil, err
		}
		logger.Warn("no jwt_secret configured, using a per-process session secret")
	}
	tokens, err := auth.NewTokenService(secret, cfg.Auth.SessionTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	// === SERVICES ===
	store := snapshot.NewStore(db, logger)
	pastes := service.NewPasteService(store, logger)
	pastes.Load(ctx)
	accounts := service.NewAccountService(store, tokens, auth.NewPasswordService(), logger)

	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		logger:   logger,
		db:       db,
		pastes:   pastes,
		accounts: accounts,
		store:    store,
		tokens:   tokens,
	}
	if gh := cfg.Auth.GitHub; gh.Enabled() {
		s.github = auth.NewGitHubProvider(gh.ClientID, gh.ClientSecret, gh.CallbackURL)
	}

	s.setupRoutes()
	return s, nil
}

// Handler returns the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /health                        → liveness
//	GET    /api/pastes                    → my pastes (filter, folder, sort)
//	POST   /api/pastes                    → create            [session]
//	DELETE /api/pastes                    → clear everything  [session]
//	POST   /api/pastes/upload             → files → pastes    [session]
//	GET    /api/pastes/{id}               → one paste
//	PUT    /api/pastes/{id}               → update            [session]
//	DELETE /api/pastes/{id}               → delete            [session]
//	POST   /api/pastes/{id}/view          → count a view
//	POST   /api/pastes/{id}/favorite      → toggle favorite   [session]
//	GET    /api/pastes/{id}/raw           → download
//	GET    /api/search, /api/search/suggest
//	GET    /api/community, /api/community/stats
//	GET    /api/dashboard, /api/stats, /api/languages
//	GET    /api/folders                   POST /api/folders        [session]
//	GET    /api/preferences               PATCH/DELETE             [session]
//	GET    /api/profile                   PUT                      [session]
//	GET    /api/backup                    POST (import)            [session]
//	POST   /api/auth/register, /api/auth/login, /api/auth/logout
//	GET    /api/auth/me                                             [always]
//	GET    /api/auth/github/login, /api/auth/github/callback   (when configured)
//
// [session] routes require a session only when auth.mode is "session".
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: assigns a unique ID to each request
//  2. RealIP: extracts the client IP from proxy headers
//  3. Recoverer: turns panics into 500s
//  4. OptionalAuth: records who is signed in, so the logger can show it
//  5. Logger: one line per request
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.OptionalAuth(s.tokens))
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	pasteHandler := handler.NewPasteHandler(s.pastes, s.logger)
	settingsHandler := handler.NewSettingsHandler(s.accounts, s.pastes, s.store, s.logger)
	authHandler := handler.NewAuthHandler(s.accounts, s.github, s.tokens, s.cfg.Auth.SecureCookies, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// === Reads ===
		r.Get("/pastes", pasteHandler.HandleList)
		r.Get("/pastes/{id}", pasteHandler.HandleGetByID)
		r.Post("/pastes/{id}/view", pasteHandler.HandleView)
		r.Get("/pastes/{id}/raw", pasteHandler.HandleRaw)
		r.Get("/search", pasteHandler.HandleSearch)
		r.Get("/search/suggest", pasteHandler.HandleSuggest)
		r.Get("/community", pasteHandler.HandleCommunity)
		r.Get("/community/stats", pasteHandler.HandleCommunityStats)
		r.Get("/dashboard", pasteHandler.HandleDashboard)
		r.Get("/stats", pasteHandler.HandleStats)
		r.Get("/folders", pasteHandler.HandleListFolders)
		r.Get("/languages", handler.HandleLanguages)
		r.Get("/preferences", settingsHandler.HandleGetPreferences)
		r.Get("/profile", settingsHandler.HandleGetProfile)

		// === Auth ===
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.With(auth.RequireAuth(s.tokens)).Get("/auth/me", authHandler.HandleMe)
		if s.github != nil {
			r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		}

		// === Changes ===
		r.Group(func(r chi.Router) {
			if s.cfg.Auth.Enabled() {
				r.Use(auth.RequireAuth(s.tokens))
			}
			r.Post("/pastes", pasteHandler.HandleCreate)
			r.Delete("/pastes", pasteHandler.HandleClearAll)
			r.Post("/pastes/upload", pasteHandler.HandleUpload)
			r.Put("/pastes/{id}", pasteHandler.HandleUpdate)
			r.Delete("/pastes/{id}", pasteHandler.HandleDelete)
			r.Post("/pastes/{id}/favorite", pasteHandler.HandleToggleFavorite)
			r.Post("/folders", pasteHandler.HandleCreateFolder)
			r.Patch("/preferences", settingsHandler.HandleUpdatePreferences)
			r.Delete("/preferences", settingsHandler.HandleResetPreferences)
			r.Put("/profile", settingsHandler.HandleUpdateProfile)
			r.Get("/backup", settingsHandler.HandleExport)
			r.Post("/backup", settingsHandler.HandleImport)
		})
	})
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully and closes the database.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (shutdown_timeout)
//  3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Run(ctx context.Context) error {
	defer s.db.Close()

	httpCfg := s.cfg.App.HTTP
	srv := &http.Server{
		Addr:         httpCfg.Address(),
		Handler:      s.router,
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
		IdleTimeout:  httpCfg.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting",
			slog.String("address", httpCfg.Address()),
			slog.String("database", s.cfg.SQLite.Path),
			slog.String("auth", s.cfg.Auth.Mode),
			slog.Bool("github", s.github != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			s.logger.Info("context cancelled, shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
