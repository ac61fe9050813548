// Package server wires the application together: database, services,
// handlers, routes, and the HTTP server lifecycle.
//
// This is the composition root — every dependency is constructed and
// connected here, explicitly, instead of through package-level globals.
// main.go only reads configuration and calls New/Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/HEAL-capstone/HEAL-server/internal/auth"
	"github.com/HEAL-capstone/HEAL-server/internal/handler"
	"github.com/HEAL-capstone/HEAL-server/internal/middleware"
	sqliteRepo "github.com/HEAL-capstone/HEAL-server/internal/repository/sqlite"
	"github.com/HEAL-capstone/HEAL-server/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration // zero means auth.DefaultTokenTTL
}

// Server owns the router, the database connection, and the shutdown
// lifecycle. The database is closed during graceful shutdown so pending WAL
// writes are flushed and the file lock released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//	sqlite.DB → services (account, interest) → handlers → routes
//
// Each layer receives only what it needs; handlers never touch the
// database, and services never touch HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = auth.DefaultTokenTTL
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes(tokens)

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// Route surface:
//
//	POST   /users                    register
//	POST   /auth/login               login (sets token cookie)
//	DELETE /auth/logout              logout (clears cookie)
//	GET    /interests                list categories
//	GET    /users/me                 profile            (auth)
//	PUT    /users/me                 update profile     (auth)
//	PUT    /users/me/password        change password    (auth)
//	DELETE /users/me                 delete account     (auth)
//	GET    /users/me/interests       list my interests  (auth)
//	POST   /users/me/interests       replace interests  (auth)
//	DELETE /users/me/interests/{id}  remove one         (auth)
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	passwords := auth.NewPasswordService()
	accountService := service.NewAccountService(s.db, tokens, passwords, s.logger)
	interestService := service.NewInterestService(s.db, s.logger)

	accountHandler := handler.NewAccountHandler(accountService, s.config.TokenTTL, s.logger)
	interestHandler := handler.NewInterestHandler(interestService, s.logger)

	// Public routes
	s.router.Post("/users", accountHandler.HandleRegister)
	s.router.Post("/auth/login", accountHandler.HandleLogin)
	s.router.Delete("/auth/logout", accountHandler.HandleLogout)
	s.router.Get("/interests", interestHandler.HandleListCategories)

	// Protected routes — RequireAuth resolves the acting user once and puts
	// it in the request context; handlers read it from there.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, s.db, s.logger))

		r.Get("/users/me", accountHandler.HandleMe)
		r.Put("/users/me", accountHandler.HandleUpdateMe)
		r.Put("/users/me/password", accountHandler.HandleChangePassword)
		r.Delete("/users/me", accountHandler.HandleDeleteMe)

		r.Get("/users/me/interests", interestHandler.HandleListMine)
		r.Post("/users/me/interests", interestHandler.HandleReplaceMine)
		r.Delete("/users/me/interests/{id}", interestHandler.HandleRemoveMine)
	})
}

// Router exposes the configured router. Used by tests to drive the full
// stack through httptest without opening a socket.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the server's resources without going through Start's
// shutdown path. Safe to call after a failed Start.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
