// Package server is the composition root: it opens the configured store,
// builds services and handlers on top of it, mounts the routes and runs
// the HTTP server until a shutdown signal.
//
// DEPENDENCY FLOW:
//
//	config.Config → repository.Store (sqlite or redisstore)
//	             → TokenService / ThemeService / MessageService
//	             → Teacher / Staff / Student / Page / Health handlers
//
// Nothing below this package knows which storage engine is in use.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/otayori/internal/auth"
	"github.com/sakif/otayori/internal/config"
	"github.com/sakif/otayori/internal/handler"
	"github.com/sakif/otayori/internal/metrics"
	"github.com/sakif/otayori/internal/middleware"
	"github.com/sakif/otayori/internal/repository"
	"github.com/sakif/otayori/internal/repository/redisstore"
	sqliteRepo "github.com/sakif/otayori/internal/repository/sqlite"
	"github.com/sakif/otayori/internal/service"
)

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
}

// New opens the store named by cfg.Backend and wires every route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s, err := NewWithStore(cfg, logger, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore wires routes on an already opened store. Tests use it with an
// in-memory database.
func NewWithStore(cfg *config.Config, logger *slog.Logger, store repository.Store) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// OpenStore connects to the backend cfg selects.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		store, err := redisstore.Open(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("opening redis store: %w", err)
		}
		return store, nil

	case config.BackendSQLite:
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes mounts middleware and routes.
//
// ROUTES:
//
//	GET    /                                  student page
//	GET    /teacher                           teacher page
//	GET    /staff                             staff page
//	GET    /healthz                           store ping
//	GET    /metrics                           Prometheus
//	GET    /api/teacher/get-current-token     current staff link or nulls
//	POST   /api/teacher/generate-url          rotate the access token
//	GET    /api/teacher/logs                  audit log
//	GET    /api/verify-token/{token}          200 valid / 401 invalid
//	GET    /api/staff/themes                  every active theme
//	POST   /api/staff/themes                  create theme
//	DELETE /api/staff/themes/{id}             deactivate theme
//	GET    /api/staff/messages                every message with theme title
//	PUT    /api/staff/messages/{id}/read      mark read
//	GET    /api/student/themes                themes open today
//	POST   /api/student/messages              submit a message
//
// Middleware order: RequestID must run before Logger so the id is logged;
// Recoverer sits inside Logger so a panic is still logged as a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokenService := service.NewTokenService(s.store, s.logger)
	themeService := service.NewThemeService(s.store, s.logger, s.config.Location())
	messageService := service.NewMessageService(s.store, s.logger)

	teacherHandler := handler.NewTeacherHandler(tokenService, messageService, s.config.PublicBaseURL)
	staffHandler := handler.NewStaffHandler(themeService, messageService)
	studentHandler := handler.NewStudentHandler(themeService, messageService)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	pageHandler, err := handler.NewPageHandler(s.config.WebDir)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	// === Pages ===
	s.router.Get("/", pageHandler.HandleStudent)
	s.router.Get("/teacher", pageHandler.HandleTeacher)
	s.router.Get("/staff", pageHandler.HandleStaff)

	// === Operations ===
	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	// === API ===
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/teacher", func(r chi.Router) {
			r.Get("/get-current-token", teacherHandler.HandleCurrentToken)
			r.Post("/generate-url", teacherHandler.HandleGenerateURL)
			r.Get("/logs", teacherHandler.HandleLogs)
		})

		r.Get("/verify-token/{token}", teacherHandler.HandleVerify)

		r.Route("/staff", func(r chi.Router) {
			if s.config.RequireStaffToken {
				r.Use(auth.RequireAccessToken(tokenService))
			}
			r.Get("/themes", staffHandler.HandleListThemes)
			r.Post("/themes", staffHandler.HandleCreateTheme)
			r.Delete("/themes/{id}", staffHandler.HandleDeactivateTheme)
			r.Get("/messages", staffHandler.HandleListMessages)
			r.Put("/messages/{id}/read", staffHandler.HandleMarkRead)
		})

		r.Route("/student", func(r chi.Router) {
			r.Get("/themes", studentHandler.HandleListThemes)
			r.Post("/messages", studentHandler.HandleSubmitMessage)
		})
	})

	return nil
}

// Start serves HTTP until SIGINT/SIGTERM, then drains in-flight requests for
// up to cfg.ShutdownTimeout and closes the store.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("backend", s.config.Backend),
			slog.String("timezone", s.config.Location().String()),
			slog.Bool("staff_token_required", s.config.RequireStaffToken),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
