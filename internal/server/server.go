package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sentinelops/incidentdesk/internal/config"
	"github.com/sentinelops/incidentdesk/internal/handler"
	"github.com/sentinelops/incidentdesk/internal/notify"
	"github.com/sentinelops/incidentdesk/internal/server/middleware"
	"github.com/sentinelops/incidentdesk/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodySize     int64 // bytes
	// LoginRateLimit caps requests per minute per IP on the credential and
	// notification routes. Zero disables the limit.
	LoginRateLimit int
	// BaseURL is advertised in the OpenAPI document. Derived per request
	// when empty.
	BaseURL string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		MaxBodySize:     1 << 20, // 1MB
		LoginRateLimit:  20,
	}
}

// Server is the top-level HTTP server. It owns the Chi router, the store and
// the services the handlers call into.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *config.Store
	authSvc    *service.AuthService
	notifySvc  *notify.Service
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, store *config.Store, authSvc *service.AuthService, notifySvc *notify.Service, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		authSvc:   authSvc,
		notifySvc: notifySvc,
		logger:    logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}
	r.Use(chimw.Compress(5))

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", handler.NewOpenAPIHandler(s.cfg.BaseURL).ServeSpec)

	authHandler := handler.NewAuthHandler(s.authSvc, s.logger)
	limit := middleware.RateLimit(s.cfg.LoginRateLimit)

	// --- Credential endpoints ---
	r.Group(func(r chi.Router) {
		r.Use(limit)
		r.Post("/login", authHandler.Login)
		r.Post("/signup", authHandler.Signup)
		r.Post("/profile", authHandler.Profile)
		r.Post("/refresh-token", authHandler.RefreshToken)
	})

	// --- Notification endpoints ---
	r.Route("/auth", func(r chi.Router) {
		r.Use(limit)
		notifyHandler := handler.NewNotifyHandler(s.notifySvc, s.logger)

		r.Post("/send-otp", notifyHandler.SendOTP)
		r.Post("/verify-otp", notifyHandler.VerifyOTP)
		r.Post("/send-reset-password-code", notifyHandler.SendResetPasswordCode)
		r.Post("/verify-reset-password-code", notifyHandler.VerifyResetPasswordCode)
		r.Post("/send-purchase-confirmation", notifyHandler.SendPurchaseConfirmation)
		r.Post("/send-data-deletion-request", notifyHandler.SendDeletionRequest)
	})

	// --- Admin APIs (access token required) ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(s.authSvc.Tokens()))

		incidentHandler := handler.NewIncidentHandler(s.store, s.logger)
		headingsHandler := handler.NewHeadingsHandler(s.store, s.logger)
		userHandler := handler.NewUserHandler(s.store, s.logger)

		r.Post("/logout", authHandler.Logout)

		r.Get("/incidents", incidentHandler.ListIncidents)
		r.Post("/incidents/status", incidentHandler.UpdateStatus)

		r.Post("/headings/{kind}", headingsHandler.GetHeadings)
		r.Put("/headings/{kind}", headingsHandler.UpdateHeadings)

		r.Get("/users", userHandler.ListUsers)
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the database answers a
// ping, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, check, httpStatus := "ok", "ok", http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		status, check, httpStatus = "degraded", "error: "+err.Error(), http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": map[string]string{s.store.Driver(): check},
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
