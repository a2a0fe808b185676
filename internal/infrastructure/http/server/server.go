// Package server provides the HTTP server of the wizard API
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/fusionchef/internal/ports/inbound"
)

// RouterDeps are the pieces the router is assembled from. Limiter and Metrics are
// optional.
type RouterDeps struct {
	Config   config.ServerConfig
	Sessions *handlers.SessionHandlers
	Auth     *handlers.AuthHandlers
	Identity inbound.AuthService
	Limiter  func(http.Handler) http.Handler
	Metrics  func(http.Handler) http.Handler
	Logger   *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	config config.ServerConfig
	logger *zap.Logger
	router chi.Router
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(deps RouterDeps) *Server {
	cfg := deps.Config
	s := &Server{
		config: cfg,
		logger: deps.Logger.Named("http"),
		router: NewRouter(deps),
	}

	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	return s
}

// NewRouter configures the router with middleware and routes
func NewRouter(deps RouterDeps) chi.Router {
	cfg := deps.Config
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	if cfg.EnableCORS {
		r.Use(middleware.CORS(cfg.AllowedOrigins))
	}
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "fusionchef.api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}))
	})
	if deps.Metrics != nil {
		r.Use(deps.Metrics)
	}
	r.Use(middleware.Authenticate(deps.Identity, deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	api := []func(http.Handler) http.Handler{chimiddleware.Timeout(timeout)}
	if cfg.EnableCompression {
		api = append(api, middleware.Compress(5))
	}
	api = append(api, middleware.JSONOnly())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(api...).Post("/sessions", deps.Sessions.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			// The event stream hijacks the connection, so it stays clear of timeouts
			// and compression.
			r.Get("/events", deps.Sessions.Events)
			r.Group(func(r chi.Router) {
				r.Use(api...)
				setupSessionRoutes(r, deps)
			})
		})
		r.Group(func(r chi.Router) {
			r.Use(api...)
			setupAuthRoutes(r, deps.Auth)
		})
	})

	return r
}

// setupSessionRoutes configures the routes under /sessions/{id}
func setupSessionRoutes(r chi.Router, deps RouterDeps) {
	h := deps.Sessions
	limited := func(next http.HandlerFunc) http.Handler {
		if deps.Limiter == nil {
			return next
		}
		return deps.Limiter(next)
	}

	r.Get("/", h.GetSession)
	r.Delete("/", h.DeleteSession)
	r.Patch("/choices", h.UpdateChoices)

	// Wizard
	r.Post("/next", h.Next)
	r.Post("/back", h.Back)
	r.Post("/tab", h.SelectTab)
	r.Post("/restore", h.Restore)
	r.Post("/reset", h.Reset)
	r.Post("/ingredients", h.SubmitIngredients)
	r.Post("/seasonal", h.Seasonal)
	r.Post("/convenience", h.Convenience)
	r.Method(http.MethodPost, "/convenience/select", limited(h.SelectConvenience))
	r.Method(http.MethodPost, "/generate", limited(h.Generate))
	r.Post("/history/back", h.PreviousRecipe)
	r.Post("/history/forward", h.NextRecipe)
	r.Post("/auth/signin", deps.Auth.SignIn)

	// Community feed
	r.Get("/feed", h.Feed)
	r.Post("/feed/filter", h.FilterFeed)
	r.Post("/feed/more", h.MoreFeed)
	r.Post("/feed/reload", h.ReloadFeed)
	r.Post("/feed/attach", h.AttachFeed)
	r.Post("/feed/detach", h.DetachFeed)
	r.Post("/recipes/close", h.CloseRecipe)

	// Engagement
	r.Route("/recipes/{rid}", func(r chi.Router) {
		r.Post("/open", h.OpenRecipe)
		r.Post("/vote", h.Vote)
		r.Post("/rating", h.Rate)
		r.Post("/download", h.Download)
		r.Get("/comments", h.Comments)
		r.Post("/comments", h.AddComment)
	})
}

func setupAuthRoutes(r chi.Router, h *handlers.AuthHandlers) {
	r.Get("/auth/callback", h.Callback)
	r.Post("/auth/signout", h.SignOut)
	r.Get("/auth/me", h.Me)
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	// Enable HTTP/2
	if err := http2.ConfigureServer(s.server, nil); err != nil {
		s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
