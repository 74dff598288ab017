// Package server exposes the performance backend and the Telegram webhook
// over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"portfolioBench/internal/finance"
	"portfolioBench/internal/portfolio"
)

// Performance calculations for long windows can take a while.
const requestTimeout = 2 * time.Minute

// Engine computes performance and quotes.
type Engine interface {
	Performance(ctx context.Context, p portfolio.Portfolio, days int, nav float64) (*finance.Result, error)
	Quote(ctx context.Context, symbol string) (finance.Quote, error)
}

// Repository stores the default portfolio.
type Repository interface {
	LoadDefault(ctx context.Context) (portfolio.Portfolio, error)
	SaveDefault(ctx context.Context, p portfolio.Portfolio) error
}

type Config struct {
	Port int
	Log  zerolog.Logger

	// Engine and Repo enable the /api routes.
	Engine Engine
	Repo   Repository

	// Webhook, when set, is mounted at /telegram/webhook.
	Webhook http.HandlerFunc
}

type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	engine Engine
	repo   Repository
	port   int
}

func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		engine: cfg.Engine,
		repo:   cfg.Repo,
		port:   cfg.Port,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.Webhook)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(requestTimeout))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes(webhook http.HandlerFunc) {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/healthz", s.handleHealth)

	if webhook != nil {
		s.router.Post("/telegram/webhook", webhook)
	}

	if s.engine == nil || s.repo == nil {
		return
	}
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/default", s.handleGetDefault)
			r.Post("/default", s.handleSetDefault)
			r.Post("/performance", s.handlePerformance)
		})
		r.Get("/stock/{symbol}/info", s.handleStockInfo)
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
