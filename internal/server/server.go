// Package server provides the HTTP server and routing for the analytics API.
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

	"github.com/Romequinco/cartera/internal/config"
	"github.com/Romequinco/cartera/internal/database"
	"github.com/Romequinco/cartera/internal/modules/assembler"
	"github.com/Romequinco/cartera/internal/modules/calculations"
	"github.com/Romequinco/cartera/internal/modules/diversification"
	"github.com/Romequinco/cartera/internal/modules/factors"
	"github.com/Romequinco/cartera/internal/modules/markowitz"
	"github.com/Romequinco/cartera/internal/modules/selection"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/modules/topdown"
	"github.com/Romequinco/cartera/internal/returns"
)

// Config holds server configuration.
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	ReturnsDB *database.DB
	CacheDB   *database.DB
}

// Server is the HTTP front end over the analytics modules.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    *config.Config

	handlers *Handlers
}

// New creates a new HTTP server and wires the module handlers.
func New(cfg Config) *Server {
	log := cfg.Log

	store := returns.NewStore(cfg.ReturnsDB)
	cache := calculations.NewCache(cfg.CacheDB, log)
	estimator := statistics.NewEstimator(log)
	selector := selection.NewSelector(log)
	optimizer := markowitz.NewOptimizer(log)

	handlers := NewHandlers(HandlerDeps{
		Log:       log,
		Config:    cfg.Config,
		ReturnsDB: cfg.ReturnsDB,
		CacheDB:   cfg.CacheDB,
		Store:     store,
		Cache:     cache,
		Estimator: estimator,
		Selector:  selector,
		Optimizer: optimizer,
		Simulator: diversification.NewSimulator(log),
		Factors:   factors.NewBuilder(log),
		TopDown:   topdown.NewOptimizer(log),
		Assembler: assembler.New(estimator, selector, optimizer, store, log),
	})

	s := &Server{
		router:   chi.NewRouter(),
		log:      log.With().Str("component", "server").Logger(),
		cfg:      cfg.Config,
		handlers: handlers,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // sweeps run many solves
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(120 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !s.cfg.DevMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handlers.HandleHealth)

		r.Route("/universe", func(r chi.Router) {
			r.Put("/", s.handlers.HandleUploadUniverse)
			r.Get("/", s.handlers.HandleGetUniverse)
		})

		r.Route("/diversification", func(r chi.Router) {
			r.Post("/simulate", s.handlers.HandleSimulate)
			r.Get("/optimal-n", s.handlers.HandleOptimalN)
			r.Get("/equal-weight", s.handlers.HandleEqualWeight)
			r.Get("/contributions", s.handlers.HandleContributions)
		})

		r.Route("/selection", func(r chi.Router) {
			r.Post("/select", s.handlers.HandleSelect)
			r.Get("/scores", s.handlers.HandleScores)
		})

		r.Route("/markowitz", func(r chi.Router) {
			r.Post("/optimize", s.handlers.HandleOptimize)
			r.Post("/compare", s.handlers.HandleCompare)
			r.Post("/frontier", s.handlers.HandleFrontier)
			r.Post("/sensitivity", s.handlers.HandleSensitivity)
		})

		r.Route("/factors", func(r chi.Router) {
			r.Get("/loadings", s.handlers.HandleLoadings)
		})

		r.Route("/topdown", func(r chi.Router) {
			r.Post("/optimize", s.handlers.HandleTopDown)
			r.Get("/strategies", s.handlers.HandleStrategies)
		})

		r.Route("/assembler", func(r chi.Router) {
			r.Post("/run", s.handlers.HandleRun)
			r.Post("/sweep", s.handlers.HandleSweep)
			r.Get("/runs/{id}", s.handlers.HandleGetRun)
			r.Get("/runs/{id}/export", s.handlers.HandleExportRun)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the mux for tests.
func (s *Server) Router() http.Handler {
	return s.router
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
