// Package server provides the HTTP server and routing for the HRP
// allocation service.
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

	historyhandlers "github.com/dmelis/hrpfolio/internal/modules/history"
	"github.com/dmelis/hrpfolio/internal/modules/optimization"
)

// Config holds server configuration.
type Config struct {
	Port             int
	DevMode          bool
	Log              zerolog.Logger
	OptimizerHandler *optimization.Handler
	HistoryHandler   *historyhandlers.Handler
	SystemHandlers   *SystemHandlers
}

// Server represents the HTTP server.
type Server struct {
	router           *chi.Mux
	server           *http.Server
	log              zerolog.Logger
	optimizerHandler *optimization.Handler
	historyHandler   *historyhandlers.Handler
	systemHandlers   *SystemHandlers
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:           chi.NewRouter(),
		log:              cfg.Log.With().Str("component", "server").Logger(),
		optimizerHandler: cfg.OptimizerHandler,
		historyHandler:   cfg.HistoryHandler,
		systemHandlers:   cfg.SystemHandlers,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.systemHandlers.HandleHealth)

		r.Route("/optimizer", func(r chi.Router) {
			r.Get("/", s.optimizerHandler.HandleGetStatus)
			r.Post("/run", s.optimizerHandler.HandleRun)
			r.Get("/dendrogram", s.optimizerHandler.HandleDendrogram)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/symbols", s.historyHandler.HandleListSymbols)
			r.Put("/prices/{symbol}", s.historyHandler.HandlePutPrices)
			r.Get("/prices/{symbol}", s.historyHandler.HandleGetPrices)
		})

		r.Route("/system", func(r chi.Router) {
			r.Get("/health", s.systemHandlers.HandleSystemHealth)
		})
	})
}

// loggingMiddleware logs HTTP requests
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
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
