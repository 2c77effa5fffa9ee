// Package server exposes the read/trigger HTTP API. Handlers translate
// orchestrator/persistence results into JSON; they own no pipeline
// business logic themselves.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/arduino-trader/internal/backtest"
	"github.com/aristath/arduino-trader/internal/cache"
	"github.com/aristath/arduino-trader/internal/config"
	"github.com/aristath/arduino-trader/internal/domain"
	"github.com/aristath/arduino-trader/internal/market"
	"github.com/aristath/arduino-trader/internal/orchestrator"
	"github.com/aristath/arduino-trader/internal/persistence"
	"github.com/aristath/arduino-trader/internal/scheduler"
	"github.com/aristath/arduino-trader/internal/simplified"
)

// Config holds server configuration.
type Config struct {
	Port         int
	Log          zerolog.Logger
	Config       *config.Config
	DevMode      bool
	Repository   *persistence.Repository
	Cache        *cache.Service
	Market       *market.Client
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *scheduler.Scheduler
	Weights      domain.Weights
}

// Server represents the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger

	cfg          *config.Config
	repo         *persistence.Repository
	cacheSvc     *cache.Service
	marketClient *market.Client
	orch         *orchestrator.Orchestrator
	sched        *scheduler.Scheduler
	weights      domain.Weights
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		log:          cfg.Log.With().Str("component", "server").Logger(),
		cfg:          cfg.Config,
		repo:         cfg.Repository,
		cacheSvc:     cfg.Cache,
		marketClient: cfg.Market,
		orch:         cfg.Orchestrator,
		sched:        cfg.Scheduler,
		weights:      cfg.Weights,
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

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/index/latest", s.handleIndexLatest)
		r.Get("/index/history", s.handleIndexHistory)
		r.Get("/components/latest", s.handleComponentsLatest)
		r.Get("/metadata/weights", s.handleWeights)
		r.Get("/simplified-v2/score", s.handleSimplifiedScore)
		r.Get("/backtest/run", s.handleBacktestRun)
		r.Post("/pipeline/run", s.handlePipelineRun)
		r.Get("/scheduler/status", s.handleSchedulerStatus)
		r.Get("/media/latest", s.handleMediaLatest)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("starting http server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down http server")
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
			Msg("http request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndexLatest(w http.ResponseWriter, r *http.Request) {
	var snap domain.IndexSnapshot
	key := "index:latest"
	if s.cacheSvc != nil && s.cacheSvc.Get(r.Context(), key, &snap) {
		writeJSON(w, http.StatusOK, snap)
		return
	}

	snap, err := s.repo.LatestSnapshot()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if s.cacheSvc != nil {
		_ = s.cacheSvc.Set(r.Context(), key, snap, cache.TTLArticleListing)
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleIndexHistory(w http.ResponseWriter, r *http.Request) {
	rangeParam := r.URL.Query().Get("range")
	since := sinceFor(rangeParam)

	snaps, err := s.repo.History(since)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// sinceFor maps the range query param to a lower bound; History itself
// returns at most 365 snapshots (the oldest at or after that bound),
// regardless of what's passed here.
func sinceFor(rangeParam string) time.Time {
	now := time.Now()
	switch rangeParam {
	case "30d":
		return now.AddDate(0, 0, -30)
	case "90d":
		return now.AddDate(0, 0, -90)
	case "180d":
		return now.AddDate(0, 0, -180)
	case "1y":
		return now.AddDate(-1, 0, 0)
	case "all":
		return time.Time{}
	default:
		return now.AddDate(0, 0, -30)
	}
}

func (s *Server) handleComponentsLatest(w http.ResponseWriter, r *http.Request) {
	snap, err := s.repo.LatestSnapshot()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap.Components)
}

func (s *Server) handleWeights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.weights)
}

func (s *Server) handleSimplifiedScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bars := s.marketClient.FetchHistory(ctx, 30)

	recentArticles, err := s.repo.LatestArticles(50, 0)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	score := simplified.Score(bars, recentArticles, s.cfg.UniverseSize)
	writeJSON(w, http.StatusOK, map[string]interface{}{"score": score})
}

func (s *Server) handleBacktestRun(w http.ResponseWriter, r *http.Request) {
	rangeParam := r.URL.Query().Get("range")
	since := sinceFor(rangeParam)
	if since.IsZero() {
		since = time.Now().AddDate(0, 0, -90)
	}

	snaps, err := s.repo.History(since)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	bars := s.marketClient.FetchHistory(r.Context(), 400)

	writeJSON(w, http.StatusOK, backtest.Run(snaps, bars))
}

func (s *Server) handlePipelineRun(w http.ResponseWriter, r *http.Request) {
	result := s.orch.RunPipeline(r.Context(), time.Time{})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.List())
}

func (s *Server) handleMediaLatest(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	var cursor int64
	if v := r.URL.Query().Get("cursor"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cursor = n
		}
	}

	articles, err := s.repo.LatestArticles(limit, cursor)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
