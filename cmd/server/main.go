package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/arduino-trader/internal/cache"
	"github.com/aristath/arduino-trader/internal/config"
	"github.com/aristath/arduino-trader/internal/database"
	"github.com/aristath/arduino-trader/internal/domain"
	"github.com/aristath/arduino-trader/internal/extractor"
	"github.com/aristath/arduino-trader/internal/fetcher"
	"github.com/aristath/arduino-trader/internal/market"
	"github.com/aristath/arduino-trader/internal/orchestrator"
	"github.com/aristath/arduino-trader/internal/persistence"
	"github.com/aristath/arduino-trader/internal/scheduler"
	"github.com/aristath/arduino-trader/internal/sentiment"
	"github.com/aristath/arduino-trader/internal/server"
	"github.com/aristath/arduino-trader/internal/sources"
	"github.com/aristath/arduino-trader/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})

	log.Info().Msg("starting fear & greed index service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	fetch := fetcher.New(log)
	marketClient := market.New(fetch, log)

	var sentimentClient *sentiment.Client
	if cfg.LLMAPIKey != "" {
		sentimentClient = sentiment.NewClient(cfg.LLMAPIKey, cfg.LLMModel, "")
	}
	analyzer := sentiment.New(sentimentClient, log)

	cacheSvc := cache.New(cfg.RedisURL, log)
	repo := persistence.New(db)

	mirrorCtx, cancelMirror := context.WithTimeout(context.Background(), 10*time.Second)
	mirror, err := persistence.NewMirror(mirrorCtx, cfg.S3Bucket, cfg.AWSRegion, log)
	cancelMirror()
	if err != nil {
		log.Warn().Err(err).Msg("s3 mirror disabled")
	}

	urlCachePath := filepath.Join(filepath.Dir(cfg.DatabaseURL), "seen_urls.json")
	urlCache := extractor.NewURLCache(urlCachePath)

	extractOpts := extractor.Options{
		MinContentLength: cfg.MinContentLength,
		MaxAgeDays:       cfg.MaxArticleAgeDays,
	}

	weights := domain.DefaultWeights()

	orch := orchestrator.New(orchestrator.Config{
		Market:               marketClient,
		Sentiment:            analyzer,
		Repository:           repo,
		Cache:                cacheSvc,
		Mirror:               mirror,
		Sources:              sources.Default(),
		ExtractOptions:       extractOpts,
		URLCache:             urlCache,
		Scrape:               orchestrator.DefaultScrape(fetch),
		Weights:              weights,
		MaxArticlesPerSource: 10,
		Log:                  log,
	})

	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	if err := registerJobs(sched, orch, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to register jobs")
	}

	srv := server.New(server.Config{
		Port:         cfg.Port,
		Log:          log,
		Config:       cfg,
		DevMode:      cfg.DevMode,
		Repository:   repo,
		Cache:        cacheSvc,
		Market:       marketClient,
		Orchestrator: orch,
		Scheduler:    sched,
		Weights:      weights,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// dailyPipelineJob wraps the orchestrator under a distinct job name so its
// daily-cron registration doesn't replace the interval registration: the
// scheduler keys non-reentrancy and cron entries by Name(), and registering
// two triggers under the same name would make the second one evict the
// first (see scheduler.register).
type dailyPipelineJob struct {
	*orchestrator.Orchestrator
}

func (dailyPipelineJob) Name() string { return "fear_greed_pipeline_daily" }

func registerJobs(sched *scheduler.Scheduler, orch *orchestrator.Orchestrator, cfg *config.Config) error {
	if err := sched.AddInterval(orch, cfg.SchedulerIntervalMinutes); err != nil {
		return err
	}

	tz, err := time.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		tz = time.UTC
	}
	return sched.AddDaily(dailyPipelineJob{orch}, cfg.SchedulerDailyRun, tz)
}
