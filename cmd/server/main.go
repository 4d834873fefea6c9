package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/database"
	"github.com/ieltsprep/ielts-backend/internal/handler"
	"github.com/ieltsprep/ielts-backend/internal/logger"
	"github.com/ieltsprep/ielts-backend/internal/repository"
	"github.com/ieltsprep/ielts-backend/internal/router"
	"github.com/ieltsprep/ielts-backend/internal/service"
	"github.com/ieltsprep/ielts-backend/internal/storage"
	"github.com/ieltsprep/ielts-backend/internal/validator"
	"github.com/ieltsprep/ielts-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("storage", cfg.StorageDriver).
		Msg("Starting IELTS Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Media Storage ─────────────────────────────────────────────────
	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize media storage")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	testRepo := repository.NewTestRepository(pool)
	setRepo := repository.NewQuestionSetRepository(pool)
	subRepo := repository.NewSubmissionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	testService := service.NewTestService(testRepo, setRepo, rdb, log)
	authoringService := service.NewAuthoringService(testService, setRepo, log)
	attemptService := service.NewAttemptService(testService, subRepo, rdb, cfg, log)
	mediaService := service.NewMediaService(blobs, cfg.MaxUploadBytes, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	probes := map[string]database.Pinger{
		"postgres": database.PostgresPinger(pool),
		"redis":    database.RedisPinger(rdb),
	}
	handlers := &router.Handlers{
		Test:      handler.NewTestHandler(testService, log),
		Authoring: handler.NewAuthoringHandler(authoringService, log),
		Attempt:   handler.NewAttemptHandler(attemptService, authService, log),
		Media:     handler.NewMediaHandler(mediaService, log),
		WS:        handler.NewWSHandler(attemptService, log, cfg.AllowedOrigins),
		System:    handler.NewSystemHandler(probes, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	submissionWorker := worker.NewSubmissionWorker(subRepo, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		submissionWorker.Start(workerCtx)
	}()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every published paper before accepting traffic so the first
	// wave of attempt starts does not stampede PostgreSQL.
	if err := testService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the submission worker and wait for the queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
