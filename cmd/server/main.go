package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/papercraft/internal/ai"
	"github.com/stemsi/papercraft/internal/config"
	"github.com/stemsi/papercraft/internal/database"
	"github.com/stemsi/papercraft/internal/handler"
	"github.com/stemsi/papercraft/internal/logger"
	"github.com/stemsi/papercraft/internal/middleware"
	"github.com/stemsi/papercraft/internal/repository"
	"github.com/stemsi/papercraft/internal/router"
	"github.com/stemsi/papercraft/internal/service"
	"github.com/stemsi/papercraft/internal/validator"
	"github.com/stemsi/papercraft/internal/worker"
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
		Msg("Starting PaperCraft Backend")

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

	// ─── Initialize Repositories ───────────────────────────────────────
	paperRepo := repository.NewPaperRepository(pool)
	authorRepo := repository.NewAuthorRepository(pool)
	eventRepo := repository.NewPaperEventRepository(rdb)
	suggestionRepo := repository.NewSuggestionStateRepository(rdb)

	// ─── AI Collaborator ───────────────────────────────────────────────
	var generator ai.Generator = ai.Noop{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(ctx, cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, cfg.AITimeout, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		generator = gemini
		log.Info().Str("model", cfg.GeminiModel).Msg("AI suggestions enabled")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, AI suggestions disabled")
	}
	if cfg.PDFFontPath == "" {
		log.Warn().Msg("PDF_FONT_PATH not set, PDF export disabled")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	authorService := service.NewAuthorService(authorRepo, authService)
	paperService := service.NewPaperService(paperRepo, eventRepo, log)
	suggestionService := service.NewSuggestionService(cfg, paperService, suggestionRepo, eventRepo, generator, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": handler.PingerFunc(pool.Ping),
			"redis":    handler.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		}, log),
		Catalog:    handler.NewCatalogHandler(),
		Auth:       handler.NewAuthHandler(authService, authorService),
		Paper:      handler.NewPaperHandler(paperService),
		Section:    handler.NewSectionHandler(paperService),
		Question:   handler.NewQuestionHandler(paperService),
		Suggestion: handler.NewSuggestionHandler(suggestionService),
		Output:     handler.NewOutputHandler(paperService, cfg.PDFFontPath),
		WS:         handler.NewWSHandler(paperService, eventRepo, log, cfg.AllowedOrigins),
	}

	limiters := router.Limiters{
		Login:      middleware.NewRateLimiter(10, time.Minute).Middleware(),
		Suggestion: middleware.NewRedisRateLimiter(rdb, cfg.SuggestionRatePerMinute, time.Minute, log).Middleware(),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	workerCount := cfg.SuggestionWorkers
	if workerCount < 1 {
		workerCount = 1
	}
	for i := 0; i < workerCount; i++ {
		w := worker.NewSuggestionWorker(suggestionRepo, suggestionService, i, cfg.SuggestionDrainOnShutdown, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			w.Start(workerCtx)
		}()
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, limiters, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	// 2. Stop suggestion workers. Queued jobs stay for other replicas unless
	// SUGGESTION_DRAIN_ON_SHUTDOWN cancels them.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
