package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfbarbosa/acervo/internal/config"
	"github.com/mfbarbosa/acervo/internal/database"
	"github.com/mfbarbosa/acervo/internal/handler"
	"github.com/mfbarbosa/acervo/internal/pje"
	"github.com/mfbarbosa/acervo/internal/scheduler"
	"github.com/mfbarbosa/acervo/internal/service"
	"github.com/mfbarbosa/acervo/internal/storage"
	"github.com/mfbarbosa/acervo/pkg/middleware"
)

const version = "1.2.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting Acervo Capture Service", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to MongoDB (timeline document store)
	mongo, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongo.Disconnect(context.Background()); err != nil {
			slog.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()

	if err := database.CreateIndexes(ctx, mongo); err != nil {
		slog.Error("Failed to create MongoDB indexes", "error", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL (process records and capture locks)
	pg, err := database.OpenPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	if err := database.EnsureSchema(ctx, pg); err != nil {
		slog.Error("Failed to ensure PostgreSQL schema", "error", err)
		os.Exit(1)
	}

	// Object storage
	archiver, err := storage.NewArchiver(ctx, cfg.S3Bucket, cfg.S3Region)
	if err != nil {
		slog.Error("Failed to initialize object storage", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	timelineRepo := database.NewTimelineRepository(mongo)
	processoRepo := database.NewProcessoRepository(pg)
	lockRepo := database.NewLockRepository(pg)

	// Upstream PJE client and pager
	pjeClient := pje.NewClient(cfg.PJEBaseURLTemplate, cfg.PJETimeout)
	pager := pje.NewPager(cfg.PJEPageSize, cfg.PJEPageDelay)

	// Capture services
	lock := service.NewCaptureLock(lockRepo, service.LockOptions{
		TTL:          cfg.LockTTL,
		AcquireWait:  cfg.LockAcquireWait,
		PollInterval: cfg.LockPollInterval,
	})
	reconciler := service.NewReconciler(pjeClient, archiver, cfg.S3Folder)
	persistence := service.NewPersistence(timelineRepo, processoRepo)
	captureService := service.NewCaptureService(processoRepo, timelineRepo, pjeClient, reconciler, persistence, lock)
	orchestrator := service.NewOrchestrator(processoRepo, captureService)
	acervoService := service.NewAcervoService(pjeClient, processoRepo, pager, lock)
	asyncCapture := service.NewAsyncCapture(captureService)

	// Scheduler (optional periodic acervo recapture)
	sched, err := scheduler.New(cfg, acervoService)
	if err != nil {
		slog.Error("Failed to initialize scheduler", "error", err)
		os.Exit(1)
	}
	if sched != nil {
		if err := sched.Start(); err != nil {
			slog.Error("Failed to start scheduler", "error", err)
			os.Exit(1)
		}
	}

	// Initialize handlers
	captureHandler := handler.NewCaptureHandler(captureService, orchestrator, acervoService, asyncCapture)
	processoHandler := handler.NewProcessoHandler(processoRepo)
	healthHandler := handler.NewHealthHandler(mongo, pg, version)

	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	router := handler.NewRouter(captureHandler, processoHandler, healthHandler, corsConfig)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if sched != nil {
		slog.Info("Stopping scheduler...")
		sched.Stop(shutdownCtx)
	}

	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Acervo Capture Service stopped")
}
