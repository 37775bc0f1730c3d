package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	app "github.com/cataloghq/catalog-ingest/internal/application/catalog"
	"github.com/cataloghq/catalog-ingest/internal/bootstrap"
	"github.com/cataloghq/catalog-ingest/internal/config"
	infrafile "github.com/cataloghq/catalog-ingest/internal/infrastructure/file"
	"github.com/cataloghq/catalog-ingest/internal/infrastructure/notify"
	"github.com/cataloghq/catalog-ingest/internal/infrastructure/repository"
)

// csvRowSource adapts the concrete CSV reader to the worker's source port.
type csvRowSource struct {
	src *infrafile.CSVSource
}

func (s csvRowSource) Open(ctx context.Context, sourcePath string) (app.RowReader, error) {
	return s.src.Open(ctx, sourcePath)
}

func (s csvRowSource) Remove(sourcePath string) error {
	return s.src.Remove(sourcePath)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to create pgx pool: %v", err)
	}
	defer pool.Close()

	subscriptionRepo := repository.NewSubscriptionRepository(db)
	dispatcher := notify.NewDispatcher(subscriptionRepo, cfg.WebhookTimeout, logger)

	server := bootstrap.NewHTTPServer(db, dispatcher, cfg.UploadDir)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	worker := app.NewIngestWorker(
		repository.NewUploadJobRepository(db),
		csvRowSource{src: infrafile.NewCSVSource(cfg.UploadDir)},
		repository.NewProductMergeRepository(pool),
		dispatcher,
		app.IngestWorkerConfig{
			Workers:      cfg.Workers,
			ChunkSize:    cfg.ChunkSize,
			PollInterval: cfg.PollInterval,
		},
		logger,
	)
	worker.Start(workerCtx)

	go func() {
		if err := server.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()
	logger.Info("catalog-ingest started", "addr", cfg.ListenAddr, "workers", cfg.Workers, "chunk_size", cfg.ChunkSize)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	logger.Info("catalog-ingest stopped")
}
