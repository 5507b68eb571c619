// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"veracity-pipeline/internal/config"
	contentAdapters "veracity-pipeline/internal/infra/adapters/content"
	pg "veracity-pipeline/internal/infra/db/postgres"
	"veracity-pipeline/internal/infra/logging"
	"veracity-pipeline/internal/infra/metrics"
	"veracity-pipeline/internal/infra/queue/redisq"
	"veracity-pipeline/internal/infra/web"
	"veracity-pipeline/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)
	batchRepo := pg.NewBatchRepo(pool, tm)
	resultRepo := pg.NewResultRepo(pool)

	// ---- Queue (publisher side) ----
	queue, err := redisq.New(ctx, &cfg.Redis, &cfg.Queue, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("queue connect failed")
	}
	defer queue.Close()

	// ---- Content source ----
	contentSrc, err := contentAdapters.NewHTTPSource(cfg.Content.BaseURL, cfg.Content.Timeout, cfg.Content.MaxRetries)
	if err != nil {
		logger.Fatal().Err(err).Msg("content source init failed")
	}

	// ---- Preparer + API ----
	preparer := usecase.NewBatchPreparer(batchRepo, contentSrc, queue,
		cfg.Prepare.ChunkSize, cfg.Prepare.ValidateConcurrency, logger)
	srv := web.NewServer(preparer, batchRepo, resultRepo, cfg.API.Key, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.API.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("submission API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
