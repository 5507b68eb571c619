// File: cmd/worker/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veracity-pipeline/internal/config"
	"veracity-pipeline/internal/domain/ports/adapter"
	aiAdapters "veracity-pipeline/internal/infra/adapters/ai"
	contentAdapters "veracity-pipeline/internal/infra/adapters/content"
	"veracity-pipeline/internal/infra/adapters/notify"
	pg "veracity-pipeline/internal/infra/db/postgres"
	"veracity-pipeline/internal/infra/logging"
	"veracity-pipeline/internal/infra/metrics"
	"veracity-pipeline/internal/infra/queue/redisq"
	"veracity-pipeline/internal/infra/worker"
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

	// ---- Queue (consumer side) ----
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

	// ---- Analysis engine (primary -> heuristic fallback) ----
	heuristic := aiAdapters.NewHeuristicScorer()
	var primary adapter.AnalysisEngine
	if cfg.AI.OpenAIKey != "" {
		primary, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel, cfg.AI.OpenAIBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter init failed")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("analysis engine: OpenAI-compatible")
	} else if cfg.AI.GeminiKey != "" {
		primary, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter init failed")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("analysis engine: Gemini")
	} else {
		logger.Warn().Msg("no engine provider configured; running heuristic-only")
		primary = heuristic
	}
	engine := aiAdapters.NewFailoverEngine(
		aiAdapters.NewLimitedEngine(primary, cfg.AI.ConcurrentLimit),
		heuristic, cfg.AI.Timeout, logger)

	// ---- Alerts ----
	var notifier adapter.AlertNotifier
	if cfg.Alerts.TelegramToken != "" && cfg.Alerts.ChatID != 0 {
		notifier, err = notify.NewTelegramNotifier(cfg.Alerts.TelegramToken, cfg.Alerts.ChatID, logger)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifier init failed; alerts disabled")
			notifier = notify.NewNoopNotifier()
		}
	} else {
		notifier = notify.NewNoopNotifier()
	}

	// ---- Processor + consume loop ----
	processor := usecase.NewMessageProcessor(batchRepo, resultRepo, contentSrc, engine,
		cfg.Worker.DocConcurrency, logger)
	pool2 := worker.NewPool(cfg.Worker.PoolWorkers, logger)
	pool2.Start(ctx)
	defer pool2.Stop()

	consumer := worker.NewConsumer(queue, processor, notifier, pool2, cfg.Queue, logger)
	go func() {
		if err := consumer.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("consumer stopped")
		}
	}()

	// ---- Metrics endpoint ----
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	metricsSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Worker.MetricsPort), Handler: mux}
	go func() {
		logger.Info().Str("addr", metricsSrv.Addr).Msg("worker metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	logger.Info().Str("signal", s.String()).Msg("shutting down")
	cancel()
	_ = metricsSrv.Close()
}
