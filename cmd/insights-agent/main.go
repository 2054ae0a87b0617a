package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/halcyonhq/insights-platform/internal/burnout"
	"github.com/halcyonhq/insights-platform/internal/insights"
	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/internal/learning"
	"github.com/halcyonhq/insights-platform/pkg/config"
	"github.com/halcyonhq/insights-platform/pkg/health"
	"github.com/halcyonhq/insights-platform/pkg/mqtt"
	"github.com/halcyonhq/insights-platform/pkg/postgres"
	"github.com/halcyonhq/insights-platform/pkg/redis"
)

func main() {
	// Standard bootstrap (consistent with other agents)
	cfg := config.NewConfig()
	cfg.ServiceName = "insights-agent"
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting Insights Agent",
		"mqtt", cfg.MQTTAddress(),
		"redis", cfg.RedisAddress(),
		"postgres", fmt.Sprintf("%s:%d/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize clients
	mqttClient := mqtt.NewClient(cfg, logger)
	redisClient := redis.NewClient(cfg, logger)

	pgClient := postgres.NewClient(cfg, logger)
	if err := pgClient.Connect(ctx); err != nil {
		logger.Error("Failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	// Assemble the pipeline
	entryStore := journal.NewStore(pgClient, logger)
	learningStore := learning.NewStore(redisClient, logger)
	learningSvc := learning.NewService(learningStore, entryStore, cfg.Learning, logger)
	resultStorage := insights.NewStorage(redisClient, logger)
	generator := insights.NewGenerator(entryStore, learningSvc, resultStorage,
		insights.DefaultEngines(cfg), cfg.Insights, logger)
	scorer := burnout.NewScorer(cfg.Burnout, logger)
	api := insights.NewAPI(generator, learningSvc, scorer, entryStore, cfg, logger)

	agent := insights.NewAgent(mqttClient, redisClient, generator, learningSvc,
		entryStore, api, cfg, logger)

	// Health endpoints on their own port
	checker := health.NewChecker(mqttClient, redisClient, pgClient, logger)
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", checker.HandlerFunc())
		mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())
		addr := fmt.Sprintf(":%d", cfg.HealthPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("Health server failed", "error", err)
		}
	}()

	// Start agent
	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			agentErr <- err
		}
	}()

	// Wait for shutdown
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	cancel()
	agent.Stop()
	logger.Info("Insights agent stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
