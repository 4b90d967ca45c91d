package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"stride-coach/common/logger"
	"stride-coach/internal/config"
	"stride-coach/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "stride-coach")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("Starting stride-coach service",
		zap.String("runner_id", cfg.Engine.RunnerID),
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.Bool("database", cfg.Database.Enabled),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("mqtt", cfg.MQTT.Enabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gaitService, err := service.NewGaitService(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to create gait service", zap.Error(err))
	}

	if err := gaitService.Start(ctx); err != nil {
		zlog.Fatal("Failed to start gait service", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zlog.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	cancel()
	if err := gaitService.Stop(context.Background()); err != nil {
		zlog.Error("Error during shutdown", zap.Error(err))
	}

	zlog.Info("Service stopped")
}
