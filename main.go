package main

import (
	"context"
	"log"
	"os"

	"github.com/example/task-quota-service/config"
	apimod "github.com/example/task-quota-service/modules/api"
	taskmod "github.com/example/task-quota-service/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := mono.LogLevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = mono.LogLevelDebug
	case "warn":
		logLevel = mono.LogLevelWarn
	case "error":
		logLevel = mono.LogLevelError
	}
	logFormat := mono.LogFormatText
	if cfg.LogFormat == "json" {
		logFormat = mono.LogFormatJSON
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(logFormat),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}
	logger := app.Logger()

	// The api module depends on task; mono starts task first.
	if err := app.Register(taskmod.NewModule(cfg, logger)); err != nil {
		log.Fatalf("Failed to register task module: %v", err)
	}
	// Rate limit counters share the cache's Redis when it is enabled.
	limiterRedis := ""
	if cfg.Cache.Enabled {
		limiterRedis = cfg.Cache.RedisAddr
	}
	api := apimod.NewModule(cfg.HTTP.Port, logger,
		apimod.WithRateLimit(cfg.HTTP.RateLimitMax, cfg.HTTP.RateLimitWindow, limiterRedis))
	if err := app.Register(api); err != nil {
		log.Fatalf("Failed to register api module: %v", err)
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	logger.Info("Application started",
		"http_port", cfg.HTTP.Port,
		"backend", cfg.Storage.Backend,
		"cache", cfg.Cache.Enabled,
		"breaker", cfg.Breaker.Enabled)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("Application exited", "code", exitCode)
	os.Exit(exitCode)
}

