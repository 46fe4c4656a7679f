// Command swarmer runs the job scheduling engine: it accepts jobs over
// HTTP, dispatches their tasks as one-shot Docker Swarm services, collects
// task results, and posts aggregated job records to callback URLs.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/openswarm/swarmer/config"
	"github.com/openswarm/swarmer/internal/adapters/docker"
	"github.com/openswarm/swarmer/internal/auth"
	"github.com/openswarm/swarmer/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting swarmer",
		"addr", cfg.HTTP.Addr(),
		"redis", cfg.Redis.Addr(),
		"queue_capacity", cfg.Scheduler.QueueCapacity,
		"dev", cfg.IsDev,
	)

	redisClient, err := bootstrap.ConnectRedis(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	broker, err := bootstrap.BuildAuthBroker(logger)
	if err != nil {
		return err
	}

	services, backend, err := buildServices(cfg, redisClient, broker, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close docker backend failed", "error", cerr)
		}
	}()
	defer func() {
		if cerr := services.Metrics.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close metrics client failed", "error", cerr)
		}
	}()

	return bootstrap.RunServicesWithShutdown(ctx, cfg, services, logger)
}

func buildServices(
	cfg config.AppConfig,
	redisClient *redis.Client,
	broker *auth.Broker,
	logger *slog.Logger,
) (*bootstrap.ServiceContainer, *docker.Backend, error) {
	// One metrics client for everything, created first so the docker
	// backend's counters emit too.
	metrics, err := bootstrap.NewMetricsClient(cfg.Observability, logger)
	if err != nil {
		return nil, nil, err
	}

	backend, err := bootstrap.ConnectBackend(cfg.Backend, broker, logger, metrics)
	if err != nil {
		return nil, nil, err
	}

	services, err := bootstrap.NewServices(bootstrap.ServicesOptions{
		Config:  cfg,
		Redis:   redisClient,
		Backend: backend,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, nil, err
	}
	return services, backend, nil
}
