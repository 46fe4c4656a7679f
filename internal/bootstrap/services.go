package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/openswarm/swarmer/config"
	"github.com/openswarm/swarmer/internal/adapters/docker"
	"github.com/openswarm/swarmer/internal/data"
	"github.com/openswarm/swarmer/internal/observability/statsd"
	"github.com/openswarm/swarmer/internal/service"
)

// ServiceContainer holds the wired application services.
type ServiceContainer struct {
	Store             *data.RedisJobStore
	Scheduler         *service.Scheduler
	Runner            *service.Runner
	DeadTaskSweeper   *service.DeadTaskSweeper
	CompletionSweeper *service.CompletionSweeper
	Metrics           *statsd.Client
}

// ServicesOptions groups the infrastructure dependencies for NewServices.
type ServicesOptions struct {
	Config  config.AppConfig
	Redis   *redis.Client
	Backend *docker.Backend
	Logger  *slog.Logger
	// Metrics is the shared StatsD client. When nil one is created from the
	// observability config; pass one in when other components (the docker
	// backend) need the same sink.
	Metrics *statsd.Client
}

// NewMetricsClient creates the StatsD client from observability config.
func NewMetricsClient(cfg config.ObservabilityConfig, logger *slog.Logger) (*statsd.Client, error) {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Metrics.IsEnabled(),
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  "swarmer",
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create metrics client: %w", err)
	}
	return client, nil
}

// NewServices wires the store, scheduler, runner, sweepers, and metrics
// client together.
func NewServices(opts ServicesOptions) (*ServiceContainer, error) {
	metrics := opts.Metrics
	if metrics == nil {
		created, err := NewMetricsClient(opts.Config.Observability, opts.Logger)
		if err != nil {
			return nil, err
		}
		metrics = created
	}

	store := data.NewRedisJobStore(data.RedisJobStoreOptions{
		Client: opts.Redis,
		Logger: opts.Logger,
	})

	scheduler, err := service.NewScheduler(service.SchedulerOptions{
		Store:    store,
		Capacity: opts.Config.Scheduler.QueueCapacity,
		Logger:   opts.Logger,
		Metrics:  metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	runner, err := service.NewRunner(service.RunnerOptions{
		Scheduler: scheduler,
		Backend:   opts.Backend,
		Logger:    opts.Logger,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create runner: %w", err)
	}

	deadSweeper, err := service.NewDeadTaskSweeper(service.DeadTaskSweeperOptions{
		Scheduler: scheduler,
		Config:    opts.Config.Scheduler,
		Logger:    opts.Logger,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create dead task sweeper: %w", err)
	}

	poster, err := service.NewCallbackPoster(service.CallbackPosterOptions{
		Config:  opts.Config.Callback,
		Logger:  opts.Logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create callback poster: %w", err)
	}

	completionSweeper, err := service.NewCompletionSweeper(service.CompletionSweeperOptions{
		Scheduler: scheduler,
		Poster:    poster,
		Config:    opts.Config.Scheduler,
		Logger:    opts.Logger,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create completion sweeper: %w", err)
	}

	return &ServiceContainer{
		Store:             store,
		Scheduler:         scheduler,
		Runner:            runner,
		DeadTaskSweeper:   deadSweeper,
		CompletionSweeper: completionSweeper,
		Metrics:           metrics,
	}, nil
}

// RunServicesWithShutdown runs the dispatch loop, both sweepers, and the
// HTTP server until a termination signal arrives, then shuts down
// gracefully.
func RunServicesWithShutdown(
	ctx context.Context,
	cfg config.AppConfig,
	services *ServiceContainer,
	logger *slog.Logger,
) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := StartHTTPServer(HTTPServerConfig{
		Config:   cfg,
		Services: services,
		Logger:   logger,
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return services.Runner.Run(groupCtx) })
	group.Go(func() error { return services.DeadTaskSweeper.Run(groupCtx) })
	group.Go(func() error { return services.CompletionSweeper.Run(groupCtx) })

	<-groupCtx.Done()
	stop()

	shutdownErr := ShutdownHTTPServer(context.Background(), server, logger)
	runErr := group.Wait()

	if runErr != nil {
		return runErr
	}
	return shutdownErr
}
