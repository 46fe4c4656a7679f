package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/openswarm/swarmer/config"
	"github.com/openswarm/swarmer/internal/adapters/docker"
	"github.com/openswarm/swarmer/internal/auth"
	"github.com/openswarm/swarmer/internal/observability/statsd"
)

// BuildAuthBroker assembles the registry auth broker from the environment.
// A half-configured provider is fatal: starting without working registry
// credentials would fail every private-image task at dispatch time instead.
func BuildAuthBroker(logger *slog.Logger) (*auth.Broker, error) {
	broker, err := auth.BuildBroker(logger, auth.DefaultFactories()...)
	if err != nil {
		return nil, fmt.Errorf("configure registry auth: %w", err)
	}

	if logger != nil && !broker.HasProviders() {
		logger.Info("no registry auth configured, assuming public images")
	}
	return broker, nil
}

// ConnectBackend connects the Docker swarm backend.
func ConnectBackend(
	cfg config.BackendConfig,
	broker *auth.Broker,
	logger *slog.Logger,
	metrics statsd.Sink,
) (*docker.Backend, error) {
	backend, err := docker.NewBackend(docker.BackendOptions{
		Config:  cfg,
		Broker:  broker,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("docker backend connected",
			"socket", cfg.SocketPath, "network", cfg.Network)
	}
	return backend, nil
}
