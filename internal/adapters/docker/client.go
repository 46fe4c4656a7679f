// Package docker runs tasks as one-shot Docker Swarm services.
package docker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/api/types/swarm"
	"github.com/docker/docker/client"

	"github.com/openswarm/swarmer/config"
	"github.com/openswarm/swarmer/internal/auth"
	"github.com/openswarm/swarmer/internal/core"
	"github.com/openswarm/swarmer/internal/domain/model"
	apperrors "github.com/openswarm/swarmer/internal/errors"
	"github.com/openswarm/swarmer/internal/observability/statsd"
)

// dockerAPI is the slice of the Docker client this package uses.
type dockerAPI interface {
	ServiceCreate(ctx context.Context, service swarm.ServiceSpec, options types.ServiceCreateOptions) (swarm.ServiceCreateResponse, error)
	ServiceRemove(ctx context.Context, serviceID string) error
	RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error)
	Close() error
}

// BackendOptions groups dependencies for Backend.
type BackendOptions struct {
	Config  config.BackendConfig // Required: backend configuration
	Broker  *auth.Broker         // Optional: registry auth broker
	Logger  *slog.Logger         // Optional: structured logger
	Metrics statsd.Sink          // Optional: metrics sink
}

// Backend creates one swarm service per task. Services run with restart
// disabled so a finished container stays down until the scheduler removes
// its service.
type Backend struct {
	api     dockerAPI
	cfg     config.BackendConfig
	broker  *auth.Broker
	logger  *slog.Logger
	metrics statsd.Sink
}

var _ core.ContainerBackend = (*Backend)(nil)

// NewBackend connects to the Docker daemon at the configured socket.
func NewBackend(opts BackendOptions) (*Backend, error) {
	api, err := client.NewClientWithOpts(
		client.WithHost(opts.Config.SocketPath),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeBackend, "connect docker daemon at %s", opts.Config.SocketPath)
	}
	return newBackend(api, opts), nil
}

func newBackend(api dockerAPI, opts BackendOptions) *Backend {
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "docker_backend")
	}

	return &Backend{
		api:     api,
		cfg:     opts.Config,
		broker:  opts.Broker,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// StartTask creates the service for a claimed task and returns its id.
func (b *Backend) StartTask(ctx context.Context, task model.RunnableTask) (string, error) {
	if err := b.ensureLogin(ctx); err != nil {
		return "", err
	}

	spec := b.buildServiceSpec(task)
	resp, err := b.api.ServiceCreate(ctx, spec, types.ServiceCreateOptions{})
	if err != nil {
		if b.metrics != nil {
			b.metrics.Count("docker.service_create", 1, map[string]string{"result": "error"})
		}
		return "", apperrors.Wrapf(err, apperrors.ErrCodeBackend, "create service %s", spec.Name)
	}

	for _, warning := range resp.Warnings {
		if b.logger != nil {
			b.logger.WarnContext(ctx, "service create warning",
				"service", spec.Name, "warning", warning)
		}
	}
	if b.metrics != nil {
		b.metrics.Count("docker.service_create", 1, map[string]string{"result": "success"})
	}

	return resp.ID, nil
}

// RemoveServices removes each service, skipping ids the daemon no longer
// knows. The first unexpected error aborts the batch.
func (b *Backend) RemoveServices(ctx context.Context, serviceIDs []string) error {
	for _, id := range serviceIDs {
		if err := b.api.ServiceRemove(ctx, id); err != nil {
			if client.IsErrNotFound(err) {
				if b.logger != nil {
					b.logger.DebugContext(ctx, "service already gone", "service_id", id)
				}
				continue
			}
			return apperrors.Wrapf(err, apperrors.ErrCodeBackend, "remove service %s", id)
		}
	}
	return nil
}

// Close releases the Docker client.
func (b *Backend) Close() error {
	return b.api.Close()
}

// ensureLogin refreshes registry logins through the broker when any
// provider reports a stale session.
func (b *Backend) ensureLogin(ctx context.Context) error {
	if b.broker == nil || !b.broker.HasProviders() || !b.broker.AnyRequireLogin() {
		return nil
	}

	err := b.broker.PerformLogins(ctx, func(ctx context.Context, creds auth.Credentials) error {
		_, err := b.api.RegistryLogin(ctx, registry.AuthConfig{
			Username:      creds.Username,
			Password:      creds.Password,
			ServerAddress: creds.Registry,
		})
		return err
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeBackend, "registry login")
	}
	return nil
}

func (b *Backend) buildServiceSpec(task model.RunnableTask) swarm.ServiceSpec {
	return swarm.ServiceSpec{
		Annotations: swarm.Annotations{
			Name: serviceName(task.JobID, task.Name),
			Labels: map[string]string{
				"swarmer.job_id": task.JobID,
				"swarmer.task":   task.Name,
			},
		},
		TaskTemplate: swarm.TaskSpec{
			ContainerSpec: &swarm.ContainerSpec{
				Image: task.Image,
				Env:   b.buildTaskEnv(task),
			},
			RestartPolicy: &swarm.RestartPolicy{
				Condition: swarm.RestartPolicyConditionNone,
			},
			Networks: []swarm.NetworkAttachmentConfig{
				{Target: b.cfg.Network},
			},
		},
	}
}

// buildTaskEnv assembles the environment contract task containers rely on:
// where to report the result, which task they are, and their arguments.
func (b *Backend) buildTaskEnv(task model.RunnableTask) []string {
	env := []string{
		fmt.Sprintf("SWARMER_ADDRESS=http://%s:%d/result/%s", b.cfg.HostName, b.cfg.HostPort, task.JobID),
		"TASK_NAME=" + task.Name,
		"SWARMER_JOB_ID=" + task.JobID,
	}
	if len(task.Args) > 0 {
		env = append(env, "RUN_ARGS="+strings.Join(task.Args, ","))
	}
	return env
}

// serviceName builds the swarm service name for a task. Swarm requires
// unique names; one task name per job makes this collision free.
func serviceName(jobID, taskName string) string {
	return jobID + "-" + taskName
}
