package config

import "strings"

// BackendConfig contains container backend configuration and the
// externally reachable address that task containers use to report
// results back to this service.
type BackendConfig struct {
	// SocketPath is the docker daemon endpoint.
	SocketPath string `env:"DOCKER_SOCKET_PATH" envDefault:"unix://var/run/docker.sock"`

	// HostName is the hostname task containers use to reach the job API.
	HostName string `env:"RUNNER_HOST_NAME" envDefault:"swarmer"`

	// HostPort is the port task containers use to reach the job API.
	// This is usually the same as SWARMER_PORT unless a proxy sits in front.
	HostPort int `env:"RUNNER_PORT" envDefault:"8500"`

	// Network is the overlay network task services are attached to.
	Network string `env:"RUNNER_NETWORK" envDefault:"swarmer"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.SocketPath = strings.TrimSpace(b.SocketPath)
	if b.SocketPath == "" {
		b.SocketPath = "unix://var/run/docker.sock"
	}
	b.HostName = strings.TrimSpace(b.HostName)
	b.Network = strings.TrimSpace(b.Network)
	if b.HostPort <= 0 || b.HostPort > 65535 {
		b.HostPort = 8500
	}
}
