// Package auth resolves container registry credentials for the Docker
// backend. Providers are configured purely through the environment; an
// unconfigured provider resolves to nil rather than an error so deployments
// without private registries need no auth setup at all.
package auth

import (
	"context"
	"log/slog"
	"time"
)

// Credentials is a resolved registry login.
type Credentials struct {
	Username string
	Password string
	Registry string
}

// Authenticator obtains registry credentials and decides when a login has
// gone stale and must be refreshed.
type Authenticator interface {
	// Name identifies the provider in logs.
	Name() string

	// ShouldAuthenticate reports whether a login is required given the time
	// of the last successful login. A zero lastLogin always requires one.
	ShouldAuthenticate(lastLogin time.Time) bool

	// ObtainAuth resolves fresh credentials.
	ObtainAuth(ctx context.Context) (Credentials, error)
}

// Factory builds an authenticator from the environment. Returning (nil, nil)
// means the provider is not configured; an error means the provider is
// configured but unusable and startup must abort.
type Factory func(logger *slog.Logger) (Authenticator, error)
