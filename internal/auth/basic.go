package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	apperrors "github.com/openswarm/swarmer/internal/errors"
)

type basicEnv struct {
	User         string `env:"BASIC_AUTH_USER"`
	Registry     string `env:"BASIC_AUTH_REGISTRY"`
	ShouldReauth bool   `env:"BASIC_AUTH_SHOULD_REAUTH" envDefault:"false"`
	ReauthHours  int    `env:"BASIC_AUTH_REAUTH_HOURS"  envDefault:"6"`
}

// BasicAuthenticator logs into a single registry with a static username and
// password. The password may come from BASIC_AUTH_PASS or, for secret
// mounts, the first line of the file named by BASIC_AUTH_PASS_FILE.
type BasicAuthenticator struct {
	creds          Credentials
	mustReauth     bool
	reauthInterval time.Duration
	logger         *slog.Logger
}

var _ Authenticator = (*BasicAuthenticator)(nil)

// NewBasicAuthenticator builds the provider from the environment. Returns
// (nil, nil) unless user, registry, and password are all present.
func NewBasicAuthenticator(logger *slog.Logger) (Authenticator, error) {
	var cfg basicEnv
	if err := env.Parse(&cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCredential, "parse basic auth config")
	}

	password, err := resolveSecret("BASIC_AUTH_PASS")
	if err != nil {
		return nil, err
	}

	if cfg.User == "" || cfg.Registry == "" || password == "" {
		return nil, nil
	}

	if cfg.ReauthHours < 1 {
		cfg.ReauthHours = 6
	}

	if logger != nil {
		logger = logger.With("component", "basic_auth")
		logger.Debug("basic auth configured",
			"registry", cfg.Registry,
			"reauth", cfg.ShouldReauth,
			"reauth_hours", cfg.ReauthHours,
		)
	}

	return &BasicAuthenticator{
		creds: Credentials{
			Username: cfg.User,
			Password: password,
			Registry: cfg.Registry,
		},
		mustReauth:     cfg.ShouldReauth,
		reauthInterval: time.Duration(cfg.ReauthHours) * time.Hour,
		logger:         logger,
	}, nil
}

// Name implements Authenticator.
func (a *BasicAuthenticator) Name() string { return "basic" }

// ShouldAuthenticate requires one initial login, then periodic renewals only
// when reauth is enabled.
func (a *BasicAuthenticator) ShouldAuthenticate(lastLogin time.Time) bool {
	if lastLogin.IsZero() {
		return true
	}
	if !a.mustReauth {
		return false
	}
	return time.Since(lastLogin) >= a.reauthInterval
}

// ObtainAuth returns the static credentials.
func (a *BasicAuthenticator) ObtainAuth(_ context.Context) (Credentials, error) {
	return a.creds, nil
}
