package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// LoginFunc performs the actual registry login, typically against the Docker
// daemon.
type LoginFunc func(ctx context.Context, creds Credentials) error

type providerState struct {
	auth      Authenticator
	lastLogin time.Time
}

// Broker owns the configured authenticators and their login freshness. It is
// safe for concurrent use; the Docker backend consults it before every
// service creation.
type Broker struct {
	logger *slog.Logger

	mu        sync.Mutex
	providers []*providerState
}

// NewBroker builds a broker over the given authenticators. Nil entries are
// skipped so factory output can be passed straight in.
func NewBroker(logger *slog.Logger, authenticators ...Authenticator) *Broker {
	if logger != nil {
		logger = logger.With("component", "auth_broker")
	}

	b := &Broker{logger: logger}
	for _, a := range authenticators {
		if a == nil {
			continue
		}
		b.providers = append(b.providers, &providerState{auth: a})
	}
	return b
}

// BuildBroker runs every factory and collects the configured providers.
// A factory error aborts: it means a provider is half-configured.
func BuildBroker(logger *slog.Logger, factories ...Factory) (*Broker, error) {
	var authenticators []Authenticator
	for _, factory := range factories {
		a, err := factory(logger)
		if err != nil {
			return nil, err
		}
		if a != nil {
			authenticators = append(authenticators, a)
		}
	}
	return NewBroker(logger, authenticators...), nil
}

// HasProviders reports whether any registry auth is configured.
func (b *Broker) HasProviders() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.providers) > 0
}

// AnyRequireLogin reports whether at least one provider needs a login now.
func (b *Broker) AnyRequireLogin() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.providers {
		if p.auth.ShouldAuthenticate(p.lastLogin) {
			return true
		}
	}
	return false
}

// PerformLogins obtains credentials for every provider that needs a login
// and runs the login function with them. Each success updates that
// provider's last-login time; failures are collected and joined.
func (b *Broker) PerformLogins(ctx context.Context, login LoginFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for _, p := range b.providers {
		if !p.auth.ShouldAuthenticate(p.lastLogin) {
			continue
		}

		creds, err := p.auth.ObtainAuth(ctx)
		if err != nil {
			errs = append(errs, err)
			if b.logger != nil {
				b.logger.ErrorContext(ctx, "obtain credentials failed",
					"provider", p.auth.Name(), "error", err)
			}
			continue
		}

		if err := login(ctx, creds); err != nil {
			errs = append(errs, err)
			if b.logger != nil {
				b.logger.ErrorContext(ctx, "registry login failed",
					"provider", p.auth.Name(), "registry", creds.Registry, "error", err)
			}
			continue
		}

		p.lastLogin = time.Now()
		if b.logger != nil {
			b.logger.InfoContext(ctx, "registry login succeeded",
				"provider", p.auth.Name(), "registry", creds.Registry)
		}
	}

	return errors.Join(errs...)
}

// DefaultFactories lists the providers this build knows how to configure.
func DefaultFactories() []Factory {
	return []Factory{
		NewBasicAuthenticator,
		NewECRAuthenticator,
	}
}
