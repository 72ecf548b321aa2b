// Package app provides the application context and dependency management
// for the periodo-recon CLI. It centralizes configuration, logging and the
// lazily created reconciliation client.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/periodo/reconciler/internal/appcontext"
	"github.com/periodo/reconciler/internal/cmd/output"
	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/periodo"
)

// App represents the periodo-recon application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Client instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client *periodo.Client
}

// New creates a new App instance with the given version information.
// Configuration is loaded from the environment and config files and can be
// replaced with functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the format for command output, detecting it from
// the terminal when none is configured.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// Defaults returns the configured run settings.
func (a *App) Defaults() appcontext.Defaults {
	mode, err := periodo.ParseMode(a.config.Mode)
	if err != nil {
		mode = periodo.ModeBatch
	}
	return appcontext.Defaults{Mode: mode, PageSize: a.config.PageSize}
}

// Client returns the reconciliation client, creating it lazily if needed.
// The client and its caches are shared by every command in the process.
func (a *App) Client() (*periodo.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	c, err := periodo.New(a.clientOptions()...)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Stringer("client", c).Str("method", c.Method()).Msg("Created reconciliation client")

	a.client = c
	return c, nil
}

// Shutdown logs cache usage of the client, if one was created.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.RLock()
	c := a.client
	a.mu.RUnlock()

	if c != nil {
		stats := c.CacheStats()
		a.logger.Debug().
			Int("entries", stats.Entries).
			Int64("hits", stats.Hits).
			Int64("misses", stats.Misses).
			Int("metadata", stats.Metadata).
			Msg("Result cache at shutdown")
		c.FlushMetadata()
	}
	return nil
}

// clientOptions constructs client options from the app configuration.
func (a *App) clientOptions() []periodo.Option {
	return []periodo.Option{
		periodo.WithHost(a.config.Host),
		periodo.WithProtocol(a.config.Protocol),
		periodo.WithMethod(a.config.Method),
		periodo.WithTimeout(a.config.Timeout),
		periodo.WithRetries(a.config.RetryMax, constants.RetryWaitMin, constants.RetryWaitMax),
		periodo.WithToken(a.config.Token),
		periodo.WithCacheSize(a.config.CacheSize),
		periodo.WithMetadataTTL(a.config.MetadataTTL),
		periodo.WithConcurrency(a.config.Concurrency),
		periodo.WithLogger(a.logger),
	}
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewConfigurationError("config", "config cannot be nil")
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client (useful for testing).
func WithClient(c *periodo.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
