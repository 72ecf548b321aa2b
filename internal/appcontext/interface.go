// Package appcontext provides the shared application context interface
// used by all commands. Commands depend on it instead of the concrete
// App so they can be tested against a Mock.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/periodo/reconciler/pkg/periodo"
)

// Defaults are run settings commands fall back to when a flag is unset.
type Defaults struct {
	Mode     periodo.Mode
	PageSize int
}

// Interface defines the application context commands need.
type Interface interface {
	// Client returns the reconciliation client, creating it lazily.
	Client() (*periodo.Client, error)

	// Defaults returns the configured run settings.
	Defaults() Defaults

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
