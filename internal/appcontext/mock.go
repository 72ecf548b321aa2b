package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/periodo"
)

// Mock provides a mock implementation of Interface for testing.
// If a function field is nil, the method returns a default value.
type Mock struct {
	ClientFunc       func() (*periodo.Client, error)
	DefaultsFunc     func() Defaults
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Client returns a client using the mock function or one with default options.
func (m *Mock) Client() (*periodo.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return periodo.New()
}

// Defaults returns run settings using the mock function or package defaults.
func (m *Mock) Defaults() Defaults {
	if m.DefaultsFunc != nil {
		return m.DefaultsFunc()
	}
	return Defaults{Mode: periodo.ModeBatch, PageSize: constants.DefaultPageSize}
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
