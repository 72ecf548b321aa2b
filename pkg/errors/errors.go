// Package errors provides custom error types for the reconciler.
// These errors enable programmatic error checking with errors.Is and
// errors.As, and carry enough context to explain a failed run.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the reconciler
var (
	// ErrConfiguration indicates bad setup: unknown field names, colliding output fields, invalid options
	ErrConfiguration = errors.New("configuration error")

	// ErrService indicates the reconciliation service answered with a non-success status
	ErrService = errors.New("service error")

	// ErrProtocol indicates the service response broke the wire contract
	ErrProtocol = errors.New("protocol error")

	// ErrInvariant indicates the service returned more than one exact match for a query
	ErrInvariant = errors.New("invariant violation")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")
)

// ConfigurationError represents a setup problem detected before any request is sent.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// ServiceError represents a non-success response from the reconciliation service.
type ServiceError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("service error from %s (status %d): %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("service error from %s: %v", e.Endpoint, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ServiceError) Is(target error) bool {
	return target == ErrService
}

// NewServiceError creates a new ServiceError
func NewServiceError(endpoint string, statusCode int, body string) *ServiceError {
	return &ServiceError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Body:       body,
	}
}

// ProtocolError represents a response that does not follow the reconciliation API shape.
type ProtocolError struct {
	Endpoint string
	Label    string
	Message  string
	Err      error
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("protocol error for label %q: %s", e.Label, e.Message)
	}
	if e.Endpoint != "" {
		return fmt.Sprintf("protocol error from %s: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// NewProtocolError creates a new ProtocolError
func NewProtocolError(endpoint, label, message string, err error) *ProtocolError {
	return &ProtocolError{
		Endpoint: endpoint,
		Label:    label,
		Message:  message,
		Err:      err,
	}
}

// InvariantViolation reports a query whose candidates carry more than one exact match.
type InvariantViolation struct {
	Query   string
	Label   string
	Matches []string // IDs of every candidate flagged as a match
}

// Error implements the error interface
func (e *InvariantViolation) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("invariant violation: query %q (label %s) has %d exact matches %v", e.Query, e.Label, len(e.Matches), e.Matches)
	}
	return fmt.Sprintf("invariant violation: query %q has %d exact matches %v", e.Query, len(e.Matches), e.Matches)
}

// Is implements errors.Is support
func (e *InvariantViolation) Is(target error) bool {
	return target == ErrInvariant
}

// PageError records which page of a batch failed.
type PageError struct {
	Page   int // zero-based page index
	Offset int // index of the first row of the page
	Err    error
}

// Error implements the error interface
func (e *PageError) Error() string {
	return fmt.Sprintf("page %d (rows from %d) failed: %v", e.Page, e.Offset, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PageError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "csv", "xlsx", etc.
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsService checks if an error is a non-success service response
func IsService(err error) bool {
	return errors.Is(err, ErrService)
}

// IsProtocol checks if an error is a wire contract breach
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}

// IsInvariant checks if an error is an exact-match invariant violation
func IsInvariant(err error) bool {
	return errors.Is(err, ErrInvariant)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// As is errors.As re-exported so callers need a single errors import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is re-exported so callers need a single errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapConfiguration wraps an error as a ConfigurationError
func WrapConfiguration(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigurationError{Field: field, Message: err.Error(), Err: err}
}
