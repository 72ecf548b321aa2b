// Package constants provides shared constants used throughout the reconciler
// codebase. This includes service defaults, timeouts, limits and file
// permissions that should be consistent across the application.
package constants

import "time"

// Service defaults
const (
	// DefaultHost is the host:port of a locally running PeriodO reconciliation service
	DefaultHost = "localhost:8142"

	// DefaultProtocol is the URL scheme used to reach the service
	DefaultProtocol = "http"

	// DefaultMethod is the HTTP verb used for reconciliation requests
	DefaultMethod = "POST"

	// DefaultMode is the wire mode used for reconciliation requests
	DefaultMode = "batch"

	// PerQueryLabel is the fixed label a query is wrapped under in per-query mode
	PerQueryLabel = "q0"
)

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the service
	DefaultHTTPTimeout = 30 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// RetryWaitMin is the minimum backoff between transport retries
	RetryWaitMin = 500 * time.Millisecond

	// RetryWaitMax is the maximum backoff between transport retries
	RetryWaitMax = 10 * time.Second
)

// Limit constants define various limits and capacities
const (
	// DefaultRetryMax is the default number of transport retries
	DefaultRetryMax = 2

	// DefaultPageSize is the number of rows reconciled per wire exchange
	DefaultPageSize = 1000

	// DefaultCacheSize is the default capacity of the per-query result cache
	DefaultCacheSize = 4096

	// DefaultConcurrency is the number of in-flight requests in per-query mode
	DefaultConcurrency = 1

	// MaxConcurrency bounds the per-query fan-out
	MaxConcurrency = 32
)

// Cache constants
const (
	// MetadataTTL is how long describe and suggest responses are kept
	MetadataTTL = 10 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 5 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Output field names appended to every resolved row, in write order
const (
	FieldMatchNum          = "match_num"
	FieldMatchName         = "match_name"
	FieldMatchID           = "match_id"
	FieldCandidatesCount   = "candidates_count"
	FieldMatchFallbackID   = "match_fallback_id"
	FieldMatchFallbackName = "match_fallback_name"
)

// MatchFields lists the appended output fields in write order.
var MatchFields = []string{
	FieldMatchNum,
	FieldMatchName,
	FieldMatchID,
	FieldCandidatesCount,
	FieldMatchFallbackID,
	FieldMatchFallbackName,
}

// Path constants
const (
	// ConfigName is the config file base name searched in $HOME and the working directory
	ConfigName = ".periodo-recon"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "PERIODO"
)
