package config

import "errors"

var (
	// ErrUnknownProvider is returned when default_provider names no known vendor
	ErrUnknownProvider = errors.New("unknown AI provider")
	// ErrInvalidTemperature is returned when temperature is outside 0..2
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
	// ErrInvalidMaxTokens is returned when max_tokens is not greater than 0
	// or discovery_max_tokens is negative
	ErrInvalidMaxTokens = errors.New("max_tokens must be greater than 0")
	// ErrInvalidTimeout is returned when a timeout is not greater than 0
	ErrInvalidTimeout = errors.New("timeout must be greater than 0")
	// ErrInvalidAttempts is returned when max_attempts is not greater than 0
	ErrInvalidAttempts = errors.New("max_attempts must be greater than 0")
	// ErrInvalidConcurrency is returned when concurrency is not greater than 0
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
	// ErrEmptyDatabasePath is returned when database path is empty
	ErrEmptyDatabasePath = errors.New("database path cannot be empty")
	// ErrNoBucket is returned when cloud sync is enabled without a bucket
	ErrNoBucket = errors.New("cloud_sync.bucket is required when cloud sync is enabled")
)
