// Package config provides configuration management for the planner.
// It defines configuration structures, default values and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Provider names, in fallback order
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGoogle     = "google"
)

// Providers lists every supported AI provider in fallback order
var Providers = []string{ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic, ProviderGoogle}

// VendorKeyEnv maps each provider to the bare environment variable holding its key
var VendorKeyEnv = map[string]string{
	ProviderOpenRouter: "OPENROUTER_API_KEY",
	ProviderOpenAI:     "OPENAI_API_KEY",
	ProviderAnthropic:  "ANTHROPIC_API_KEY",
	ProviderGoogle:     "GOOGLE_API_KEY",
}

// AIConfig holds provider credentials and generation settings
type AIConfig struct {
	OpenRouterAPIKey  string        `mapstructure:"openrouter_api_key" yaml:"openrouter_api_key"`
	OpenAIAPIKey      string        `mapstructure:"openai_api_key" yaml:"openai_api_key"`
	AnthropicAPIKey   string        `mapstructure:"anthropic_api_key" yaml:"anthropic_api_key"`
	GoogleAPIKey      string        `mapstructure:"google_api_key" yaml:"google_api_key"`
	DefaultProvider   string        `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel      string        `mapstructure:"default_model" yaml:"default_model"` // catalog key or vendor model id
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`                     // upper bound for any call
	DiscoveryTokens   int           `mapstructure:"discovery_max_tokens" yaml:"discovery_max_tokens"` // 0 means max_tokens
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`                           // per attempt
	MaxAttempts       int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// DatabaseConfig locates the SQLite file and its backups
type DatabaseConfig struct {
	Path      string `mapstructure:"path" yaml:"path"`
	BackupDir string `mapstructure:"backup_dir" yaml:"backup_dir"` // default: <db dir>/backups
}

// ExportConfig controls where exports are written
type ExportConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	DefaultFormat string `mapstructure:"default_format" yaml:"default_format"`
}

// CloudSyncConfig selects the bucket backups are copied to
type CloudSyncConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Provider        string `mapstructure:"provider" yaml:"provider"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
}

// AuditConfig controls live publication fetching
type AuditConfig struct {
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	RequestDelay   time.Duration `mapstructure:"request_delay" yaml:"request_delay"` // between requests to one host
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
	// Extra headers sent with live fetches
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// Browser origins allowed to call the API. Empty disables CORS.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// LogConfig controls the default logger
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // json or text
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int64  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Console    bool   `mapstructure:"console" yaml:"console"`
}

// Config is the complete application configuration
type Config struct {
	AI        AIConfig        `mapstructure:"ai" yaml:"ai"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Export    ExportConfig    `mapstructure:"export" yaml:"export"`
	CloudSync CloudSyncConfig `mapstructure:"cloud_sync" yaml:"cloud_sync"`
	Audit     AuditConfig     `mapstructure:"audit" yaml:"audit"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			DefaultProvider:   ProviderOpenRouter,
			DefaultModel:      "anthropic/claude-3-sonnet",
			Temperature:       0.7,
			MaxTokens:         4000,
			DiscoveryTokens:   2000,
			Timeout:           60 * time.Second,
			MaxAttempts:       2,
			RequestsPerMinute: 20,
		},
		Database: DatabaseConfig{
			Path: "data/semantic_seo.db",
		},
		Export: ExportConfig{
			Path:          "data/exports",
			DefaultFormat: "json",
		},
		CloudSync: CloudSyncConfig{
			Provider: "gcs",
		},
		Audit: AuditConfig{
			UserAgent:      "SEOPlanner/1.0",
			RequestTimeout: 30 * time.Second,
			RequestDelay:   1 * time.Second,
			Concurrency:    4,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8501",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 3 * time.Minute,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			Console:    true,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !knownProvider(c.AI.DefaultProvider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.AI.DefaultProvider)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return ErrInvalidTemperature
	}
	if c.AI.MaxTokens <= 0 || c.AI.DiscoveryTokens < 0 {
		return ErrInvalidMaxTokens
	}
	if c.AI.Timeout <= 0 || c.Audit.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.AI.MaxAttempts <= 0 {
		return ErrInvalidAttempts
	}
	if c.Audit.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return ErrEmptyDatabasePath
	}
	if c.CloudSync.Enabled && strings.TrimSpace(c.CloudSync.Bucket) == "" {
		return ErrNoBucket
	}
	return nil
}

func knownProvider(name string) bool {
	for _, p := range Providers {
		if p == name {
			return true
		}
	}
	return false
}

// APIKey returns the key configured for provider, falling back to the
// vendor's bare environment variable
func (c *Config) APIKey(provider string) string {
	var key string
	switch provider {
	case ProviderOpenRouter:
		key = c.AI.OpenRouterAPIKey
	case ProviderOpenAI:
		key = c.AI.OpenAIAPIKey
	case ProviderAnthropic:
		key = c.AI.AnthropicAPIKey
	case ProviderGoogle:
		key = c.AI.GoogleAPIKey
	default:
		return ""
	}
	if key == "" {
		key = os.Getenv(VendorKeyEnv[provider])
	}
	return strings.TrimSpace(key)
}

// AvailableProviders lists the providers with a key, in fallback order
func (c *Config) AvailableProviders() []string {
	var out []string
	for _, p := range Providers {
		if c.APIKey(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasAnyProvider reports whether at least one provider has a key
func (c *Config) HasAnyProvider() bool {
	return len(c.AvailableProviders()) > 0
}

// ActiveProvider returns the default provider when it has a key, otherwise
// the first available one. ok is false when no provider is usable.
func (c *Config) ActiveProvider() (provider string, ok bool) {
	if c.APIKey(c.AI.DefaultProvider) != "" {
		return c.AI.DefaultProvider, true
	}
	available := c.AvailableProviders()
	if len(available) == 0 {
		return "", false
	}
	return available[0], true
}

// DiscoveryMaxTokens returns the token limit for a discovery call, never
// above max_tokens
func (c *Config) DiscoveryMaxTokens() int {
	if c.AI.DiscoveryTokens <= 0 || c.AI.DiscoveryTokens > c.AI.MaxTokens {
		return c.AI.MaxTokens
	}
	return c.AI.DiscoveryTokens
}

// DatabaseFile returns the database path, creating its directory
func (c *Config) DatabaseFile() (string, error) {
	if err := os.MkdirAll(filepath.Dir(c.Database.Path), 0o750); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return c.Database.Path, nil
}

// BackupDir returns the backup directory, creating it
func (c *Config) BackupDir() (string, error) {
	dir := c.Database.BackupDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(c.Database.Path), "backups")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	return dir, nil
}

// ExportDir returns the export directory, creating it
func (c *Config) ExportDir() (string, error) {
	if err := os.MkdirAll(c.Export.Path, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	return c.Export.Path, nil
}

// Masked returns a copy with every API key replaced by a short hint,
// for display
func (c *Config) Masked() *Config {
	m := *c
	m.AI.OpenRouterAPIKey = mask(c.AI.OpenRouterAPIKey)
	m.AI.OpenAIAPIKey = mask(c.AI.OpenAIAPIKey)
	m.AI.AnthropicAPIKey = mask(c.AI.AnthropicAPIKey)
	m.AI.GoogleAPIKey = mask(c.AI.GoogleAPIKey)
	if strings.HasPrefix(strings.TrimSpace(m.CloudSync.CredentialsFile), "{") {
		m.CloudSync.CredentialsFile = "(inline JSON)"
	}
	return &m
}

func mask(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "****" + key[len(key)-4:]
	}
}
