package operations

import (
	"time"

	"liheapcli/internal/config"
)

// Config represents the operation execution configuration
type Config struct {
	// Default timeout applied to every stage without an override
	DefaultTimeout time.Duration `json:"default_timeout"`

	// Step-specific timeouts
	StageTimeouts map[string]time.Duration `json:"stage_timeouts"`

	// Retry configuration for steps
	RetryConfig RetryConfig `json:"retry_config"`

	// Whether to keep running independent stages after a failure
	ContinueOnError bool `json:"continue_on_error"`

	// Where the run manifest is written; empty disables it
	ManifestFile string `json:"manifest_file"`
}

// NewConfig returns the default operation configuration
func NewConfig() *Config {
	return &Config{
		DefaultTimeout: DefaultStageTimeout,
		StageTimeouts:  make(map[string]time.Duration),
		RetryConfig:    NewRetryConfig(),
	}
}

// FromAppConfig builds the operation configuration from the application config
func FromAppConfig(cfg config.OperationsConfig) *Config {
	c := NewConfig()
	if cfg.StageTimeout > 0 {
		c.DefaultTimeout = cfg.StageTimeout
	}
	c.ManifestFile = cfg.ManifestFile
	return c
}

// GetStageTimeout returns the timeout for a specific Step
func (c *Config) GetStageTimeout(stageID string) time.Duration {
	if timeout, ok := c.StageTimeouts[stageID]; ok {
		return timeout
	}
	if c.DefaultTimeout > 0 {
		return c.DefaultTimeout
	}
	return DefaultStageTimeout
}

// SetStageTimeout sets the timeout for a specific Step
func (c *Config) SetStageTimeout(stageID string, timeout time.Duration) {
	if c.StageTimeouts == nil {
		c.StageTimeouts = make(map[string]time.Duration)
	}
	c.StageTimeouts[stageID] = timeout
}

// ConfigBuilder provides a fluent interface for building operation configurations
type ConfigBuilder struct {
	config *Config
}

// NewConfigBuilder creates a new configuration builder
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: NewConfig(),
	}
}

// WithStageTimeout sets the timeout for a specific Step
func (b *ConfigBuilder) WithStageTimeout(stageID string, timeout time.Duration) *ConfigBuilder {
	b.config.SetStageTimeout(stageID, timeout)
	return b
}

// WithRetryConfig sets the retry configuration
func (b *ConfigBuilder) WithRetryConfig(retryConfig RetryConfig) *ConfigBuilder {
	b.config.RetryConfig = retryConfig
	return b
}

// WithContinueOnError sets whether to continue on Step failures
func (b *ConfigBuilder) WithContinueOnError(continueOnError bool) *ConfigBuilder {
	b.config.ContinueOnError = continueOnError
	return b
}

// WithManifestFile sets the manifest output path
func (b *ConfigBuilder) WithManifestFile(path string) *ConfigBuilder {
	b.config.ManifestFile = path
	return b
}

// Build returns the built configuration
func (b *ConfigBuilder) Build() *Config {
	return b.config
}
