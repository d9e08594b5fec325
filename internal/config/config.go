// Package config provides configuration loading for secretsguard.
//
// Configuration is assembled once per run and passed explicitly into the
// checker. Nothing below cmd/ reads the environment directly.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default values applied by Load when a field is left unset.
const (
	DefaultWorkflowsPath = ".github/workflows"
	DefaultAPIURL        = "https://api.github.com/"
	DefaultConcurrency   = 4
	DefaultRateLimit     = 10.0
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultOTLPProtocol  = "grpc"
)

// DefaultPredefinedSecrets are names GitHub injects into every workflow run.
var DefaultPredefinedSecrets = List{"GITHUB_TOKEN"}

// Config holds the complete secretsguard configuration.
type Config struct {
	GitHubToken Secret `koanf:"github_token"`

	// Repository is the target repository in owner/name form.
	Repository string `koanf:"repository"`

	// Ref pins workflow reads to a branch, tag or commit. Empty means the default branch.
	Ref    string `koanf:"ref"`
	APIURL string `koanf:"api_url"`
	Output string `koanf:"output"`

	WorkflowsPath        string `koanf:"workflows_path"`
	IncludeYAMLExtension bool   `koanf:"include_yaml_extension"`

	PredefinedSecrets List `koanf:"predefined_secrets"`
	OptionalSecrets   List `koanf:"optional_secrets"`
	ForbiddenSecrets  List `koanf:"forbidden_secrets"`

	Concurrency int     `koanf:"concurrency"`
	RateLimit   float64 `koanf:"rate_limit"` // requests per second

	Retry     RetryConfig     `koanf:"retry"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// RetryConfig configures retries of GitHub API calls.
type RetryConfig struct {
	MaxRetries        int      `koanf:"max_retries"`
	InitialBackoff    Duration `koanf:"initial_backoff"`
	MaxBackoff        Duration `koanf:"max_backoff"`
	BackoffMultiplier float64  `koanf:"backoff_multiplier"`
}

// LoggingConfig is the user-facing subset of logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig configures OTLP export of traces and metrics. Export is
// off while Endpoint is empty.
type TelemetryConfig struct {
	Endpoint        string   `koanf:"endpoint"`
	Protocol        string   `koanf:"protocol"` // grpc or http/protobuf
	Insecure        bool     `koanf:"insecure"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Owner returns the owner half of Repository.
func (c *Config) Owner() string {
	owner, _, _ := SplitRepository(c.Repository)
	return owner
}

// Name returns the repository half of Repository.
func (c *Config) Name() string {
	_, name, _ := SplitRepository(c.Repository)
	return name
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error

	if !c.GitHubToken.IsSet() {
		errs = append(errs, errors.New("github token is required"))
	}
	if _, _, err := SplitRepository(c.Repository); err != nil {
		errs = append(errs, err)
	}
	if c.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be > 0, got %d", c.Concurrency))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("rate limit must be > 0, got %v", c.RateLimit))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry max_retries must be >= 0, got %d", c.Retry.MaxRetries))
	}
	if strings.TrimSpace(c.WorkflowsPath) == "" {
		errs = append(errs, errors.New("workflows path cannot be empty"))
	}
	switch c.Output {
	case "", "actions", "console":
	default:
		errs = append(errs, fmt.Errorf("output must be 'actions' or 'console', got %q", c.Output))
	}

	return errors.Join(errs...)
}

// SplitRepository splits an owner/name string.
func SplitRepository(full string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(full), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository must be in owner/name form, got %q", full)
	}
	return owner, name, nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.WorkflowsPath == "" {
		cfg.WorkflowsPath = DefaultWorkflowsPath
	}
	if cfg.PredefinedSecrets == nil {
		cfg.PredefinedSecrets = append(List(nil), DefaultPredefinedSecrets...)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}

	// Retry defaults match the GitHub client defaults
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.InitialBackoff == 0 {
		cfg.Retry.InitialBackoff = Duration(time.Second)
	}
	if cfg.Retry.MaxBackoff == 0 {
		cfg.Retry.MaxBackoff = Duration(30 * time.Second)
	}
	if cfg.Retry.BackoffMultiplier == 0 {
		cfg.Retry.BackoffMultiplier = 2.0
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = DefaultOTLPProtocol
	}
	if cfg.Telemetry.ShutdownTimeout == 0 {
		cfg.Telemetry.ShutdownTimeout = Duration(5 * time.Second)
	}
}
