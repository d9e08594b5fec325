package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// inputKeys maps GitHub Actions input variables (INPUT_<NAME>) to config keys.
// The runner upper-cases input names, so githubToken arrives as INPUT_GITHUBTOKEN.
var inputKeys = map[string]string{
	"GITHUBTOKEN":          "github_token",
	"REPOSITORY":           "repository",
	"REF":                  "ref",
	"OUTPUT":               "output",
	"WORKFLOWSPATH":        "workflows_path",
	"INCLUDEYAMLEXTENSION": "include_yaml_extension",
	"PREDEFINEDSECRETS":    "predefined_secrets",
	"OPTIONALSECRETS":      "optional_secrets",
	"FORBIDDENSECRETS":     "forbidden_secrets",
	"CONCURRENCY":          "concurrency",
	"RATELIMIT":            "rate_limit",
	"LOGLEVEL":             "logging.level",
	"LOGFORMAT":            "logging.format",
}

// runnerKeys maps variables the Actions runner always provides (GITHUB_<NAME>).
var runnerKeys = map[string]string{
	"TOKEN":      "github_token",
	"REPOSITORY": "repository",
	"API_URL":    "api_url",
}

// otlpKeys maps the standard OTLP exporter variables (OTEL_EXPORTER_OTLP_<NAME>).
var otlpKeys = map[string]string{
	"ENDPOINT": "telemetry.endpoint",
	"PROTOCOL": "telemetry.protocol",
	"INSECURE": "telemetry.insecure",
}

// Overrides holds explicitly set values, typically from command-line flags.
// Keys use dotted config paths, e.g. "logging.level".
type Overrides map[string]interface{}

// Read implements koanf.Provider.
func (o Overrides) Read() (map[string]interface{}, error) {
	flat := make(map[string]interface{}, len(o))
	for k, v := range o {
		flat[k] = v
	}
	return maps.Unflatten(flat, "."), nil
}

// ReadBytes implements koanf.Provider. Overrides are already structured.
func (o Overrides) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("overrides provider does not support ReadBytes")
}

// Load assembles configuration from, lowest to highest precedence:
//  1. Hardcoded defaults
//  2. YAML config file (configPath, optional)
//  3. Runner environment (GITHUB_TOKEN, GITHUB_REPOSITORY, GITHUB_API_URL,
//     OTEL_EXPORTER_OTLP_ENDPOINT, ...)
//  4. Action inputs (INPUT_GITHUBTOKEN, INPUT_REF, INPUT_OPTIONALSECRETS, ...)
//  5. overrides (command-line flags)
//
// Empty environment values are ignored so that unset action inputs do not
// clobber defaults. List values accept comma, semicolon or newline delimiters.
func Load(configPath string, overrides Overrides) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("GITHUB_", ".", envMapper("GITHUB_", runnerKeys)), nil); err != nil {
		return nil, fmt.Errorf("failed to load runner environment: %w", err)
	}
	if err := k.Load(env.ProviderWithValue("OTEL_EXPORTER_OTLP_", ".", envMapper("OTEL_EXPORTER_OTLP_", otlpKeys)), nil); err != nil {
		return nil, fmt.Errorf("failed to load OTLP environment: %w", err)
	}
	if err := k.Load(env.ProviderWithValue("INPUT_", ".", envMapper("INPUT_", inputKeys)), nil); err != nil {
		return nil, fmt.Errorf("failed to load action inputs: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(overrides, nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envMapper returns a koanf env callback that keeps only the variables listed
// in keys and drops empty values.
func envMapper(prefix string, keys map[string]string) func(string, string) (string, interface{}) {
	return func(name, value string) (string, interface{}) {
		key, ok := keys[strings.TrimPrefix(name, prefix)]
		if !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return key, value
	}
}

// readConfigFile reads a config file, rejecting anything over maxConfigFileSize.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}
