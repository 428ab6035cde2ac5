package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces agentgate environment variables.
const envPrefix = "AGENTGATE_"

// defaultYAML seeds the koanf tree so file and env loads are pure overrides.
var defaultYAML = []byte(`
specs:
  dir: specs
logging:
  level: info
  format: json
`)

// Load builds configuration with the usual precedence (highest wins):
//
//  1. Environment variables (AGENTGATE_SPECS_DIR, AGENTGATE_LOGGING_LEVEL, ...)
//  2. YAML config file, when configPath is non-empty and the file exists
//  3. Built-in defaults
//
// Environment variables map to config keys by stripping the prefix,
// lowercasing, and splitting section from field on the first underscore:
//
//	AGENTGATE_SPECS_DIR       -> specs.dir
//	AGENTGATE_LOGGING_LEVEL   -> logging.level
//	AGENTGATE_LOGGING_FORMAT  -> logging.format
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// AGENTGATE_LOGGING_LEVEL -> logging.level
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
