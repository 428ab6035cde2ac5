// Package config provides configuration loading for agentgate.
package config

import (
	"fmt"

	"github.com/fyrsmithlabs/agentgate/internal/logging"
)

// Config is the root configuration for the gateway.
//
// Query and tool policy (collection allow-lists, result caps, dangerous
// operators, soft thresholds) is deliberately NOT configurable: those are
// fixed safety constants in pkg/querygate and pkg/toolgate, and an operator
// should not be able to widen them from a config file.
type Config struct {
	Specs   SpecsConfig    `koanf:"specs"`
	Logging logging.Config `koanf:"logging"`
}

// SpecsConfig locates the agent specification documents.
type SpecsConfig struct {
	// Dir is the content directory holding one markdown document per
	// agent. It may be absent: spec lookups then report absence, not
	// errors.
	Dir string `koanf:"dir"`
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Specs:   SpecsConfig{Dir: "specs"},
		Logging: *logging.NewDefaultConfig(),
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Specs.Dir == "" {
		return fmt.Errorf("specs.dir cannot be empty")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
