package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads the YAML file at filePath (optional when missing), overlays
// environment variables and normalizes the result.
func LoadConfig(filePath string) (*Config, error) {
	var cfg Config

	yamlFile, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
	case os.IsNotExist(err):
		// env-only deployments are fine
	default:
		return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Parse decodes YAML bytes without touching the environment. Used by tests
// and by callers that embed configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}
