// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	JD     string `json:"jd,omitempty"`     // Path to the job description text file
	Output string `json:"output,omitempty"` // Path for the xlsx report

	// Sourcing
	Limit       int    `json:"limit,omitempty"`        // Maximum candidates to source
	SessionFile string `json:"session_file,omitempty"` // Saved LinkedIn session cookies

	// Behavior
	APIKey      string   `json:"api_key,omitempty"`      // Gemini API key
	Temperature *float64 `json:"temperature,omitempty"`  // LLM sampling temperature override
	DatabaseURL string   `json:"database_url,omitempty"` // PostgreSQL connection URL
	Verbose     bool     `json:"verbose,omitempty"`      // Enable debug logging
	JSONLogs    bool     `json:"json_logs,omitempty"`    // Emit logs as JSON instead of console text
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are handled by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("config error: 'limit' must be non-negative")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("config error: 'temperature' must be in [0, 2]")
	}
	if c.JD != "" {
		if _, err := os.Stat(c.JD); os.IsNotExist(err) {
			return fmt.Errorf("config error: job description file not found: %s", c.JD)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled
// from defaults. Used to apply config file values underneath CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.JD == "" {
		result.JD = defaults.JD
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.SessionFile == "" {
		result.SessionFile = defaults.SessionFile
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Limit == 0 {
		result.Limit = defaults.Limit
	}
	if result.Temperature == nil {
		result.Temperature = defaults.Temperature
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}
	if !result.JSONLogs {
		result.JSONLogs = defaults.JSONLogs
	}

	return result
}
