// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the harvester configuration that can be loaded from a
// JSON file. All fields are optional; missing values use defaults or come
// from CLI flags, and credentials come from the environment.
type Config struct {
	// URL is the site entry point.
	URL string `json:"url,omitempty" validate:"omitempty,url"`
	// OutputDir is the corpus root that records, images and the report are
	// written under.
	OutputDir string `json:"output_dir,omitempty"`
	// SchemaPath points at the record JSON schema used by verification.
	SchemaPath string `json:"schema_path,omitempty"`

	// StaleAfterDays is the record refresh window in whole days.
	StaleAfterDays int `json:"stale_after_days,omitempty" validate:"gte=0"`
	// PageCooldownSeconds is the fixed delay between listing pages.
	PageCooldownSeconds int `json:"page_cooldown_seconds,omitempty" validate:"gte=0"`
	// OpTimeoutSeconds bounds one browser wait-for-element operation.
	OpTimeoutSeconds int `json:"op_timeout_seconds,omitempty" validate:"gte=0"`

	// SampleMode collects a single player and stops; used for smoke runs.
	SampleMode bool `json:"sample_mode,omitempty"`
	// Headless controls whether the browser renders on screen.
	Headless bool `json:"headless,omitempty"`
	// Verbose prints detailed browser diagnostics.
	Verbose bool `json:"verbose,omitempty"`

	// Email and Password are the site credentials. Normally supplied via
	// the FPL_EMAIL and FPL_PASSWORD environment variables, never a config
	// file checked into a repo.
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password,omitempty"`
}

// DefaultConfig returns the built-in defaults: the public site, a weekly
// refresh window, and a polite between-page cooldown.
func DefaultConfig() Config {
	return Config{
		URL:                 "https://fantasy.premierleague.com/",
		OutputDir:           "raw_data",
		SchemaPath:          filepath.Join("schemas", "player_record.schema.json"),
		StaleAfterDays:      7,
		PageCooldownSeconds: 5,
		OpTimeoutSeconds:    60,
		Headless:            true,
	}
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

// FromEnv fills credentials from the environment when the config carries
// none.
func (c *Config) FromEnv() {
	if c.Email == "" {
		c.Email = os.Getenv("FPL_EMAIL")
	}
	if c.Password == "" {
		c.Password = os.Getenv("FPL_PASSWORD")
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Email == "" || c.Password == "" {
		return fmt.Errorf("config error: credentials required (set FPL_EMAIL and FPL_PASSWORD)")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. Used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.URL == "" {
		result.URL = defaults.URL
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.SchemaPath == "" {
		result.SchemaPath = defaults.SchemaPath
	}
	if result.Email == "" {
		result.Email = defaults.Email
	}
	if result.Password == "" {
		result.Password = defaults.Password
	}

	if result.StaleAfterDays == 0 {
		result.StaleAfterDays = defaults.StaleAfterDays
	}
	if result.PageCooldownSeconds == 0 {
		result.PageCooldownSeconds = defaults.PageCooldownSeconds
	}
	if result.OpTimeoutSeconds == 0 {
		result.OpTimeoutSeconds = defaults.OpTimeoutSeconds
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
