// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/bias-detector/internal/scoring"
	"github.com/jonathan/bias-detector/internal/types"
)

// Environment variables read by FromEnv
const (
	EnvCatalog     = "BIAS_CATALOG"
	EnvDatabaseURL = "DATABASE_URL"
	EnvPort        = "PORT"
)

// DefaultPort is used by the server when no port is configured.
const DefaultPort = 8080

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	// Rules
	CatalogPath string `json:"catalog_path,omitempty"` // Rule catalog file (.json, .yaml); default is the built-in catalog

	// Scoring
	CategoryWeights map[string]float64 `json:"category_weights,omitempty" validate:"omitempty,dive,keys,min=1,endkeys,gte=0"`
	SeverityWeights map[string]int     `json:"severity_weights,omitempty" validate:"omitempty,dive,keys,oneof=low medium high,endkeys,gte=0"`

	// Behavior
	InclusiveMode bool `json:"inclusive_mode,omitempty"` // Auto-accept newly detected issues
	Verbose       bool `json:"verbose,omitempty"`        // Print detailed debug information

	// Server
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL for history
	Port        int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
}

var validate = validator.New()

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
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

// FromEnv returns the configuration given by environment variables.
// An unparsable PORT is ignored.
func FromEnv() Config {
	cfg := Config{
		CatalogPath: os.Getenv(EnvCatalog),
		DatabaseURL: os.Getenv(EnvDatabaseURL),
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	return cfg
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config error: invalid values: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config error: %w", err)
	}

	if scorer := scoring.New(c.ScorerOptions()); !scorer.Ordered() {
		return fmt.Errorf("config error: severity weights must satisfy high > medium > low, got high=%d medium=%d low=%d",
			scorer.Penalty(types.SeverityHigh), scorer.Penalty(types.SeverityMedium), scorer.Penalty(types.SeverityLow))
	}

	// Validate file paths exist (if specified)
	if c.CatalogPath != "" {
		if _, err := os.Stat(c.CatalogPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: catalog file not found: %s", c.CatalogPath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file and environment values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.CatalogPath == "" {
		result.CatalogPath = defaults.CatalogPath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Maps: use default if unset
	if result.CategoryWeights == nil {
		result.CategoryWeights = defaults.CategoryWeights
	}
	if result.SeverityWeights == nil {
		result.SeverityWeights = defaults.SeverityWeights
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ScorerOptions converts the weight settings for the scorer.
func (c *Config) ScorerOptions() scoring.Options {
	var opts scoring.Options
	if c.CategoryWeights != nil {
		opts.CategoryWeights = make(map[types.Category]float64, len(c.CategoryWeights))
		for k, v := range c.CategoryWeights {
			opts.CategoryWeights[types.Category(k)] = v
		}
	}
	if c.SeverityWeights != nil {
		opts.SeverityWeights = make(map[types.Severity]int, len(c.SeverityWeights))
		for k, v := range c.SeverityWeights {
			opts.SeverityWeights[types.Severity(k)] = v
		}
	}
	return opts
}

// ListenPort returns the configured port or DefaultPort.
func (c *Config) ListenPort() int {
	if c.Port == 0 {
		return DefaultPort
	}
	return c.Port
}
