package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/tailscale/hujson"
)

// ConfigFileName is the project config file name, looked up in the
// working directory.
const ConfigFileName = ".dp.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errBundleEmpty        = errors.New("bundle cannot be empty")
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized) and environment.
	Bundle  string `json:"bundle"            env:"DP_BUNDLE"`
	History string `json:"history,omitempty" env:"DP_HISTORY"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd string `json:"-" env:"-"` // absolute working directory
	BundleAbs    string `json:"-" env:"-"` // absolute path to the bundle directory

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-" env:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // path to global config if loaded, empty otherwise
	Project string // path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Bundle: "doc.bundle",
	}
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	BundleOverride  string            // -b/--bundle flag value; empty means no override
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence
// (highest wins):
//  1. Defaults
//  2. Global user config (~/.config/dp/config.json or
//     $XDG_CONFIG_HOME/dp/config.json)
//  3. Project config file at the default location (.dp.json, if present)
//  4. Explicit config file via -c/--config (if non-empty)
//  5. Environment variables (DP_*)
//  6. CLI flag overrides
//
// Config files are JSON with comments and trailing commas allowed.
// All paths in the returned Config are resolved to absolute paths.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	// Global config, if present.
	if globalPath := globalConfigPath(input.Env); globalPath != "" {
		loaded, err := loadConfigFile(globalPath)
		if err == nil {
			cfg.merge(loaded)
			cfg.Sources.Global = globalPath
		} else if !errors.Is(err, errConfigFileNotFound) {
			return Config{}, fmt.Errorf("%s: %w", globalPath, err)
		}
	}

	// Project config, if present.
	projectPath := filepath.Join(workDir, ConfigFileName)

	loaded, err := loadConfigFile(projectPath)
	if err == nil {
		cfg.merge(loaded)
		cfg.Sources.Project = projectPath
	} else if !errors.Is(err, errConfigFileNotFound) {
		return Config{}, fmt.Errorf("%s: %w", projectPath, err)
	}

	// Explicit config file must exist.
	if input.ConfigPath != "" {
		loaded, err := loadConfigFile(input.ConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", input.ConfigPath, err)
		}

		cfg.merge(loaded)
		cfg.Sources.Project = input.ConfigPath
	}

	// Environment overrides.
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: input.Env}); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}

	// Flag overrides win over everything.
	if input.BundleOverride != "" {
		cfg.Bundle = input.BundleOverride
	}

	if cfg.Bundle == "" {
		return Config{}, errBundleEmpty
	}

	cfg.EffectiveCwd = workDir

	cfg.BundleAbs = cfg.Bundle
	if !filepath.IsAbs(cfg.BundleAbs) {
		cfg.BundleAbs = filepath.Join(workDir, cfg.Bundle)
	}

	return cfg, nil
}

// merge overlays the non-empty fields of other onto c.
func (c *Config) merge(other Config) {
	if other.Bundle != "" {
		c.Bundle = other.Bundle
	}

	if other.History != "" {
		c.History = other.History
	}
}

// globalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/dp/config.json if set, otherwise
// ~/.config/dp/config.json. Returns empty string if the home directory
// cannot be determined.
func globalConfigPath(envVars map[string]string) string {
	if xdgConfig := envVars["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "dp", "config.json")
	}

	if home := envVars["HOME"]; home != "" {
		return filepath.Join(home, ".config", "dp", "config.json")
	}

	return ""
}

// loadConfigFile reads and parses one config file. The format is JSON
// with comments and trailing commas allowed.
func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from config resolution
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errConfigFileNotFound
		}

		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}
