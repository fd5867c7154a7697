package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CODEATLAS_*)
// 2. Config file (.codeatlas/config.yml or .codeatlas/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".codeatlas")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	// Enable environment variable overrides
	v.SetEnvPrefix("CODEATLAS")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., CODEATLAS_ANALYSIS_WORKERS)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables to config keys
	v.BindEnv("paths.max_file_size")
	v.BindEnv("analysis.workers")
	v.BindEnv("analysis.file_timeout")
	v.BindEnv("analysis.cache_size")
	v.BindEnv("output.dir")
	v.BindEnv("output.chunk_size")

	setDefaults(v)

	// Config file not found is acceptable - we'll use defaults + env vars
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.exclude", defaults.Paths.Exclude)
	v.SetDefault("paths.max_file_size", defaults.Paths.MaxFileSize)

	v.SetDefault("analysis.workers", defaults.Analysis.Workers)
	v.SetDefault("analysis.file_timeout", defaults.Analysis.FileTimeout)
	v.SetDefault("analysis.languages", defaults.Analysis.Languages)
	v.SetDefault("analysis.cache_size", defaults.Analysis.CacheSize)

	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.chunk_size", defaults.Output.ChunkSize)
	v.SetDefault("output.formats", defaults.Output.Formats)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
