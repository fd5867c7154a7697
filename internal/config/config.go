package config

import (
	"runtime"
	"time"

	"github.com/codeatlas-io/codeatlas/internal/chunker"
)

// Config represents the complete codeatlas configuration.
// It can be loaded from .codeatlas/config.yml with environment variable overrides.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// PathsConfig defines which files the discovery stage skips.
type PathsConfig struct {
	Exclude     []string `yaml:"exclude" mapstructure:"exclude"`             // glob patterns to skip
	MaxFileSize int64    `yaml:"max_file_size" mapstructure:"max_file_size"` // bytes; 0 disables the cutoff
}

// AnalysisConfig bounds the extraction stage.
type AnalysisConfig struct {
	Workers     int           `yaml:"workers" mapstructure:"workers"`           // concurrent extraction workers
	FileTimeout time.Duration `yaml:"file_timeout" mapstructure:"file_timeout"` // per-file extraction budget
	Languages   []string      `yaml:"languages" mapstructure:"languages"`       // enabled analyzers
	CacheSize   int           `yaml:"cache_size" mapstructure:"cache_size"`     // extraction cache capacity (entries)
}

// OutputConfig defines where and how the map is written.
type OutputConfig struct {
	Dir       string   `yaml:"dir" mapstructure:"dir"`               // map output directory
	ChunkSize int      `yaml:"chunk_size" mapstructure:"chunk_size"` // target tokens per relationship chunk
	Formats   []string `yaml:"formats" mapstructure:"formats"`       // render formats: json, mermaid, dot
}

const (
	// DefaultMaxFileSize is the discovery size cutoff: 1 MiB.
	DefaultMaxFileSize = 1 << 20

	// DefaultFileTimeout is the per-file extraction budget.
	DefaultFileTimeout = 30 * time.Second

	// DefaultOutputDir is where the serialized map lands.
	DefaultOutputDir = ".codeatlas/map"

	// DefaultCacheSize is the extraction cache capacity in entries.
	DefaultCacheSize = 4096
)

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Exclude: []string{
				".git/**",
				"node_modules/**",
				"vendor/**",
				"__pycache__/**",
				".venv/**",
				"dist/**",
				"build/**",
				".codeatlas/**",
			},
			MaxFileSize: DefaultMaxFileSize,
		},
		Analysis: AnalysisConfig{
			Workers:     runtime.NumCPU(),
			FileTimeout: DefaultFileTimeout,
			Languages:   []string{"python", "go", "markdown"},
			CacheSize:   DefaultCacheSize,
		},
		Output: OutputConfig{
			Dir:       DefaultOutputDir,
			ChunkSize: chunker.DefaultTargetSize,
			Formats:   []string{"json"},
		},
	}
}

// LanguageEnabled reports whether the named analyzer is switched on.
func (c *Config) LanguageEnabled(name string) bool {
	for _, l := range c.Analysis.Languages {
		if l == name {
			return true
		}
	}
	return false
}
