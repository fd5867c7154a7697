package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - LoadConfig() uses defaults when no config file exists
// - LoadConfig() loads from .codeatlas/config.yml when present
// - LoadConfig() merges config file with defaults
// - Environment variables override config file values
// - LoadConfig() returns error for malformed YAML
// - LoadConfig() returns error for invalid configuration values
// - Validate() rejects non-positive workers, timeout, chunk size
// - Validate() rejects negative max file size and cache size
// - Validate() rejects empty output dir and language list
// - Validate() rejects unknown languages and formats
// - Validate() returns multiple errors for multiple invalid fields
// - LanguageEnabled() reflects the configured language list

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, int64(1<<20), cfg.Paths.MaxFileSize)
	assert.Contains(t, cfg.Paths.Exclude, ".git/**")
	assert.Contains(t, cfg.Paths.Exclude, "node_modules/**")
	assert.Contains(t, cfg.Paths.Exclude, ".codeatlas/**")

	assert.Equal(t, runtime.NumCPU(), cfg.Analysis.Workers)
	assert.Equal(t, 30*time.Second, cfg.Analysis.FileTimeout)
	assert.Equal(t, []string{"python", "go", "markdown"}, cfg.Analysis.Languages)
	assert.Equal(t, DefaultCacheSize, cfg.Analysis.CacheSize)

	assert.Equal(t, ".codeatlas/map", cfg.Output.Dir)
	assert.Equal(t, 2000, cfg.Output.ChunkSize)
	assert.Equal(t, []string{"json"}, cfg.Output.Formats)

	// Verify default config passes validation
	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	// Test: Load from directory with no config file returns defaults
	tempDir := t.TempDir()

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	expected := Default()
	assert.Equal(t, expected.Paths.MaxFileSize, cfg.Paths.MaxFileSize)
	assert.Equal(t, expected.Analysis.FileTimeout, cfg.Analysis.FileTimeout)
	assert.Equal(t, expected.Output.Dir, cfg.Output.Dir)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	// Test: Load from .codeatlas/config.yml
	tempDir := t.TempDir()
	atlasDir := filepath.Join(tempDir, ".codeatlas")
	require.NoError(t, os.MkdirAll(atlasDir, 0755))

	configContent := `
paths:
  exclude:
    - "generated/**"
  max_file_size: 524288

analysis:
  workers: 2
  file_timeout: 5s
  languages: ["python", "markdown"]

output:
  dir: out/map
  chunk_size: 500
  formats: ["json", "mermaid"]
`

	configPath := filepath.Join(atlasDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"generated/**"}, cfg.Paths.Exclude)
	assert.Equal(t, int64(524288), cfg.Paths.MaxFileSize)

	assert.Equal(t, 2, cfg.Analysis.Workers)
	assert.Equal(t, 5*time.Second, cfg.Analysis.FileTimeout)
	assert.Equal(t, []string{"python", "markdown"}, cfg.Analysis.Languages)

	assert.Equal(t, "out/map", cfg.Output.Dir)
	assert.Equal(t, 500, cfg.Output.ChunkSize)
	assert.Equal(t, []string{"json", "mermaid"}, cfg.Output.Formats)
}

func TestLoadConfig_MergesConfigWithDefaults(t *testing.T) {
	// Test: Partial config file merges with defaults
	tempDir := t.TempDir()
	atlasDir := filepath.Join(tempDir, ".codeatlas")
	require.NoError(t, os.MkdirAll(atlasDir, 0755))

	configContent := `
output:
  chunk_size: 750
`

	configPath := filepath.Join(atlasDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	// Overridden value
	assert.Equal(t, 750, cfg.Output.ChunkSize)

	// Everything else stays at defaults
	assert.Equal(t, ".codeatlas/map", cfg.Output.Dir)
	assert.Equal(t, 30*time.Second, cfg.Analysis.FileTimeout)
	assert.Equal(t, int64(1<<20), cfg.Paths.MaxFileSize)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()

	tempDir := t.TempDir()
	atlasDir := filepath.Join(tempDir, ".codeatlas")
	require.NoError(t, os.MkdirAll(atlasDir, 0755))

	configContent := `
analysis:
  workers: 2

output:
  chunk_size: 500
`

	configPath := filepath.Join(atlasDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	t.Setenv("CODEATLAS_ANALYSIS_WORKERS", "8")
	t.Setenv("CODEATLAS_OUTPUT_DIR", "/tmp/atlas-out")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	// Environment variables should win
	assert.Equal(t, 8, cfg.Analysis.Workers)
	assert.Equal(t, "/tmp/atlas-out", cfg.Output.Dir)

	// Chunk size not overridden, should come from config file
	assert.Equal(t, 500, cfg.Output.ChunkSize)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	// Test: Malformed YAML returns error
	tempDir := t.TempDir()
	atlasDir := filepath.Join(tempDir, ".codeatlas")
	require.NoError(t, os.MkdirAll(atlasDir, 0755))

	malformedContent := `
analysis:
  workers: "unclosed quote
  file_timeout: not-a-duration
`

	configPath := filepath.Join(atlasDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(malformedContent), 0644))

	cfg, err := NewLoader(tempDir).Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	// Test: Invalid configuration values fail validation
	tempDir := t.TempDir()
	atlasDir := filepath.Join(tempDir, ".codeatlas")
	require.NoError(t, os.MkdirAll(atlasDir, 0755))

	invalidContent := `
analysis:
  workers: -3
`

	configPath := filepath.Join(atlasDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(invalidContent), 0644))

	cfg, err := NewLoader(tempDir).Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid")
}

func TestValidate_RejectsNonPositiveWorkers(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Analysis.Workers = 0

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidWorkers)
}

func TestValidate_RejectsNonPositiveTimeout(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Analysis.FileTimeout = -time.Second

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidTimeout)
}

func TestValidate_RejectsNegativeMaxFileSize(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Paths.MaxFileSize = -1

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidMaxFileSize)
}

func TestValidate_AcceptsZeroMaxFileSize(t *testing.T) {
	t.Parallel()

	// Zero disables the cutoff rather than rejecting every file
	cfg := Default()
	cfg.Paths.MaxFileSize = 0

	assert.NoError(t, Validate(cfg))
}

func TestValidate_RejectsNegativeCacheSize(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Analysis.CacheSize = -1

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidCacheSize)
}

func TestValidate_RejectsNonPositiveChunkSize(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Output.ChunkSize = 0

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)
}

func TestValidate_RejectsEmptyOutputDir(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Output.Dir = "   "

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrEmptyOutputDir)
}

func TestValidate_RejectsEmptyLanguages(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Analysis.Languages = []string{}

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrEmptyLanguages)
}

func TestValidate_RejectsUnknownLanguage(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Analysis.Languages = []string{"python", "cobol"}

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrUnknownLanguage)
	assert.Contains(t, err.Error(), "cobol")
}

func TestValidate_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Output.Formats = []string{"json", "svg"}

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), "svg")
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Paths: PathsConfig{
			MaxFileSize: -5,
		},
		Analysis: AnalysisConfig{
			Workers:     0,
			FileTimeout: 0,
			Languages:   []string{},
		},
		Output: OutputConfig{
			Dir:       "",
			ChunkSize: -100,
		},
	}

	err := Validate(cfg)
	require.Error(t, err)

	// Error message should contain multiple issues
	errMsg := err.Error()
	assert.Contains(t, errMsg, "workers")
	assert.Contains(t, errMsg, "file_timeout")
	assert.Contains(t, errMsg, "max_file_size")
	assert.Contains(t, errMsg, "output dir")
	assert.Contains(t, errMsg, "chunk_size")
}

func TestLanguageEnabled(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.True(t, cfg.LanguageEnabled("python"))
	assert.True(t, cfg.LanguageEnabled("markdown"))

	cfg.Analysis.Languages = []string{"go"}
	assert.True(t, cfg.LanguageEnabled("go"))
	assert.False(t, cfg.LanguageEnabled("python"))
}
