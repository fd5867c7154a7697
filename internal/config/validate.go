package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidWorkers indicates a non-positive worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidTimeout indicates a non-positive per-file timeout
	ErrInvalidTimeout = errors.New("invalid file timeout")

	// ErrInvalidMaxFileSize indicates a negative file size cutoff
	ErrInvalidMaxFileSize = errors.New("invalid max file size")

	// ErrInvalidCacheSize indicates a negative extraction cache capacity
	ErrInvalidCacheSize = errors.New("invalid cache size")

	// ErrInvalidChunkSize indicates a non-positive chunk token target
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrEmptyOutputDir indicates a missing output directory
	ErrEmptyOutputDir = errors.New("empty output directory")

	// ErrEmptyLanguages indicates no analyzer is enabled
	ErrEmptyLanguages = errors.New("empty language list")

	// ErrUnknownLanguage indicates an analyzer name nothing registers
	ErrUnknownLanguage = errors.New("unknown language")

	// ErrUnknownFormat indicates an unsupported render format
	ErrUnknownFormat = errors.New("unknown output format")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if err := validateAnalysis(&cfg.Analysis); err != nil {
		errs = append(errs, err)
	}

	if err := validateOutput(&cfg.Output); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	// Exclude patterns can be empty; discovery then walks everything.
	if cfg.MaxFileSize < 0 {
		return fmt.Errorf("%w: max_file_size cannot be negative, got %d", ErrInvalidMaxFileSize, cfg.MaxFileSize)
	}
	return nil
}

func validateAnalysis(cfg *AnalysisConfig) error {
	var errs []error

	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if cfg.FileTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: file_timeout must be positive, got %s", ErrInvalidTimeout, cfg.FileTimeout))
	}

	if cfg.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size cannot be negative, got %d", ErrInvalidCacheSize, cfg.CacheSize))
	}

	if len(cfg.Languages) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one language required", ErrEmptyLanguages))
	}

	validLanguages := map[string]bool{
		"python":   true,
		"go":       true,
		"markdown": true,
	}

	for _, lang := range cfg.Languages {
		if !validLanguages[lang] {
			errs = append(errs, fmt.Errorf("%w: %s (valid: python, go, markdown)", ErrUnknownLanguage, lang))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateOutput(cfg *OutputConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Dir) == "" {
		errs = append(errs, fmt.Errorf("%w: output dir is required", ErrEmptyOutputDir))
	}

	if cfg.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunkSize, cfg.ChunkSize))
	}

	validFormats := map[string]bool{
		"json":    true,
		"mermaid": true,
		"dot":     true,
	}

	for _, format := range cfg.Formats {
		if !validFormats[format] {
			errs = append(errs, fmt.Errorf("%w: %s (valid: json, mermaid, dot)", ErrUnknownFormat, format))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
