package discovery

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// File type classifications produced by discovery.
const (
	FileTypeCode          = "code"
	FileTypeDocumentation = "documentation"
)

// FileInfo describes one discovered file. Paths use forward slashes in
// RelativePath so glob matching and reporting behave the same on every
// platform.
type FileInfo struct {
	Path         string    `json:"path"`
	RelativePath string    `json:"relative_path"`
	FileType     string    `json:"file_type"` // "code" or "documentation"
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modified_time"`
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery walks a root directory and classifies files into code and
// documentation candidates, applying exclusion patterns and a size cutoff.
type Discovery struct {
	rootDir         string
	codePatterns    []compiledPattern
	docsPatterns    []compiledPattern
	excludePatterns []compiledPattern
	maxFileSize     int64 // 0 disables the cutoff
}

// New creates a discovery instance. Patterns use glob syntax with '/' as the
// separator. maxFileSize of 0 disables the size cutoff.
func New(rootDir string, codePatterns, docsPatterns, excludePatterns []string, maxFileSize int64) (*Discovery, error) {
	d := &Discovery{
		rootDir:     rootDir,
		maxFileSize: maxFileSize,
	}

	var err error
	if d.codePatterns, err = compilePatterns(codePatterns); err != nil {
		return nil, err
	}
	if d.docsPatterns, err = compilePatterns(docsPatterns); err != nil {
		return nil, err
	}
	if d.excludePatterns, err = compilePatterns(excludePatterns); err != nil {
		return nil, err
	}

	return d, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

// Discover walks the root and returns matching files sorted by relative
// path, so downstream processing order is reproducible regardless of
// filesystem iteration order.
func (d *Discovery) Discover() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.Walk(d.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.shouldExclude(relPath) {
			return nil
		}
		if d.maxFileSize > 0 && info.Size() > d.maxFileSize {
			return nil
		}

		fileType := ""
		switch {
		case d.matchesAnyPattern(relPath, d.codePatterns):
			fileType = FileTypeCode
		case d.matchesAnyPattern(relPath, d.docsPatterns):
			fileType = FileTypeDocumentation
		default:
			return nil
		}

		if text, err := isTextFile(path); err != nil || !text {
			return nil
		}

		files = append(files, FileInfo{
			Path:         path,
			RelativePath: relPath,
			FileType:     fileType,
			Size:         info.Size(),
			ModifiedTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
	return files, nil
}

// shouldExclude checks if a path matches any exclusion pattern.
func (d *Discovery) shouldExclude(relPath string) bool {
	// The tool's own output directory is always excluded.
	if strings.HasPrefix(relPath, ".codeatlas/") || relPath == ".codeatlas" {
		return true
	}

	if d.matchesAnyPattern(relPath, d.excludePatterns) {
		return true
	}

	// A bare directory name in the path should match its "dir/**" pattern,
	// e.g. "node_modules/pkg/x.js" against "node_modules/**" already works,
	// but "node_modules" as a path component deeper in the tree needs the
	// suffix retry.
	pathWithSuffix := relPath + "/**"
	return d.matchesAnyPattern(pathWithSuffix, d.excludePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func (d *Discovery) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// A "**/*.md" pattern should also match "README.md" at the root, where
	// there is no directory prefix for "**/" to consume.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if g, err := glob.Compile(simplified, '/'); err == nil && g.Match(path) {
					return true
				}
			}
		}
	}

	return false
}

// isTextFile reads the first 512 bytes and checks for null bytes, the same
// heuristic the 'file' tool uses.
func isTextFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false, err
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return false, nil
		}
	}
	return true, nil
}
