// Package pipeline orchestrates one analysis run: discover files, extract
// structure with a bounded worker pool, map relationships, assemble the
// graph, chunk the relationship list, and persist everything under the
// output directory.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codeatlas-io/codeatlas/internal/analyzer"
	"github.com/codeatlas-io/codeatlas/internal/chunker"
	"github.com/codeatlas-io/codeatlas/internal/config"
	"github.com/codeatlas-io/codeatlas/internal/discovery"
	"github.com/codeatlas-io/codeatlas/internal/element"
	"github.com/codeatlas-io/codeatlas/internal/graph"
	"github.com/codeatlas-io/codeatlas/internal/mapper"
)

// FileFailure records one file that could not be analyzed. Failures never
// abort the run; sibling files proceed.
type FileFailure struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Stats summarizes one completed run.
type Stats struct {
	RunID           string        `json:"run_id"`
	FilesDiscovered int           `json:"files_discovered"`
	FilesProcessed  int           `json:"files_processed"`
	FilesFailed     int           `json:"files_failed"`
	CodeElements    int           `json:"code_elements"`
	DocElements     int           `json:"doc_elements"`
	Relationships   int           `json:"relationships"`
	Chunks          int           `json:"chunks"`
	Duration        time.Duration `json:"duration"`
	Failures        []FileFailure `json:"failures,omitempty"`
}

// ProgressReporter provides callbacks for reporting run progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(codeFiles, docFiles int)

	// OnExtractionStart is called before the extraction workers launch.
	OnExtractionStart(totalFiles int)

	// OnFileProcessed is called after each file finishes, pass or fail.
	OnFileProcessed(path string)

	// OnMappingComplete is called once relationships are mapped.
	OnMappingComplete(relationships int)

	// OnWritingOutput is called when output files start landing.
	OnWritingOutput()

	// OnComplete is called when the run finishes successfully.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                        {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(codeFiles, docs int)  {}
func (n *NoOpProgressReporter) OnExtractionStart(totalFiles int)         {}
func (n *NoOpProgressReporter) OnFileProcessed(path string)              {}
func (n *NoOpProgressReporter) OnMappingComplete(relationships int)      {}
func (n *NoOpProgressReporter) OnWritingOutput()                         {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)                  {}

// Pipeline runs the full analysis for one root directory. A Pipeline may be
// reused across runs (watch mode does); its id generator is never reset, so
// cached extraction results keep ids that stay unique against fresh ones.
type Pipeline struct {
	rootDir  string
	cfg      *config.Config
	registry *analyzer.Registry
	mapper   *mapper.Mapper
	ids      *element.IDGenerator
	cache    *Cache
	progress ProgressReporter
	logger   *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgress configures progress reporting.
func WithProgress(progress ProgressReporter) Option {
	return func(p *Pipeline) {
		p.progress = progress
	}
}

// WithRegistry replaces the config-derived analyzer registry.
func WithRegistry(registry *analyzer.Registry) Option {
	return func(p *Pipeline) {
		p.registry = registry
	}
}

// WithCache attaches an extraction cache shared across runs.
func WithCache(cache *Cache) Option {
	return func(p *Pipeline) {
		p.cache = cache
	}
}

// WithLogger sets the logger for per-file warnings.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a pipeline for the given root directory.
func New(rootDir string, cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		rootDir:  rootDir,
		cfg:      cfg,
		registry: registryFromConfig(cfg),
		mapper:   mapper.New(),
		ids:      element.NewIDGenerator(),
		progress: &NoOpProgressReporter{},
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// registryFromConfig keeps the built-in dispatch order but drops analyzers
// the configuration switched off.
func registryFromConfig(cfg *config.Config) *analyzer.Registry {
	defaults := analyzer.DefaultRegistry()
	r := analyzer.NewRegistry()
	for _, name := range defaults.Names() {
		if cfg.LanguageEnabled(name) {
			r.Register(defaults.CreateByName(name))
		}
	}
	return r
}

// sourcePatterns derives discovery globs from the enabled languages.
func sourcePatterns(cfg *config.Config) (code, docs []string) {
	if cfg.LanguageEnabled("python") {
		code = append(code, "**/*.py")
	}
	if cfg.LanguageEnabled("go") {
		code = append(code, "**/*.go")
	}
	if cfg.LanguageEnabled("markdown") {
		docs = append(docs, "**/*.md", "**/*.markdown")
	}
	return code, docs
}

// WatchExtensions lists the file extensions covered by the enabled
// languages, for wiring a file watcher to the same source set the
// pipeline discovers.
func WatchExtensions(cfg *config.Config) []string {
	var exts []string
	if cfg.LanguageEnabled("python") {
		exts = append(exts, ".py")
	}
	if cfg.LanguageEnabled("go") {
		exts = append(exts, ".go")
	}
	if cfg.LanguageEnabled("markdown") {
		exts = append(exts, ".md", ".markdown")
	}
	return exts
}

// Run executes the complete pipeline and returns run statistics.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	startTime := time.Now()
	stats := &Stats{RunID: uuid.NewString()}

	// Stage 1: discovery
	p.progress.OnDiscoveryStart()
	codeGlobs, docGlobs := sourcePatterns(p.cfg)
	disc, err := discovery.New(p.rootDir, codeGlobs, docGlobs, p.cfg.Paths.Exclude, p.cfg.Paths.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("compile discovery patterns: %w", err)
	}
	files, err := disc.Discover()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	stats.FilesDiscovered = len(files)
	codeCount, docCount := countByType(files)
	p.logger.Debug("discovery complete", "files", len(files), "code", codeCount, "docs", docCount)
	p.progress.OnDiscoveryComplete(codeCount, docCount)

	// Stage 2: bounded concurrent extraction. Results land by index, so the
	// discovery order (sorted by path) carries through to the element list.
	results, failures, err := p.extract(ctx, files)
	if err != nil {
		return nil, err
	}
	stats.FilesProcessed = len(results)
	stats.FilesFailed = len(failures)
	stats.Failures = failures
	p.logger.Debug("extraction complete", "processed", len(results), "failed", len(failures))

	// Stage 3: collect elements
	var code []*element.CodeElement
	var docs []*element.DocumentationElement
	for _, res := range results {
		code = append(code, res.Code...)
		docs = append(docs, res.Docs...)
	}
	stats.CodeElements = len(code)
	stats.DocElements = len(docs)

	// Stage 4: relationship mapping
	rels := p.mapper.MapRelationships(code, docs)
	stats.Relationships = len(rels)
	p.logger.Debug("mapping complete", "relationships", len(rels))
	p.progress.OnMappingComplete(len(rels))

	// Stage 5: graph assembly
	store := graph.NewStore()
	for _, c := range code {
		store.AddNode(c.ID, element.KindCode, codeNodeData(c))
	}
	for _, d := range docs {
		store.AddNode(d.Key(), element.KindDocumentation, docNodeData(d))
	}
	for _, rel := range rels {
		if err := store.AddRelationship(rel); err != nil {
			return nil, fmt.Errorf("assemble graph: %w", err)
		}
	}

	// Stage 6: chunking
	gen, err := chunker.New(p.cfg.Output.ChunkSize)
	if err != nil {
		return nil, err
	}
	output := gen.Generate(rels)
	stats.Chunks = len(output.Chunks)
	p.logger.Debug("chunking complete", "chunks", len(output.Chunks))

	// Stage 7: persist
	p.progress.OnWritingOutput()
	if err := p.writeOutputs(store, output, stats.RunID); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(startTime)
	p.logger.Info("run complete",
		"run_id", stats.RunID,
		"relationships", stats.Relationships,
		"chunks", stats.Chunks,
		"duration", stats.Duration)
	p.progress.OnComplete(stats)
	return stats, nil
}

func countByType(files []discovery.FileInfo) (code, docs int) {
	for _, f := range files {
		if f.FileType == discovery.FileTypeCode {
			code++
		} else {
			docs++
		}
	}
	return code, docs
}

// extract analyzes every file with a worker pool bounded by cfg.Workers.
// A failed file becomes a FileFailure; only context cancellation aborts.
func (p *Pipeline) extract(ctx context.Context, files []discovery.FileInfo) ([]*analyzer.Result, []FileFailure, error) {
	p.progress.OnExtractionStart(len(files))

	results := make([]*analyzer.Result, len(files))
	var failures []FileFailure
	var mu sync.Mutex // protects failures

	semaphore := make(chan struct{}, p.cfg.Analysis.Workers)
	g, gctx := errgroup.WithContext(ctx)

	for i := range files {
		idx := i
		file := files[i]
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			// The select above can win the semaphore even on a done
			// context; recheck before doing work.
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := p.extractFile(gctx, file)
			if err != nil {
				if gctx.Err() != nil {
					// The run itself is being cancelled; don't record the
					// file as failed.
					return gctx.Err()
				}
				p.logger.Warn("extraction failed", "file", file.RelativePath, "error", err)
				mu.Lock()
				failures = append(failures, FileFailure{Path: file.RelativePath, Message: err.Error()})
				mu.Unlock()
			} else {
				results[idx] = res
			}
			p.progress.OnFileProcessed(file.RelativePath)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Path < failures[j].Path
	})

	compacted := make([]*analyzer.Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			compacted = append(compacted, r)
		}
	}
	return compacted, failures, nil
}

// extractFile analyzes one file under the per-file timeout, consulting the
// extraction cache when one is attached.
func (p *Pipeline) extractFile(ctx context.Context, file discovery.FileInfo) (*analyzer.Result, error) {
	a := p.registry.SelectFor(file)
	if a == nil {
		return nil, fmt.Errorf("no analyzer for %s", file.RelativePath)
	}

	source, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var key string
	if p.cache != nil {
		key = Key(file.RelativePath, source)
		if res, ok := p.cache.Get(key); ok {
			return res, nil
		}
	}

	actx := ctx
	if p.cfg.Analysis.FileTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, p.cfg.Analysis.FileTimeout)
		defer cancel()
	}

	res, err := a.Analyze(actx, file, source, p.ids)
	if err != nil {
		if actx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("analysis timed out after %s", p.cfg.Analysis.FileTimeout)
		}
		return nil, err
	}

	if p.cache != nil {
		p.cache.Set(key, res)
	}
	return res, nil
}

func codeNodeData(c *element.CodeElement) map[string]any {
	data := map[string]any{
		"name":         c.Name,
		"element_type": string(c.Type),
		"file_path":    c.FilePath,
		"line_start":   c.LineStart,
	}
	if c.QualifiedName != "" {
		data["qualified_name"] = c.QualifiedName
	}
	if c.Docstring != "" {
		data["docstring"] = c.Docstring
	}
	return data
}

func docNodeData(d *element.DocumentationElement) map[string]any {
	data := map[string]any{
		"title":        d.Key(),
		"element_type": string(d.Type),
		"file_path":    d.Location.FilePath,
		"line_start":   d.Location.LineStart,
	}
	if d.Content != "" {
		data["content"] = d.Content
	}
	return data
}

// OutputPath resolves the configured output directory against the root.
// Consumers of the map (search, MCP serving) use it to find the files a
// run produced.
func OutputPath(rootDir string, cfg *config.Config) string {
	dir := cfg.Output.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(rootDir, dir)
	}
	return dir
}

// outputDir resolves this pipeline's output directory.
func (p *Pipeline) outputDir() string {
	return OutputPath(p.rootDir, p.cfg)
}
