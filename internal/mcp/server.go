// Package mcp exposes the generated code map to AI assistants over the
// Model Context Protocol.
//
// The server is a read surface: it loads the map from the output
// directory, answers full-text and structural queries over stdio, and
// hot-reloads when the map is regenerated. It never writes the map.
package mcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codeatlas-io/codeatlas/internal/graph"
	"github.com/codeatlas-io/codeatlas/internal/search"
	"github.com/codeatlas-io/codeatlas/internal/watcher"
)

// Server serves the code map over MCP stdio.
type Server struct {
	mapDir   string
	storage  graph.Storage
	searcher search.Searcher
	querier  graph.Searcher
	watcher  *watcher.Watcher
	mcp      *server.MCPServer
	logger   *log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Stdout carries the MCP protocol, so the
// logger must write to stderr or a file.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer loads the map from mapDir and prepares an MCP server with
// the atlas_search and atlas_graph tools registered.
func NewServer(ctx context.Context, mapDir, version string, opts ...Option) (*Server, error) {
	s := &Server{
		mapDir: mapDir,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	storage, err := graph.NewStorage(mapDir)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	data, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("load code map: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("no code map found in %s; run 'codeatlas index' first", mapDir)
	}

	s.searcher, err = search.NewSearcher(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("build search index: %w", err)
	}

	store, err := graph.RebuildFromSerialized(data)
	if err != nil {
		s.searcher.Close()
		return nil, fmt.Errorf("rebuild graph: %w", err)
	}
	s.querier = graph.NewSearcher(store)

	s.mcp = server.NewMCPServer(
		"codeatlas-mcp",
		version,
		server.WithToolCapabilities(true),
	)
	AddSearchTool(s.mcp, s.searcher)
	AddGraphTool(s.mcp, s.querier)

	// A regenerated map is picked up without a restart.
	w, err := watcher.New(mapDir, []string{".json"}, nil, watcher.WithLogger(s.logger))
	if err != nil {
		s.searcher.Close()
		return nil, fmt.Errorf("watch map directory: %w", err)
	}
	s.watcher = w

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until a shutdown
// signal, a server error, or context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.watcher.Start(ctx, func(files []string) { s.reload(ctx) }); err != nil {
		return err
	}
	defer s.watcher.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving code map over MCP stdio", "map", s.mapDir)
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("mcp server: %w", err)
		}
	}()

	select {
	case <-sigCh:
		s.logger.Info("shutdown signal received")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reload swaps both indexes to the freshly written map, keeping the old
// state when the new map cannot be read.
func (s *Server) reload(ctx context.Context) {
	data, err := s.storage.Load()
	if err != nil || data == nil {
		s.logger.Warn("map changed but could not be reloaded; keeping previous index", "error", err)
		return
	}

	if err := s.searcher.Reindex(ctx, data); err != nil {
		s.logger.Warn("search reindex failed; keeping previous index", "error", err)
		return
	}

	store, err := graph.RebuildFromSerialized(data)
	if err != nil {
		s.logger.Warn("graph rebuild failed; keeping previous index", "error", err)
		return
	}
	s.querier.Reload(store)

	s.logger.Info("code map reloaded", "nodes", len(data.Nodes), "relationships", len(data.Edges))
}

// Close releases the watcher and search resources.
func (s *Server) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.searcher != nil {
		return s.searcher.Close()
	}
	return nil
}
