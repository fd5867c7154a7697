package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// GraphFileName is the name of the serialized graph file inside the map
// directory.
const GraphFileName = "graph.json"

// Storage handles reading and writing graph data to disk.
type Storage interface {
	// Load loads the graph from disk. Returns nil if the file doesn't exist.
	Load() (*Data, error)

	// Save saves the graph to disk using an atomic write.
	Save(data *Data) error

	// Exists checks if the graph file exists.
	Exists() bool
}

// storage implements Storage with atomic write support.
type storage struct {
	mapDir string // directory containing the graph file (.codeatlas/map/)
}

// NewStorage creates a graph storage instance rooted at mapDir.
func NewStorage(mapDir string) (Storage, error) {
	if err := os.MkdirAll(mapDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create map directory: %w", err)
	}

	// Temp directory for atomic writes.
	if err := os.MkdirAll(filepath.Join(mapDir, ".tmp"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &storage{mapDir: mapDir}, nil
}

// Load loads the graph data from disk.
func (s *storage) Load() (*Data, error) {
	filePath := s.graphFilePath()

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil // not an error, just no graph yet
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse graph JSON: %w", err)
	}

	return &data, nil
}

// Save saves the graph data to disk using an atomic write. The version,
// timestamp, and counts are stamped here; the run id is the caller's.
func (s *storage) Save(data *Data) error {
	data.Metadata.Version = FormatVersion
	data.Metadata.GeneratedAt = time.Now()
	data.Metadata.NodeCount = len(data.Nodes)
	data.Metadata.EdgeCount = len(data.Edges)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph data: %w", err)
	}

	// Write to the temp file first.
	tempPath := filepath.Join(s.mapDir, ".tmp", GraphFileName)
	if err := os.WriteFile(tempPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp graph file: %w", err)
	}

	// Atomic rename (POSIX guarantees atomicity).
	if err := os.Rename(tempPath, s.graphFilePath()); err != nil {
		return fmt.Errorf("failed to rename temp graph file: %w", err)
	}

	return nil
}

// Exists checks if the graph file exists.
func (s *storage) Exists() bool {
	_, err := os.Stat(s.graphFilePath())
	return err == nil
}

// graphFilePath returns the full path to the graph file.
func (s *storage) graphFilePath() string {
	return filepath.Join(s.mapDir, GraphFileName)
}
