package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codeatlas-io/codeatlas/internal/chunker"
	"github.com/codeatlas-io/codeatlas/internal/graph"
	"github.com/codeatlas-io/codeatlas/internal/render"
)

// MasterFileName is the name of the chunk index file inside the map
// directory.
const MasterFileName = "master.json"

// fileMetadata is the envelope stamped onto the master chunk file.
type fileMetadata struct {
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	RunID       string    `json:"run_id"`
}

// masterFile wraps the chunk index with run metadata.
type masterFile struct {
	Metadata fileMetadata `json:"_metadata"`
	*chunker.MasterChunk
}

// renderFileNames maps render format keys to their output file names.
var renderFileNames = map[string]string{
	render.FormatJSON:    "atlas.json",
	render.FormatMermaid: "atlas.mmd",
	render.FormatDOT:     "atlas.dot",
}

// writeOutputs persists the graph, the chunk files, the master index, and
// the configured render artifacts. Every file lands via tmp+rename so a
// crashed run never leaves a partial file behind.
func (p *Pipeline) writeOutputs(store *graph.Store, output *chunker.Output, runID string) error {
	outDir := p.outputDir()

	storage, err := graph.NewStorage(outDir)
	if err != nil {
		return err
	}

	data := store.Serialize()
	data.Metadata.RunID = runID
	if err := storage.Save(data); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	// Chunk files from a previous, larger run would shadow the new master
	// index; clear them before writing the new set.
	if err := removeStaleChunks(outDir); err != nil {
		return err
	}

	for id, chunk := range output.Chunks {
		if err := writeJSONAtomic(outDir, id+".json", chunk); err != nil {
			return fmt.Errorf("write chunk %s: %w", id, err)
		}
	}

	master := masterFile{
		Metadata: fileMetadata{
			Version:     graph.FormatVersion,
			GeneratedAt: time.Now(),
			RunID:       runID,
		},
		MasterChunk: output.Master,
	}
	if err := writeJSONAtomic(outDir, MasterFileName, master); err != nil {
		return fmt.Errorf("write master index: %w", err)
	}

	for _, format := range p.cfg.Output.Formats {
		r, err := render.ByName(format)
		if err != nil {
			return err
		}
		payload, err := r.Render(data)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		if err := writeBytesAtomic(outDir, renderFileNames[format], payload); err != nil {
			return fmt.Errorf("write %s render: %w", format, err)
		}
	}

	return nil
}

func removeStaleChunks(outDir string) error {
	stale, err := filepath.Glob(filepath.Join(outDir, chunker.TypeRelationships+"_*.json"))
	if err != nil {
		return err
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove stale chunk %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func writeJSONAtomic(dir, name string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeBytesAtomic(dir, name, payload)
}

// writeBytesAtomic writes through the map directory's .tmp staging area and
// renames into place (POSIX guarantees rename atomicity).
func writeBytesAtomic(dir, name string, payload []byte) error {
	tempPath := filepath.Join(dir, ".tmp", name)
	if err := os.WriteFile(tempPath, payload, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, filepath.Join(dir, name))
}
