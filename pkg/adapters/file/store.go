// Package file persists graphs as YAML documents in a directory, one file
// per graph. It backs local project workflows where graphs live next to the
// audio assets and are edited by hand between runs.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/strataudio/strata/pkg/graph"
)

// Store implements ports.GraphStore on a directory of YAML files.
// Safe for concurrent use within one process; it does not guard against
// other processes writing the same directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates the directory if needed and returns a store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create graph directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".yaml")
}

// Save writes the graph to <dir>/<id>.yaml via a temp-file rename so a
// crash mid-write never leaves a truncated document.
func (s *Store) Save(ctx context.Context, g graph.StateGraph) error {
	data, err := graph.MarshalYAML(g)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, g.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(g.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace graph file: %w", err)
	}
	return nil
}

// Load reads and validates <dir>/<id>.yaml.
func (s *Store) Load(ctx context.Context, id string) (graph.StateGraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return graph.StateGraph{}, graph.ErrGraphNotFound
		}
		return graph.StateGraph{}, fmt.Errorf("failed to read graph file: %w", err)
	}
	return graph.UnmarshalYAML(data)
}

// Delete removes the graph file. Unknown IDs are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete graph file: %w", err)
	}
	return nil
}

// List loads every .yaml file in the directory. Files that fail to parse
// are skipped rather than failing the whole listing; a broken hand-edited
// file should not take the project down.
func (s *Store) List(ctx context.Context) ([]graph.StateGraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph directory: %w", err)
	}

	var graphs []graph.StateGraph
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		g, err := graph.UnmarshalYAML(data)
		if err != nil {
			continue
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}
