package memory

import (
	"context"
	"sync"

	"github.com/strataudio/strata/pkg/graph"
)

// Store implements ports.GraphStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]graph.StateGraph
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]graph.StateGraph),
	}
}

// Save persists the graph in memory.
func (s *Store) Save(ctx context.Context, g graph.StateGraph) error {
	// Deep copy so later edits to the caller's graph don't leak in.
	copied := g.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[g.ID] = copied
	return nil
}

// Load retrieves a graph by ID.
func (s *Store) Load(ctx context.Context, id string) (graph.StateGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.data[id]
	if !ok {
		return graph.StateGraph{}, graph.ErrGraphNotFound
	}

	// Copy on read so the caller can't mutate stored slices.
	return g.Clone(), nil
}

// Delete removes the graph. Unknown IDs are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns every stored graph.
func (s *Store) List(ctx context.Context) ([]graph.StateGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graphs := make([]graph.StateGraph, 0, len(s.data))
	for _, g := range s.data {
		graphs = append(graphs, g.Clone())
	}
	return graphs, nil
}
