package ports

import (
	"context"

	"github.com/strataudio/strata/pkg/graph"
)

// GraphStore is the repository abstraction for persisted graphs. The core
// engine, simulator and compiler never touch it; only the API layer does.
//
// Implementations must return defensive copies: a graph loaded twice must
// not share mutable storage, so no caller can be surprised by another
// caller's edits mid-compile.
type GraphStore interface {
	// Save persists a graph keyed by its ID, overwriting any previous value.
	Save(ctx context.Context, g graph.StateGraph) error

	// Load retrieves a graph by ID.
	// Returns graph.ErrGraphNotFound if the ID is unknown.
	Load(ctx context.Context, id string) (graph.StateGraph, error)

	// Delete removes a graph by ID. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns every stored graph.
	List(ctx context.Context) ([]graph.StateGraph, error)
}
