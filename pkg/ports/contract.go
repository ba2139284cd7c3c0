package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/strataudio/strata/pkg/graph"
)

// RunGraphStoreContract exercises the GraphStore behavior every adapter must
// share. Adapter test files call this with a fresh store instance.
func RunGraphStoreContract(t *testing.T, store GraphStore) {
	t.Helper()
	ctx := context.Background()

	g := graph.NewEmptyGraph("contract")
	g, err := g.AddState(graph.AudioState{ID: "s1", Name: "One", IsInitial: true})
	if err != nil {
		t.Fatalf("AddState failed: %v", err)
	}
	g, err = g.AddParameter(graph.Parameter{Name: "energy", Type: graph.ParameterNumber})
	if err != nil {
		t.Fatalf("AddParameter failed: %v", err)
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		if err := store.Save(ctx, g); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		loaded, err := store.Load(ctx, g.ID)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.ID != g.ID || loaded.Name != g.Name {
			t.Errorf("loaded graph mismatch: got %s/%s", loaded.ID, loaded.Name)
		}
		if len(loaded.States) != 1 || loaded.States[0].ID != "s1" {
			t.Errorf("states not persisted: %+v", loaded.States)
		}
	})

	t.Run("LoadReturnsIsolatedCopy", func(t *testing.T) {
		first, err := store.Load(ctx, g.ID)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		first.States[0].Name = "mutated"

		second, err := store.Load(ctx, g.ID)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if second.States[0].Name != "One" {
			t.Error("mutating a loaded graph leaked into the store")
		}
	})

	t.Run("List", func(t *testing.T) {
		graphs, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		found := false
		for _, item := range graphs {
			if item.ID == g.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("List does not contain saved graph %s", g.ID)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, g.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		_, err := store.Load(ctx, g.ID)
		if !errors.Is(err, graph.ErrGraphNotFound) {
			t.Errorf("expected ErrGraphNotFound after delete, got %v", err)
		}
		// Deleting again must not error.
		if err := store.Delete(ctx, g.ID); err != nil {
			t.Errorf("second Delete errored: %v", err)
		}
	})

	t.Run("LoadUnknown", func(t *testing.T) {
		_, err := store.Load(ctx, "no-such-graph")
		if !errors.Is(err, graph.ErrGraphNotFound) {
			t.Errorf("expected ErrGraphNotFound, got %v", err)
		}
	})
}
