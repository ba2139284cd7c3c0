package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/strataudio/strata/pkg/adapters/memory"
	"github.com/strataudio/strata/pkg/graph"
	"github.com/strataudio/strata/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunGraphStoreContract(t, memory.NewStore())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	g := graph.NewEmptyGraph("shared")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Save(ctx, g)
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Load(ctx, g.ID)
			_, _ = store.List(ctx)
		}()
	}
	wg.Wait()

	loaded, err := store.Load(ctx, g.ID)
	if err != nil {
		t.Fatalf("Load failed after concurrent access: %v", err)
	}
	if loaded.ID != g.ID {
		t.Errorf("got graph %s, want %s", loaded.ID, g.ID)
	}
}
