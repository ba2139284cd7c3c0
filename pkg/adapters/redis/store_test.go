package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/strataudio/strata/pkg/adapters/redis"
	"github.com/strataudio/strata/pkg/graph"
	"github.com/strataudio/strata/pkg/ports"
)

func TestRedisStore_Contract(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client)
	ports.RunGraphStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	g := graph.NewEmptyGraph("short-lived")
	err = store.Save(ctx, g)
	assert.NoError(t, err)

	graphs, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, graphs, 1)

	// Expire the key inside miniredis.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, g.ID)
	assert.ErrorIs(t, err, graph.ErrGraphNotFound)

	// Lazy index pruning keys off time.Now, so wait out the real TTL
	// before asserting the index is clean.
	time.Sleep(1200 * time.Millisecond)

	graphs, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, graphs)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	g := graph.NewEmptyGraph("prefixed")
	err = store.Save(ctx, g)
	assert.NoError(t, err)

	exists := mr.Exists("custom:app:" + g.ID)
	assert.True(t, exists, "Expected key with custom prefix to exist")

	existsIndex := mr.Exists("custom:app:index")
	assert.True(t, existsIndex, "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, g.ID, list[0].ID)
}
