package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataudio/strata/pkg/adapters/file"
	"github.com/strataudio/strata/pkg/graph"
	"github.com/strataudio/strata/pkg/ports"
)

func TestFileStore_Contract(t *testing.T) {
	store, err := file.NewStore(t.TempDir())
	require.NoError(t, err)
	ports.RunGraphStoreContract(t, store)
}

func TestFileStore_WritesYAMLPerGraph(t *testing.T) {
	dir := t.TempDir()
	store, err := file.NewStore(dir)
	require.NoError(t, err)

	g := graph.NewEmptyGraph("on disk")
	require.NoError(t, store.Save(context.Background(), g))

	data, err := os.ReadFile(filepath.Join(dir, g.ID+".yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: on disk")
}

func TestFileStore_ListSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := file.NewStore(dir)
	require.NoError(t, err)

	g := graph.NewEmptyGraph("good")
	require.NoError(t, store.Save(context.Background(), g))

	// A hand-edited file that no longer parses must not break listing.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("{not yaml"), 0o644))

	graphs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	assert.Equal(t, g.ID, graphs[0].ID)
}

func TestFileStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "graphs")
	_, err := file.NewStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
