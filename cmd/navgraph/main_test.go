package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navgraph/internal/graph"
	"github.com/banshee-data/navgraph/internal/monitoring"
	"github.com/banshee-data/navgraph/internal/testutil"
	"github.com/banshee-data/navgraph/internal/tiles"
	"github.com/banshee-data/navgraph/internal/tilestore"
)

func TestFlagDefaults(t *testing.T) {
	assert.Equal(t, ":8080", *listen)
	assert.Equal(t, "navgraph.db", *dbPath)
	assert.Empty(t, *upstream)
	assert.False(t, *debugMode)
}

func TestParseLatLon(t *testing.T) {
	lat, lon, err := parseLatLon(" 10.5, -20.25 ")
	require.NoError(t, err)
	assert.Equal(t, 10.5, lat)
	assert.Equal(t, -20.25, lon)

	for _, bad := range []string{"", "10", "a,b", "91,0", "0,181", "1,2,3"} {
		_, _, err := parseLatLon(bad)
		assert.Error(t, err, bad)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a.json", "b.json"}, splitList("a.json, ,b.json"))
	assert.Nil(t, splitList(""))
}

func TestLoadConfigDefaultsWhenEmpty(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, tiles.DefaultConcurrency, cfg.GetLoaderConcurrency())

	_, err = loadConfig("navigation.yaml")
	assert.Error(t, err)
}

const fillJSON = `{"images": [{"key": "a", "width": 640, "height": 480}]}`

func TestImportAndPlot(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(nil)

	dir := t.TempDir()
	tilePath := testutil.WriteTileFile(t, testutil.TwoImageTile())
	fillPath := filepath.Join(dir, "fill.json")
	require.NoError(t, os.WriteFile(fillPath, []byte(fillJSON), 0o644))

	store, err := tilestore.Open(filepath.Join(dir, "navgraph.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, importIntoStore(ctx, store, []string{tilePath}, fillPath))
	fill, err := store.ImageByKeyFill(ctx, []string{"a"})
	require.NoError(t, err)
	require.Len(t, fill.Images, 1)
	assert.Equal(t, 640, fill.Images[0].Width)

	g := graph.New(store)
	loader := tiles.NewLoader(store, g, nil, 2)
	require.NoError(t, loader.Load(ctx, g.Coverage().Around(10, 20)))
	assert.Equal(t, 2, g.NodeCount())

	plot := filepath.Join(dir, "graph.png")
	require.NoError(t, writePlot(g, plot))
	info, err := os.Stat(plot)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	n, ok := g.GetNode("a")
	require.True(t, ok)
	assert.True(t, n.EdgesCached())
}

func TestImportMissingFile(t *testing.T) {
	store, err := tilestore.Open(filepath.Join(t.TempDir(), "navgraph.db"))
	require.NoError(t, err)
	defer store.Close()
	assert.Error(t, importIntoStore(context.Background(), store, []string{"/does/not/exist.json"}, ""))
}
