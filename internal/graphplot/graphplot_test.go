package graphplot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navgraph/internal/edge"
	"github.com/banshee-data/navgraph/internal/graph"
	"github.com/banshee-data/navgraph/internal/testutil"
	"github.com/banshee-data/navgraph/internal/tiles"
)

// twoNodeGraph returns the two-image fixture with edges cached.
func twoNodeGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(nil)
	loaded := tiles.NewLoadedSet(testutil.HomeTile)
	require.NoError(t, g.IngestTile(testutil.TwoImageTile(), loaded))
	for _, n := range g.Nodes() {
		require.NoError(t, g.CacheNode(n))
	}
	return g
}

func TestNewLayout(t *testing.T) {
	l := NewLayout(twoNodeGraph(t).Nodes())
	require.Len(t, l.Points, 2)
	assert.Equal(t, "a", l.Points[0].Key)
	assert.InDelta(t, 0, l.Points[0].X, 1e-6)
	assert.InDelta(t, 0, l.Points[0].Y, 1e-6)
	assert.InDelta(t, 5.53, l.Points[1].Y, 0.05)
	assert.True(t, l.Points[0].Worthy)
	assert.True(t, l.Points[1].Cached)

	var next *Segment
	for i := range l.Segments {
		if l.Segments[i].Direction == edge.Next {
			next = &l.Segments[i]
		}
	}
	require.NotNil(t, next)
	assert.Equal(t, "a", next.From)
	assert.Equal(t, "b", next.To)
	assert.InDelta(t, l.Points[1].Y, next.Y2, 1e-9)
}

func TestNewLayoutEmpty(t *testing.T) {
	l := NewLayout(nil)
	assert.Empty(t, l.Points)
	assert.Empty(t, l.Segments)
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, NewLayout(twoNodeGraph(t).Nodes()), "test graph"))
	html := buf.String()
	assert.Contains(t, html, "test graph")
	assert.Contains(t, html, "worthy")
	assert.Contains(t, html, "sequence")
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.png")
	require.NoError(t, SavePNG(NewLayout(twoNodeGraph(t).Nodes()), "test graph", path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestFamily(t *testing.T) {
	assert.Equal(t, "sequence", family(edge.Prev))
	assert.Equal(t, "step", family(edge.StepLeft))
	assert.Equal(t, "turn", family(edge.TurnU))
	assert.Equal(t, "pano", family(edge.Pano))
	assert.Equal(t, "similar", family(edge.Similar))
}
