package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navgraph/internal/navdata"
)

func ingestOne(t *testing.T, g *Graph, key string) {
	t.Helper()
	lat, lon := centre()
	require.NoError(t, g.IngestTile(&navdata.TilePayload{Images: []navdata.ImageRecord{image(key, "s1", lat, lon, 0)}}, nil))
}

func TestSubscribe_FanOutDoesNotBlock(t *testing.T) {
	quiet(t)
	g := New(newFakeProvider())
	idA, a := g.Subscribe()
	idB, b := g.Subscribe()
	assert.NotEqual(t, idA, idB)

	// Nobody reads while several changes happen.
	for _, k := range []string{"k1", "k2", "k3"} {
		ingestOne(t, g, k)
	}

	for _, ch := range []<-chan *Graph{a, b} {
		select {
		case got := <-ch:
			assert.Same(t, g, got)
		default:
			t.Fatal("expected a pending notification")
		}
		select {
		case <-ch:
			t.Fatal("buffer should hold a single notification")
		default:
		}
	}
}

func TestSubscribe_NoReplay(t *testing.T) {
	quiet(t)
	g := New(newFakeProvider())
	ingestOne(t, g, "k1")

	_, ch := g.Subscribe()
	select {
	case <-ch:
		t.Fatal("late subscriber should not see earlier changes")
	default:
	}
}

func TestUnsubscribeAndClose(t *testing.T) {
	quiet(t)
	g := New(newFakeProvider())
	id, ch := g.Subscribe()
	g.Unsubscribe(id)
	_, ok := <-ch
	assert.False(t, ok)
	g.Unsubscribe(id)

	_, other := g.Subscribe()
	g.Close()
	_, ok = <-other
	assert.False(t, ok)

	_, late := g.Subscribe()
	_, ok = <-late
	assert.False(t, ok)

	// Notifying after Close is harmless.
	ingestOne(t, g, "k1")
}
