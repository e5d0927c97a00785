package spatial

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Key
	}
	return out
}

func TestIndex_Empty(t *testing.T) {
	x := NewIndex()
	assert.Empty(t, x.Search(-90, -180, 90, 180))
	assert.Equal(t, 0, x.Len())
}

func TestIndex_SearchBox(t *testing.T) {
	x := NewIndex()
	x.Insert(Item{Lat: 10.0000, Lon: 20.0000, Key: "center"})
	x.Insert(Item{Lat: 10.0004, Lon: 20.0004, Key: "inside"})
	x.Insert(Item{Lat: 10.0006, Lon: 20.0000, Key: "north-out"})
	x.Insert(Item{Lat: 10.0000, Lon: 19.9990, Key: "west-out"})
	x.Insert(Item{Lat: 10.00049, Lon: 19.99951, Key: "corner"})

	got := x.SearchAround(10, 20, 0.001)
	assert.Equal(t, []string{"center", "corner", "inside"}, keys(got))
}

func TestIndex_BoundaryInclusive(t *testing.T) {
	x := NewIndex()
	// Many items sharing a coordinate exercise equal values on both sides of
	// a split plane.
	for i := 0; i < 32; i++ {
		x.Insert(Item{Lat: 1, Lon: float64(i%4) * 0.5, Key: fmt.Sprintf("k%02d", i)})
	}
	got := x.Search(1, 0.5, 1, 0.5)
	assert.Len(t, got, 8)
	for _, it := range got {
		assert.Equal(t, 0.5, it.Lon)
	}
}

func TestIndex_InsertAfterQueryRebuilds(t *testing.T) {
	x := NewIndex()
	x.Insert(Item{Lat: 0, Lon: 0, Key: "a"})
	require.Len(t, x.SearchAround(0, 0, 1), 1)

	x.Insert(Item{Lat: 0.1, Lon: 0.1, Key: "b"})
	assert.Equal(t, []string{"a", "b"}, keys(x.SearchAround(0, 0, 1)))
}

func TestIndex_LargeSequentialInsertMatchesBruteForce(t *testing.T) {
	x := NewIndex()
	var all []Item
	for i := 0; i < 2000; i++ {
		it := Item{Lat: 40 + float64(i)*1e-5, Lon: -3 + float64(i%37)*1e-4, Key: fmt.Sprintf("n%04d", i)}
		all = append(all, it)
		x.Insert(it)
	}
	minLat, minLon, maxLat, maxLon := 40.005, -2.999, 40.01, -2.998
	var want []string
	for _, it := range all {
		if it.Lat >= minLat && it.Lat <= maxLat && it.Lon >= minLon && it.Lon <= maxLon {
			want = append(want, it.Key)
		}
	}
	assert.Equal(t, want, keys(x.Search(minLat, minLon, maxLat, maxLon)))
}

func TestIndex_ConcurrentInsert(t *testing.T) {
	x := NewIndex()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				x.Insert(Item{Lat: float64(w), Lon: float64(i) * 1e-3, Key: fmt.Sprintf("%d-%d", w, i)})
				if i%25 == 0 {
					x.SearchAround(float64(w), 0, 1)
				}
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 800, x.Len())
}
