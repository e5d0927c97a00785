// Package spatial provides the 2-D range index used to find edge candidates
// around a node.
//
// Entries are (lat, lon) points tagged with a node key. The index is backed
// by a gonum kd-tree that is rebuilt balanced on the first query after a
// batch of inserts, so tile ingestion costs O(1) per node and queries stay
// logarithmic however the photos were ordered.
package spatial

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Item is a key positioned at (Lat, Lon) in degrees.
type Item struct {
	Lat float64
	Lon float64
	Key string
}

// Compare satisfies kdtree.Comparable. Dimension 0 is latitude, 1 longitude.
func (p Item) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Item)
	if d == 0 {
		return p.Lat - q.Lat
	}
	return p.Lon - q.Lon
}

// Dims satisfies kdtree.Comparable.
func (p Item) Dims() int { return 2 }

// Distance satisfies kdtree.Comparable with the squared planar distance in
// degrees. It is only used for ordering.
func (p Item) Distance(c kdtree.Comparable) float64 {
	q := c.(Item)
	dLat, dLon := p.Lat-q.Lat, p.Lon-q.Lon
	return dLat*dLat + dLon*dLon
}

// items implements kdtree.Interface.
type items []Item

func (s items) Index(i int) kdtree.Comparable         { return s[i] }
func (s items) Len() int                              { return len(s) }
func (s items) Slice(start, end int) kdtree.Interface { return s[start:end] }

// Pivot sorts along d and splits at the median, which satisfies the
// partition contract kdtree.New relies on.
func (s items) Pivot(d kdtree.Dim) int {
	sort.Slice(s, func(i, j int) bool {
		if d == 0 {
			return s[i].Lat < s[j].Lat
		}
		return s[i].Lon < s[j].Lon
	})
	return len(s) / 2
}

const boundsPad = 1e-9

// Index is a concurrency-safe (lat, lon) range index.
type Index struct {
	mu    sync.Mutex
	all   items
	tree  *kdtree.Tree
	dirty bool
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Insert adds an item. Keys are not deduplicated; callers insert each key
// once.
func (x *Index) Insert(it Item) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.all = append(x.all, it)
	x.dirty = true
}

// Len returns the number of items in the index.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.all)
}

// Search returns every item inside the closed box [minLat, maxLat] x
// [minLon, maxLon], ordered by key.
func (x *Index) Search(minLat, minLon, maxLat, maxLon float64) []Item {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(x.all) == 0 {
		return nil
	}
	if x.dirty || x.tree == nil {
		// kdtree.New reorders its input, so build over a copy.
		x.tree = kdtree.New(append(items(nil), x.all...), false)
		x.dirty = false
	}

	// Traverse a slightly padded box so points lying exactly on a split
	// plane are never pruned, then apply the exact closed-box test.
	bounds := &kdtree.Bounding{
		Min: Item{Lat: minLat - boundsPad, Lon: minLon - boundsPad},
		Max: Item{Lat: maxLat + boundsPad, Lon: maxLon + boundsPad},
	}
	var out []Item
	x.tree.DoBounded(bounds, func(c kdtree.Comparable, _ *kdtree.Bounding, _ int) bool {
		it := c.(Item)
		if it.Lat >= minLat && it.Lat <= maxLat && it.Lon >= minLon && it.Lon <= maxLon {
			out = append(out, it)
		}
		return false
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// SearchAround returns the items inside the square of side size degrees
// centred on (lat, lon).
func (x *Index) SearchAround(lat, lon, size float64) []Item {
	half := size / 2
	return x.Search(lat-half, lon-half, lat+half, lon+half)
}
