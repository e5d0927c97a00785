package tiles

import (
	"sort"
	"sync"
)

// Set reports whether a tile has been loaded.
type Set interface {
	Has(tile string) bool
}

// LoadedSet is a concurrency-safe set of loaded tiles.
type LoadedSet struct {
	mu    sync.RWMutex
	tiles map[string]struct{}
}

func NewLoadedSet(tiles ...string) *LoadedSet {
	s := &LoadedSet{tiles: make(map[string]struct{}, len(tiles))}
	for _, t := range tiles {
		s.tiles[t] = struct{}{}
	}
	return s
}

// Mark records tile as loaded. It reports whether the tile was new.
func (s *LoadedSet) Mark(tile string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tiles[tile]; ok {
		return false
	}
	s.tiles[tile] = struct{}{}
	return true
}

// Remove forgets a tile.
func (s *LoadedSet) Remove(tile string) {
	s.mu.Lock()
	delete(s.tiles, tile)
	s.mu.Unlock()
}

func (s *LoadedSet) Has(tile string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tiles[tile]
	return ok
}

func (s *LoadedSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tiles)
}

// Tiles returns the loaded tiles in sorted order.
func (s *LoadedSet) Tiles() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.tiles))
	for t := range s.tiles {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Ready reports whether every tile in coverage is in set. An empty coverage
// is never ready.
func Ready(set Set, coverage []string) bool {
	if set == nil || len(coverage) == 0 {
		return false
	}
	for _, t := range coverage {
		if !set.Has(t) {
			return false
		}
	}
	return true
}
