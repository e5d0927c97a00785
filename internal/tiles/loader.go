package tiles

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/navgraph/internal/metrics"
	"github.com/banshee-data/navgraph/internal/monitoring"
	"github.com/banshee-data/navgraph/internal/navdata"
)

// TileSource serves tile payloads. navdata.Provider satisfies it.
type TileSource interface {
	ImageTileByGeohash(ctx context.Context, tile string) (*navdata.TilePayload, error)
}

// Ingester consumes tile payloads. graph.Graph satisfies it.
type Ingester interface {
	IngestTile(payload *navdata.TilePayload, loaded Set) error
}

// DefaultConcurrency bounds the number of tile requests in flight.
const DefaultConcurrency = 4

// Loader fetches tiles from a source and hands them to an ingester. Requests
// run concurrently; ingestion is serialised so the ingester sees one tile at
// a time.
type Loader struct {
	source   TileSource
	ingester Ingester
	loaded   *LoadedSet
	limit    int

	mu       sync.Mutex // guards inflight
	inflight map[string]struct{}
	ingestMu sync.Mutex
}

// NewLoader returns a Loader. A nil loaded set is replaced with an empty one
// and a non-positive limit with DefaultConcurrency.
func NewLoader(source TileSource, ingester Ingester, loaded *LoadedSet, limit int) *Loader {
	if loaded == nil {
		loaded = NewLoadedSet()
	}
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Loader{
		source:   source,
		ingester: ingester,
		loaded:   loaded,
		limit:    limit,
		inflight: make(map[string]struct{}),
	}
}

// Loaded returns the set of tiles this loader has marked.
func (l *Loader) Loaded() *LoadedSet { return l.loaded }

// Load requests every tile that is neither loaded nor already in flight.
// Every tile is attempted even when some fail; the returned error joins
// all failures.
func (l *Loader) Load(ctx context.Context, tiles []string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(l.limit)
	for _, tile := range tiles {
		if !l.claim(tile) {
			monitoring.Debugf("tiles: skip %s (loaded or in flight)", tile)
			continue
		}
		g.Go(func() error {
			defer l.release(tile)
			if err := l.loadOne(ctx, tile); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (l *Loader) claim(tile string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded.Has(tile) {
		return false
	}
	if _, ok := l.inflight[tile]; ok {
		return false
	}
	l.inflight[tile] = struct{}{}
	return true
}

func (l *Loader) release(tile string) {
	l.mu.Lock()
	delete(l.inflight, tile)
	l.mu.Unlock()
}

func (l *Loader) loadOne(ctx context.Context, tile string) error {
	start := time.Now()
	payload, err := l.source.ImageTileByGeohash(ctx, tile)
	if err != nil {
		metrics.TileLoadFailuresTotal.Inc()
		monitoring.Logf("tiles: failed to load %s: %v", tile, err)
		return fmt.Errorf("load tile %s: %w", tile, err)
	}

	l.ingestMu.Lock()
	defer l.ingestMu.Unlock()
	// The tile counts as loaded while its own nodes are ingested so they
	// can be promoted in the same pass.
	l.loaded.Mark(tile)
	if err := l.ingester.IngestTile(payload, l.loaded); err != nil {
		l.loaded.Remove(tile)
		monitoring.Logf("tiles: failed to ingest %s: %v", tile, err)
		return fmt.Errorf("ingest tile %s: %w", tile, err)
	}
	metrics.TilesLoadedTotal.Inc()
	metrics.TileLoadDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	monitoring.Debugf("tiles: loaded %s (%d images, %d sequences) in %v",
		tile, len(payload.Images), len(payload.Sequences), time.Since(start))
	return nil
}
