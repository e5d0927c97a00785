package tilestore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mmcloughlin/geohash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navgraph/internal/monitoring"
	"github.com/banshee-data/navgraph/internal/navdata"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(t.Logf) })

	s, err := Open(filepath.Join(t.TempDir(), "tiles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

func samplePayload() *navdata.TilePayload {
	return &navdata.TilePayload{
		Sequences: []navdata.SequenceRecord{{Key: "s1", Keys: []string{"a", "b"}}},
		Images: []navdata.ImageRecord{
			{Key: "a", SequenceKey: "s1", Lat: 10.0, Lon: 20.0, CompassAngle: 45,
				CorrectedCompassAngle: ptr(50.0), Altitude: ptr(3.5), Orientation: 6,
				CapturedAt: 1234, UserKey: "u1", MergeCC: ptr(int64(7)), MergeVersion: 2},
			{Key: "b", SequenceKey: "s1", Lat: 10.00001, Lon: 20.00001, FullPano: true},
			{Key: "far", Lat: -33.9, Lon: 151.2},
			{Key: ""},
		},
	}
}

func TestMigrations(t *testing.T) {
	s := openTestStore(t)
	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Re-running is a no-op.
	require.NoError(t, s.MigrateUp())

	require.NoError(t, s.MigrateDown())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, s.MigrateUp())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestImportAndServeTile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.ImportTilePayload(ctx, samplePayload())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	tile := geohash.EncodeWithPrecision(10.0, 20.0, 7)
	p, err := s.ImageTileByGeohash(ctx, tile)
	require.NoError(t, err)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "a", p.Images[0].Key)
	assert.Equal(t, "b", p.Images[1].Key)
	assert.Equal(t, []navdata.SequenceRecord{{Key: "s1", Keys: []string{"a", "b"}}}, p.Sequences)

	a := p.Images[0]
	assert.Equal(t, 50.0, a.EffectiveCompassAngle())
	require.NotNil(t, a.Altitude)
	assert.Equal(t, 3.5, *a.Altitude)
	assert.Equal(t, 6, a.Orientation)
	assert.Equal(t, int64(1234), a.CapturedAt)
	assert.Equal(t, "u1", a.UserKey)
	require.NotNil(t, a.MergeCC)
	assert.Equal(t, int64(7), *a.MergeCC)
	assert.Nil(t, a.CorrectedLat)
	assert.True(t, p.Images[1].FullPano)
	assert.Equal(t, 1, p.Images[1].Orientation)

	// Any coarser precision is served by prefix.
	coarse, err := s.ImageTileByGeohash(ctx, tile[:5])
	require.NoError(t, err)
	assert.Len(t, coarse.Images, 2)

	empty, err := s.ImageTileByGeohash(ctx, "zzzzzzz")
	require.NoError(t, err)
	assert.Empty(t, empty.Images)

	_, err = s.ImageTileByGeohash(ctx, "not-a-tile!")
	assert.ErrorIs(t, err, ErrInvalidTile)
}

func TestImportIsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.ImportTilePayload(ctx, samplePayload())
	require.NoError(t, err)

	_, err = s.ImportTilePayload(ctx, &navdata.TilePayload{Images: []navdata.ImageRecord{
		{Key: "far", Lat: -33.9, Lon: 151.2, CompassAngle: 90},
	}})
	require.NoError(t, err)

	r, err := s.Image(ctx, "far")
	require.NoError(t, err)
	assert.Equal(t, 90.0, r.CompassAngle)

	_, err = s.Image(ctx, "missing")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestImageByKeyFullAndFill(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.ImportTilePayload(ctx, samplePayload())
	require.NoError(t, err)
	require.NoError(t, s.ImportFill(ctx, []navdata.FillRecord{
		{Key: "a", Width: 4000, Height: 3000, CameraProjection: "perspective", Focal: 0.8,
			ComputedRotation: []float64{0.1, 0.2, 0.3}, ComputedAltitude: ptr(4.25), ClusterKey: "c1"},
		{Key: "b", Width: 2000},
	}))

	full, err := s.ImageByKeyFull(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	require.Len(t, full.Images, 1)
	assert.Equal(t, "a", full.Images[0].Key)
	assert.Len(t, full.Sequences, 1)

	fill, err := s.ImageByKeyFill(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, fill.Images, 2)
	fa, ok := fill.FindImage("a")
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, fa.ComputedRotation)
	require.NotNil(t, fa.ComputedAltitude)
	assert.Equal(t, 4.25, *fa.ComputedAltitude)
	assert.Equal(t, "perspective", fa.CameraProjection)
	fb, _ := fill.FindImage("b")
	assert.Nil(t, fb.ComputedRotation)
	assert.Nil(t, fb.AtomicScale)

	none, err := s.ImageByKeyFill(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none.Images)
}

func TestTiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.ImportTilePayload(ctx, samplePayload())
	require.NoError(t, err)

	got, err := s.Tiles(ctx, 7)
	require.NoError(t, err)
	want := []string{
		geohash.EncodeWithPrecision(10.0, 20.0, 7),
		geohash.EncodeWithPrecision(-33.9, 151.2, 7),
	}
	assert.ElementsMatch(t, want, got)

	_, err = s.Tiles(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidTile)
}

func TestAttachAdminRoutes(t *testing.T) {
	s := openTestStore(t)
	mux := http.NewServeMux()
	require.NoError(t, s.AttachAdminRoutes(mux))

	_, pattern := mux.Handler(httptest.NewRequest("GET", "/debug/tailsql/", nil))
	assert.Equal(t, "/debug/tailsql/", pattern)
}
