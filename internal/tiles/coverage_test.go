package tiles

import (
	"testing"

	"github.com/mmcloughlin/geohash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navgraph/internal/config"
)

const metresPerDegLat = 111320.0

func TestCoverage_CentreIsHomeOnly(t *testing.T) {
	c := DefaultCoverage()
	box := geohash.BoundingBox(c.Home(10.0, 20.0))
	lat, lon := box.Center()

	got := c.Covering(lat, lon, 2)
	assert.Equal(t, []string{c.Home(lat, lon)}, got)
}

func TestCoverage_Edges(t *testing.T) {
	c := DefaultCoverage()
	home := c.Home(10.0, 20.0)
	box := geohash.BoundingBox(home)
	midLat, midLon := box.Center()
	offset := 5 / metresPerDegLat

	cases := []struct {
		name     string
		lat, lon float64
		dir      geohash.Direction
	}{
		{"north", box.MaxLat - offset, midLon, geohash.North},
		{"south", box.MinLat + offset, midLon, geohash.South},
		{"east", midLat, box.MaxLng - offset, geohash.East},
		{"west", midLat, box.MinLng + offset, geohash.West},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Covering(tc.lat, tc.lon, 2)
			assert.Equal(t, []string{home, geohash.Neighbor(home, tc.dir)}, got)
		})
	}
}

func TestCoverage_Corner(t *testing.T) {
	c := DefaultCoverage()
	home := c.Home(10.0, 20.0)
	box := geohash.BoundingBox(home)
	offset := 5 / metresPerDegLat

	got := c.Covering(box.MinLat+offset, box.MinLng+offset, 2)
	want := []string{
		home,
		geohash.Neighbor(home, geohash.South),
		geohash.Neighbor(home, geohash.West),
		geohash.Neighbor(home, geohash.SouthWest),
	}
	assert.Equal(t, want, got)

	got = c.Covering(box.MaxLat-offset, box.MaxLng-offset, 2)
	want = []string{
		home,
		geohash.Neighbor(home, geohash.North),
		geohash.Neighbor(home, geohash.East),
		geohash.Neighbor(home, geohash.NorthEast),
	}
	assert.Equal(t, want, got)
}

func TestCoverage_ThresholdRespected(t *testing.T) {
	c := Coverage{Precision: 7, Threshold: 2}
	home := c.Home(10.0, 20.0)
	box := geohash.BoundingBox(home)
	_, midLon := box.Center()

	// 5 m from the south edge is outside a 2 m threshold.
	got := c.Covering(box.MinLat+5/metresPerDegLat, midLon, 2)
	assert.Equal(t, []string{home}, got)
}

func TestCoverage_Around(t *testing.T) {
	c := DefaultCoverage()
	got := c.Around(10.0, 20.0)
	require.Len(t, got, 9)
	assert.Equal(t, c.Home(10.0, 20.0), got[0])
	assert.Equal(t, geohash.Neighbor(got[0], geohash.North), Neighbor(got[0], geohash.North))
}

func TestCoverageFromConfig(t *testing.T) {
	cfg := config.EmptyNavigationConfig()
	c := CoverageFromConfig(cfg)
	assert.Equal(t, DefaultCoverage(), c)

	p, th := 6, 10.0
	cfg.TilePrecision = &p
	cfg.CoverageThresholdM = &th
	c = CoverageFromConfig(cfg)
	assert.Equal(t, Coverage{Precision: 6, Threshold: 10}, c)
	assert.Len(t, c.Home(10, 20), 6)
}

func TestReady(t *testing.T) {
	s := NewLoadedSet("a", "b")
	assert.True(t, Ready(s, []string{"a"}))
	assert.True(t, Ready(s, []string{"a", "b"}))
	assert.False(t, Ready(s, []string{"a", "c"}))
	assert.False(t, Ready(s, nil))
	assert.False(t, Ready(nil, []string{"a"}))
}

func TestLoadedSet(t *testing.T) {
	s := NewLoadedSet()
	assert.True(t, s.Mark("b"))
	assert.False(t, s.Mark("b"))
	s.Mark("a")
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a", "b"}, s.Tiles())
	s.Remove("a")
	assert.False(t, s.Has("a"))
}
