package tiles

import (
	"github.com/mmcloughlin/geohash"

	"github.com/banshee-data/navgraph/internal/config"
	"github.com/banshee-data/navgraph/internal/geometry"
)

const (
	DefaultPrecision uint    = 7
	DefaultThreshold float64 = 20 // metres
)

// Coverage computes tile identifiers for positions.
type Coverage struct {
	Precision uint
	// Threshold is the distance in metres to a tile boundary below which
	// the neighbouring tile across that boundary also covers the position.
	Threshold float64
}

// DefaultCoverage returns precision 7 tiles with a 20 m threshold.
func DefaultCoverage() Coverage {
	return Coverage{Precision: DefaultPrecision, Threshold: DefaultThreshold}
}

// CoverageFromConfig builds a Coverage from the tuning config.
func CoverageFromConfig(cfg *config.NavigationConfig) Coverage {
	return Coverage{
		Precision: uint(cfg.GetTilePrecision()),
		Threshold: cfg.GetCoverageThresholdM(),
	}
}

// Home returns the tile that contains the position.
func (c Coverage) Home(lat, lon float64) string {
	return geohash.EncodeWithPrecision(lat, lon, c.Precision)
}

// Covering returns the home tile followed by every neighbour whose shared
// boundary lies within Threshold of the position. Neighbours are appended in
// the order N, E, S, W, NE, SE, SW, NW; a diagonal is only included when
// both of its edge neighbours are.
func (c Coverage) Covering(lat, lon, alt float64) []string {
	home := c.Home(lat, lon)
	box := geohash.BoundingBox(home)

	north := geometry.GeodeticToENU(box.MaxLat, lon, alt, lat, lon, alt).Y
	south := -geometry.GeodeticToENU(box.MinLat, lon, alt, lat, lon, alt).Y
	east := geometry.GeodeticToENU(lat, box.MaxLng, alt, lat, lon, alt).X
	west := -geometry.GeodeticToENU(lat, box.MinLng, alt, lat, lon, alt).X

	n, s := north < c.Threshold, south < c.Threshold
	e, w := east < c.Threshold, west < c.Threshold

	out := []string{home}
	add := func(ok bool, dir geohash.Direction) {
		if ok {
			out = append(out, geohash.Neighbor(home, dir))
		}
	}
	add(n, geohash.North)
	add(e, geohash.East)
	add(s, geohash.South)
	add(w, geohash.West)
	add(n && e, geohash.NorthEast)
	add(s && e, geohash.SouthEast)
	add(s && w, geohash.SouthWest)
	add(n && w, geohash.NorthWest)
	return out
}

// Neighbor returns the adjacent tile in the given compass direction.
func Neighbor(tile string, dir geohash.Direction) string {
	return geohash.Neighbor(tile, dir)
}

// Around returns the home tile of the position followed by its eight
// neighbours. It is the tile set a viewer requests when it moves to a new
// position.
func (c Coverage) Around(lat, lon float64) []string {
	home := c.Home(lat, lon)
	return append([]string{home}, geohash.Neighbors(home)...)
}
