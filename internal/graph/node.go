package graph

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/navgraph/internal/edge"
	"github.com/banshee-data/navgraph/internal/geometry"
	"github.com/banshee-data/navgraph/internal/navdata"
)

// DefaultAltitude is used when a record carries no altitude, in metres.
const DefaultAltitude = 2.0

// Node is one photo in the graph. Identity and position are fixed at
// creation; altitude and rotation may be refined once by a fill.
type Node struct {
	key          string
	sequenceKey  string
	lat, lon     float64
	compassAngle float64
	orientation  int
	capturedAt   int64
	userKey      string
	mergeCC      *int64
	mergeVersion int
	fullPano     bool
	coverage     []string

	mu       sync.RWMutex
	alt      float64
	rotation r3.Vec
	full     bool
	filled   bool
	worthy   bool
	fill     *navdata.FillRecord
	edges    []edge.Edge
	cached   bool
}

var _ edge.Candidate = (*Node)(nil)

// newNode builds a node from a core record. Corrected position and compass
// values take precedence over the raw ones.
func newNode(rec *navdata.ImageRecord, sequenceKey string, defaultAlt float64) (*Node, error) {
	if rec == nil || rec.Key == "" {
		return nil, fmt.Errorf("%w: missing key", ErrMalformedRecord)
	}
	lat, lon := rec.EffectiveLatLon()
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: %s position %f,%f out of range", ErrMalformedRecord, rec.Key, lat, lon)
	}
	alt := defaultAlt
	if rec.Altitude != nil {
		alt = *rec.Altitude
	}
	if sequenceKey == "" {
		sequenceKey = rec.SequenceKey
	}

	n := &Node{
		key:          rec.Key,
		sequenceKey:  sequenceKey,
		lat:          lat,
		lon:          lon,
		compassAngle: rec.EffectiveCompassAngle(),
		orientation:  rec.Orientation,
		capturedAt:   rec.CapturedAt,
		userKey:      rec.UserKey,
		mergeVersion: rec.MergeVersion,
		fullPano:     rec.FullPano,
		alt:          alt,
		full:         true,
	}
	if rec.MergeCC != nil {
		v := *rec.MergeCC
		n.mergeCC = &v
	}
	n.rotation = geometry.RotationFromCompass(n.compassAngle, n.orientation)
	return n, nil
}

func (n *Node) Key() string            { return n.key }
func (n *Node) SequenceKey() string    { return n.sequenceKey }
func (n *Node) Lat() float64           { return n.lat }
func (n *Node) Lon() float64           { return n.lon }
func (n *Node) CompassAngle() float64  { return n.compassAngle }
func (n *Node) Orientation() int       { return n.orientation }
func (n *Node) CapturedAt() int64      { return n.capturedAt }
func (n *Node) UserKey() string        { return n.userKey }
func (n *Node) MergeVersion() int      { return n.mergeVersion }
func (n *Node) FullPano() bool         { return n.fullPano }
func (n *Node) Coverage() []string     { return append([]string(nil), n.coverage...) }
func (n *Node) MergeCC() (int64, bool) { return derefInt64(n.mergeCC) }

func derefInt64(p *int64) (int64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func (n *Node) Alt() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.alt
}

func (n *Node) LatLonAlt() (float64, float64, float64) {
	return n.lat, n.lon, n.Alt()
}

func (n *Node) Rotation() r3.Vec {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.rotation
}

// Full reports whether the node's core record has been received.
func (n *Node) Full() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.full
}

func (n *Node) Filled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.filled
}

// Worthy reports whether every covering tile has loaded.
func (n *Node) Worthy() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.worthy
}

// FillDetail returns a copy of the supplemental record, or nil before fill.
func (n *Node) FillDetail() *navdata.FillRecord {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.fill == nil {
		return nil
	}
	f := *n.fill
	f.ComputedRotation = append([]float64(nil), n.fill.ComputedRotation...)
	return &f
}

// Edges returns a copy of the cached outgoing edges. It is empty until the
// edges have been computed.
func (n *Node) Edges() []edge.Edge {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]edge.Edge(nil), n.edges...)
}

// EdgesCached reports whether edges have been computed at least once.
func (n *Node) EdgesCached() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cached
}

func (n *Node) setWorthy() {
	n.mu.Lock()
	n.worthy = true
	n.mu.Unlock()
}

func (n *Node) setEdges(edges []edge.Edge) {
	n.mu.Lock()
	n.edges = edges
	n.cached = true
	n.mu.Unlock()
}

// applyFill stores the supplemental record once. Computed altitude and
// rotation replace the values derived from the core record.
func (n *Node) applyFill(rec *navdata.FillRecord) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.filled {
		return false
	}
	f := *rec
	f.ComputedRotation = append([]float64(nil), rec.ComputedRotation...)
	n.fill = &f
	n.filled = true
	if rec.ComputedAltitude != nil {
		n.alt = *rec.ComputedAltitude
	}
	if len(rec.ComputedRotation) == 3 {
		n.rotation = r3.Vec{X: rec.ComputedRotation[0], Y: rec.ComputedRotation[1], Z: rec.ComputedRotation[2]}
	}
	return true
}
