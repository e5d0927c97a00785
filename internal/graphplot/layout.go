// Package graphplot renders a graph snapshot for debugging: an interactive
// go-echarts scatter served over HTTP and a gonum/plot PNG for offline use.
// Positions are local east/north metres relative to the first node by key.
package graphplot

import (
	"github.com/banshee-data/navgraph/internal/edge"
	"github.com/banshee-data/navgraph/internal/geometry"
	"github.com/banshee-data/navgraph/internal/graph"
)

// Point is one node in local metres.
type Point struct {
	Key    string
	X, Y   float64
	Worthy bool
	Cached bool
}

// Segment is one cached edge whose endpoints are both in the layout.
type Segment struct {
	From, To  string
	Direction edge.Direction
	X1, Y1    float64
	X2, Y2    float64
}

// Layout is a projected snapshot of nodes and edges.
type Layout struct {
	OriginLat, OriginLon float64
	Points               []Point
	Segments             []Segment
}

// NewLayout projects nodes (expected sorted by key, as graph.Nodes returns
// them) into the local tangent plane of the first node.
func NewLayout(nodes []*graph.Node) *Layout {
	l := &Layout{}
	if len(nodes) == 0 {
		return l
	}
	lat0, lon0, alt0 := nodes[0].LatLonAlt()
	l.OriginLat, l.OriginLon = lat0, lon0

	pos := make(map[string]int, len(nodes))
	for _, n := range nodes {
		lat, lon, alt := n.LatLonAlt()
		enu := geometry.GeodeticToENU(lat, lon, alt, lat0, lon0, alt0)
		pos[n.Key()] = len(l.Points)
		l.Points = append(l.Points, Point{
			Key:    n.Key(),
			X:      enu.X,
			Y:      enu.Y,
			Worthy: n.Worthy(),
			Cached: n.EdgesCached(),
		})
	}
	for _, n := range nodes {
		from := l.Points[pos[n.Key()]]
		for _, e := range n.Edges() {
			i, ok := pos[e.To]
			if !ok {
				continue
			}
			to := l.Points[i]
			l.Segments = append(l.Segments, Segment{
				From: e.From, To: e.To, Direction: e.Data.Direction,
				X1: from.X, Y1: from.Y, X2: to.X, Y2: to.Y,
			})
		}
	}
	return l
}

// family groups directions for colouring.
func family(d edge.Direction) string {
	switch d {
	case edge.Next, edge.Prev:
		return "sequence"
	case edge.StepForward, edge.StepBackward, edge.StepLeft, edge.StepRight:
		return "step"
	case edge.TurnLeft, edge.TurnRight, edge.TurnU:
		return "turn"
	case edge.Pano:
		return "pano"
	default:
		return "similar"
	}
}

var families = []string{"sequence", "step", "turn", "pano", "similar"}
