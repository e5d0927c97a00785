package api

import (
	"math"

	"github.com/banshee-data/navgraph/internal/edge"
	"github.com/banshee-data/navgraph/internal/graph"
)

type nodeSummary struct {
	Key    string  `json:"key"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Worthy bool    `json:"worthy"`
	Cached bool    `json:"cached"`
}

type nodeJSON struct {
	nodeSummary

	SequenceKey  string    `json:"sequence_key"`
	Alt          float64   `json:"alt"`
	CompassAngle float64   `json:"compass_angle"`
	Rotation     []float64 `json:"rotation"`
	FullPano     bool      `json:"full_pano"`
	Full         bool      `json:"full"`
	Filled       bool      `json:"filled"`
	MergeCC      *int64    `json:"merge_cc,omitempty"`
	CapturedAt   int64     `json:"captured_at,omitempty"`
	UserKey      string    `json:"user_key,omitempty"`
	Coverage     []string  `json:"coverage"`
}

// edgeJSON carries the angles and distance as pointers: sequence edges
// have none and NaN is not representable in JSON.
type edgeJSON struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Direction edge.Direction `json:"direction"`

	Distance                *float64 `json:"distance,omitempty"`
	MotionChange            *float64 `json:"motion_change,omitempty"`
	VerticalMotion          *float64 `json:"vertical_motion,omitempty"`
	DirectionChange         *float64 `json:"direction_change,omitempty"`
	VerticalDirectionChange *float64 `json:"vertical_direction_change,omitempty"`
	Rotation                *float64 `json:"rotation,omitempty"`
	WorldMotionAzimuth      *float64 `json:"world_motion_azimuth,omitempty"`

	SameSequence bool `json:"same_sequence"`
	SameMergeCC  bool `json:"same_merge_cc"`
	FullPano     bool `json:"full_pano"`
}

type edgesResponse struct {
	Key    string     `json:"key"`
	Cached bool       `json:"cached"`
	Edges  []edgeJSON `json:"edges"`
}

type loadResponse struct {
	Requested []string `json:"requested"`
	Loaded    []string `json:"loaded"`
	Nodes     int      `json:"nodes"`
}

func summarize(n *graph.Node) nodeSummary {
	return nodeSummary{
		Key:    n.Key(),
		Lat:    n.Lat(),
		Lon:    n.Lon(),
		Worthy: n.Worthy(),
		Cached: n.EdgesCached(),
	}
}

func describe(n *graph.Node) nodeJSON {
	rot := n.Rotation()
	out := nodeJSON{
		nodeSummary:  summarize(n),
		SequenceKey:  n.SequenceKey(),
		Alt:          n.Alt(),
		CompassAngle: n.CompassAngle(),
		Rotation:     []float64{rot.X, rot.Y, rot.Z},
		FullPano:     n.FullPano(),
		Full:         n.Full(),
		Filled:       n.Filled(),
		CapturedAt:   n.CapturedAt(),
		UserKey:      n.UserKey(),
		Coverage:     n.Coverage(),
	}
	if cc, ok := n.MergeCC(); ok {
		out.MergeCC = &cc
	}
	return out
}

func edgesJSON(edges []edge.Edge) []edgeJSON {
	out := make([]edgeJSON, 0, len(edges))
	for _, e := range edges {
		d := e.Data
		out = append(out, edgeJSON{
			From:                    e.From,
			To:                      e.To,
			Direction:               d.Direction,
			Distance:                finite(d.Distance),
			MotionChange:            finite(d.MotionChange),
			VerticalMotion:          finite(d.VerticalMotion),
			DirectionChange:         finite(d.DirectionChange),
			VerticalDirectionChange: finite(d.VerticalDirectionChange),
			Rotation:                finite(d.Rotation),
			WorldMotionAzimuth:      finite(d.WorldMotionAzimuth),
			SameSequence:            d.SameSequence,
			SameMergeCC:             d.SameMergeCC,
			FullPano:                d.FullPano,
		})
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
