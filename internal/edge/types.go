package edge

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrNodeNotFull      = errors.New("node has to be full")
	ErrSequenceMismatch = errors.New("node and sequence keys differ")
)

// Direction tags an edge with the navigation action it represents.
type Direction int

const (
	Next Direction = iota
	Prev
	StepForward
	StepBackward
	StepLeft
	StepRight
	TurnLeft
	TurnRight
	TurnU
	Pano
	Similar
)

var directionNames = [...]string{
	Next:         "Next",
	Prev:         "Prev",
	StepForward:  "StepForward",
	StepBackward: "StepBackward",
	StepLeft:     "StepLeft",
	StepRight:    "StepRight",
	TurnLeft:     "TurnLeft",
	TurnRight:    "TurnRight",
	TurnU:        "TurnU",
	Pano:         "Pano",
	Similar:      "Similar",
}

// Directions lists every direction in declaration order.
func Directions() []Direction {
	out := make([]Direction, len(directionNames))
	for i := range directionNames {
		out[i] = Direction(i)
	}
	return out
}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection accepts the names produced by String.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// EdgeData carries the direction and the features of the potential edge
// it was chosen from. WorldMotionAzimuth is measured in the world frame
// from east towards north. Sequence edges are not chosen from features:
// their angles and distance are NaN and only SameSequence is set.
type EdgeData struct {
	Direction Direction

	Distance                float64
	MotionChange            float64
	VerticalMotion          float64
	DirectionChange         float64
	VerticalDirectionChange float64
	Rotation                float64
	WorldMotionAzimuth      float64

	SameSequence bool
	SameMergeCC  bool
	FullPano     bool
}

func sequenceEdgeData(dir Direction) EdgeData {
	nan := math.NaN()
	return EdgeData{
		Direction:               dir,
		Distance:                nan,
		MotionChange:            nan,
		VerticalMotion:          nan,
		DirectionChange:         nan,
		VerticalDirectionChange: nan,
		Rotation:                nan,
		WorldMotionAzimuth:      nan,
		SameSequence:            true,
	}
}

// Edge is a directed navigation link between two node keys.
type Edge struct {
	From string
	To   string
	Data EdgeData
}

// HasAzimuth reports whether WorldMotionAzimuth is meaningful.
func (e Edge) HasAzimuth() bool { return !math.IsNaN(e.Data.WorldMotionAzimuth) }

// PotentialEdge is the unclassified feature set between the evaluated node
// and one candidate. Angles are in radians, distances in metres.
type PotentialEdge struct {
	Key         string
	SequenceKey string

	Distance                float64
	MotionChange            float64
	VerticalMotion          float64
	DirectionChange         float64
	VerticalDirectionChange float64
	Rotation                float64
	WorldMotionAzimuth      float64

	SameSequence bool
	SameMergeCC  bool
	SameUser     bool
	FullPano     bool
	CapturedAt   int64
}

// Candidate is the node view the calculator reads.
type Candidate interface {
	Key() string
	SequenceKey() string
	LatLonAlt() (lat, lon, alt float64)
	Rotation() r3.Vec
	FullPano() bool
	MergeCC() (int64, bool)
	UserKey() string
	CapturedAt() int64
	Full() bool
}

// Sequence is the ordered membership the sequence pass needs.
type Sequence interface {
	Key() string
	FindNextKey(key string) (string, bool)
	FindPrevKey(key string) (string, bool)
}
