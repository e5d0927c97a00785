package edge

import "math"

type stepDirection struct {
	direction    Direction
	motionChange float64
	useFallback  bool
}

type turnDirection struct {
	direction       Direction
	directionChange float64
	motionChange    float64
	hasMotion       bool
}

type panoDirection struct {
	direction       Direction
	directionChange float64
	prev, next      Direction
}

var stepDirections = []stepDirection{
	{StepForward, 0, true},
	{StepBackward, math.Pi, true},
	{StepLeft, math.Pi / 2, false},
	{StepRight, -math.Pi / 2, false},
}

var turnDirections = []turnDirection{
	{TurnLeft, math.Pi / 2, math.Pi / 4, true},
	{TurnRight, -math.Pi / 2, -math.Pi / 4, true},
	{TurnU, math.Pi, 0, false},
}

// Step directions reachable from a panorama, each with the directions on
// either side of it.
var panoDirections = []panoDirection{
	{StepForward, 0, StepRight, StepLeft},
	{StepBackward, math.Pi, StepLeft, StepRight},
	{StepLeft, math.Pi / 2, StepForward, StepBackward},
	{StepRight, -math.Pi / 2, StepBackward, StepForward},
}
