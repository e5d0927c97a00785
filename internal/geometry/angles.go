package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidInterval is returned by Wrap when max <= min.
var ErrInvalidInterval = errors.New("invalid wrap interval")

// Wrap maps value into [min, max) by shifting it a whole number of interval
// widths. It returns ErrInvalidInterval when max <= min.
func Wrap(value, min, max float64) (float64, error) {
	if !(max > min) {
		return 0, fmt.Errorf("%w: max %v must exceed min %v", ErrInvalidInterval, max, min)
	}
	width := max - min
	v := math.Mod(value-min, width)
	if v < 0 {
		v += width
	}
	wrapped := min + v
	// min+v can round up to max when v is within an ulp of width.
	if wrapped >= max {
		wrapped = min
	}
	return wrapped, nil
}

// WrapAngle maps an angle in radians into [-π, π).
func WrapAngle(angle float64) float64 {
	wrapped, _ := Wrap(angle, -math.Pi, math.Pi)
	return wrapped
}

// AngleDifference returns the signed angle that rotates angle1 onto angle2,
// wrapped into [-π, π).
func AngleDifference(angle1, angle2 float64) float64 {
	return WrapAngle(angle2 - angle1)
}

// AngleBetweenVector2 returns the signed planar angle from (x1, y1) to
// (x2, y2), counter-clockwise positive.
func AngleBetweenVector2(x1, y1, x2, y2 float64) float64 {
	return WrapAngle(math.Atan2(y2, x2) - math.Atan2(y1, x1))
}

// AngleToPlane returns the elevation of v above the plane with the given
// normal. Degenerate vectors have zero elevation.
func AngleToPlane(v, normal r3.Vec) float64 {
	norm := r3.Norm(v) * r3.Norm(normal)
	if norm < epsilon {
		return 0
	}
	s := r3.Dot(v, normal) / norm
	return math.Asin(math.Max(-1, math.Min(1, s)))
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return rad * 180 / math.Pi }
