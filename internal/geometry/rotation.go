package geometry

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera frame convention: x right, y down, z forward. A rotation R maps
// world vectors into the camera frame, X_cam = R·X_world + t.

var (
	unitX = r3.Vec{X: 1}
	unitZ = r3.Vec{Z: 1}
)

// RotationTransform expands an angle-axis vector into a rotation. The axis
// is the vector's direction and the angle its length in radians.
func RotationTransform(angleAxis r3.Vec) r3.Rotation {
	angle := r3.Norm(angleAxis)
	if angle < epsilon {
		return r3.NewRotation(0, unitZ)
	}
	return r3.NewRotation(angle, r3.Unit(angleAxis))
}

// Rotate applies the angle-axis rotation to v.
func Rotate(v, angleAxis r3.Vec) r3.Vec {
	return RotationTransform(angleAxis).Rotate(v)
}

// inverse returns Rᵗ for the angle-axis rotation.
func inverse(angleAxis r3.Vec) r3.Rotation {
	return r3.Rotation(quat.Conj(quat.Number(RotationTransform(angleAxis))))
}

// OpticalCenter returns the camera centre in world coordinates for the
// extrinsics (rotation, translation): C = -Rᵗ·t.
func OpticalCenter(rotation, translation r3.Vec) r3.Vec {
	return r3.Scale(-1, inverse(rotation).Rotate(translation))
}

// ViewingDirection returns the camera's forward axis in world coordinates,
// Rᵗ·ẑ.
func ViewingDirection(rotation r3.Vec) r3.Vec {
	return inverse(rotation).Rotate(unitZ)
}

// RelativeRotationAngle returns the angle in [0, π] of the rotation taking
// rotation1 onto rotation2.
func RelativeRotationAngle(rotation1, rotation2 r3.Vec) float64 {
	q1 := quat.Number(RotationTransform(rotation1))
	q2 := quat.Number(RotationTransform(rotation2))
	rel := quat.Mul(q2, quat.Conj(q1))
	w := math.Min(1, math.Abs(rel.Real)/quat.Abs(rel))
	return 2 * math.Acos(w)
}

// orientationRoll maps an EXIF orientation code to the roll of the camera
// about its forward axis. Unknown codes are treated as upright.
func orientationRoll(orientation int) float64 {
	switch orientation {
	case 3:
		return math.Pi
	case 6:
		return math.Pi / 2
	case 8:
		return -math.Pi / 2
	default:
		return 0
	}
}

// RotationFromCompass builds the angle-axis world-to-camera rotation of a
// level camera facing compassDeg (degrees clockwise from north) and rolled
// according to the EXIF orientation code (1, 3, 6, 8).
func RotationFromCompass(compassDeg float64, orientation int) r3.Vec {
	// Heading about world up, then tip the camera so its z axis points
	// north, then roll about the camera z axis.
	heading := quat.Number(r3.NewRotation(DegToRad(compassDeg), unitZ))
	level := quat.Number(r3.NewRotation(math.Pi/2, unitX))
	q := quat.Mul(level, heading)
	if roll := orientationRoll(orientation); roll != 0 {
		q = quat.Mul(quat.Number(r3.NewRotation(roll, unitZ)), q)
	}
	return angleAxis(q)
}

// angleAxis converts a unit quaternion to the angle-axis vector with angle
// in [0, π].
func angleAxis(q quat.Number) r3.Vec {
	if n := quat.Abs(q); n > 0 {
		q = quat.Scale(1/n, q)
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	s := math.Sqrt(math.Max(0, 1-q.Real*q.Real))
	if s < epsilon {
		return r3.Vec{}
	}
	angle := 2 * math.Acos(math.Min(1, q.Real))
	return r3.Scale(angle/s, r3.Vec{X: q.Imag, Y: q.Jmag, Z: q.Kmag})
}
