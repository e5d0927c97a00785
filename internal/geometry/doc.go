// Package geometry holds the coordinate and rotation math used to classify
// navigation edges.
//
// Responsibilities: WGS84 geodetic <-> ECEF <-> local East-North-Up
// conversion, angle-axis camera rotations, camera optical centres and
// viewing directions, and angle wrapping.
// Key types: r3.Vec (gonum) is used for every 3-vector; rotations are passed
// around as angle-axis vectors and expanded to r3.Rotation on demand.
//
// Dependency rule: geometry depends on nothing else in this module.
package geometry
