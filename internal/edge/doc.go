// Package edge classifies navigation edges between photo nodes.
//
// Responsibilities: computing the geometric feature set between a node and
// its spatial candidates (PotentialEdge), and selecting the best candidate
// per direction for sequence, step, turn, panorama, perspective-to-panorama
// and similarity edges.
// Key types: Direction, Edge, PotentialEdge, Settings, Coefficients,
// Calculator, Candidate.
//
// Every Compute* method is deterministic. Potential edges are visited in
// ascending distance, then ascending key, and a candidate replaces the
// current best only when its score is strictly lower.
//
// Dependency rule: edge depends on geometry and config only. Nodes reach it
// through the Candidate interface.
package edge
