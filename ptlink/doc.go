// Package ptlink links particle detections across video frames into
// trajectories.
//
// Responsibilities: candidate search within a distance budget via a
// k-d tree, exact resolution of ambiguous assignment subnetworks,
// multi-frame memory for temporarily vanished particles, and particle
// lifecycle (creation, dormancy, termination).
//
// Feature detection, sub-pixel refinement and image I/O are outside
// this package: it consumes per-frame sets of point detections and
// returns the same rows annotated with a particle id.
package ptlink
