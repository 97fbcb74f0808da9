package ptlink

// Geometry helpers over raw coordinate slices. Coordinates are kept as
// []float64 so that 2D and 3D data flow through the same code paths.

// sqDist returns the squared Euclidean distance between two positions
// of equal dimensionality.
func sqDist(a, b []float64) float64 {
	var sum float64
	for d := range a {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}

// scaleCoords divides each coordinate by the per-axis search range so
// that the admissibility test becomes "squared distance <= 1" in scaled
// space, regardless of whether the caller supplied a scalar or a
// per-axis range.
func scaleCoords(coords, searchRange []float64) []float64 {
	out := make([]float64, len(coords))
	for d := range coords {
		out[d] = coords[d] / searchRange[d]
	}
	return out
}

// expandRange normalizes a search range to ndim axes. A single-element
// range applies uniformly to every axis.
func expandRange(searchRange []float64, ndim int) []float64 {
	if len(searchRange) == ndim {
		return searchRange
	}
	out := make([]float64, ndim)
	for d := range out {
		out[d] = searchRange[0]
	}
	return out
}
