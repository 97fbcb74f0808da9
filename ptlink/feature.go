package ptlink

// Feature is a single particle observation in one frame: spatial
// coordinates (2 or 3 values most of the time) plus optional descriptors
// computed by the detector (mass, size, eccentricity, ...).
// The linker reads Frame and Coords only; Attrs pass through untouched.
type Feature struct {
	Frame  int
	Coords []float64
	Attrs  map[string]float64
}

// NewFeature creates a feature without descriptors.
func NewFeature(frame int, coords ...float64) Feature {
	return Feature{
		Frame:  frame,
		Coords: coords,
	}
}

// LinkedFeature is a feature annotated with the trajectory it was
// assigned to. All detector-provided fields are preserved as-is.
type LinkedFeature struct {
	Feature
	Particle int64
}
