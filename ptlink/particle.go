package ptlink

// particle is the linker's unit of identity: one trajectory in
// progress. Committed rows live in the TrajectoryStore; the particle
// itself only carries what the next frame's candidate search needs.
type particle struct {
	id        int64
	lastObs   []float64 // last observed position, unscaled
	lastFrame int
	// dormancy counts consecutive unmatched frames. 0 means the particle
	// was linked in the most recent processed frame (active); values in
	// [1, memory] mean dormant; past memory the particle is terminated
	// and dropped.
	dormancy  int
	predictor Predictor
}

func newParticle(id int64, frame int, pos []float64, predictor Predictor) *particle {
	p := &particle{
		id:        id,
		lastObs:   append([]float64(nil), pos...),
		lastFrame: frame,
		predictor: predictor,
	}
	return p
}

// observe records a matched detection: the particle is active again and
// its motion model sees the new position.
func (p *particle) observe(frame int, pos []float64) error {
	p.lastObs = append(p.lastObs[:0], pos...)
	p.lastFrame = frame
	p.dormancy = 0
	return p.predictor.Observe(frame, pos)
}

// reseed swaps in a fresh motion model primed with the given
// observation. A model's first observation only initializes it and
// cannot fail.
func (p *particle) reseed(predictor Predictor, frame int, pos []float64) {
	p.predictor = predictor
	_ = p.predictor.Observe(frame, pos)
}

// position returns the position offered to the candidate search for
// the given frame. With the default predictor this is the last observed
// position; motion predictors may extrapolate.
func (p *particle) position(frame int) []float64 {
	return p.predictor.Predict(frame)
}
