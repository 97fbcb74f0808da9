package ptlink

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// Predictor supplies the position a particle is searched at. Observe is
// called with every detection committed to the particle; Predict is
// called once per frame while the particle is a candidate source,
// including frames it spends dormant. Each particle owns its own
// Predictor instance.
type Predictor interface {
	Observe(frame int, pos []float64) error
	Predict(frame int) []float64
}

// lastPositionPredictor offers the last observed position, with no
// extrapolation. This is the default: dormant particles wait where they
// were last seen.
type lastPositionPredictor struct {
	last []float64
}

func (p *lastPositionPredictor) Observe(frame int, pos []float64) error {
	p.last = append(p.last[:0], pos...)
	return nil
}

func (p *lastPositionPredictor) Predict(frame int) []float64 {
	return p.last
}

// kalmanPredictor extrapolates 2D motion with a constant-velocity
// Kalman filter, so fast-moving particles are searched ahead of their
// last observed position. The filter steps one dt per frame index, so
// a particle dormant across several frames keeps extrapolating and
// repeated predictions for the same frame return the same point.
// Non-2D data falls back to the last observed position.
type kalmanPredictor struct {
	dt      float64
	filter  *kalman_filter.Kalman2D
	last    []float64
	stateAt int // frame index the filter state corresponds to
}

// NewKalmanPredictor returns a Predictor factory backed by a 2D
// constant-velocity Kalman filter with the given time step per frame.
// Intended for use with WithPredictor.
func NewKalmanPredictor(dt float64) func() Predictor {
	return func() Predictor {
		return &kalmanPredictor{dt: dt}
	}
}

func (p *kalmanPredictor) Observe(frame int, pos []float64) error {
	p.last = append(p.last[:0], pos...)
	if len(pos) != 2 {
		return nil
	}
	if p.filter == nil {
		/* Kalman filter props */
		ux := 1.0
		uy := 1.0
		stdDevA := 2.0
		stdDevMx := 0.1
		stdDevMy := 0.1
		p.filter = kalman_filter.NewKalman2D(p.dt, ux, uy, stdDevA, stdDevMx, stdDevMy,
			kalman_filter.WithState2D(pos[0], pos[1]))
		p.stateAt = frame
		return nil
	}
	p.advance(frame)
	if err := p.filter.Update(pos[0], pos[1]); err != nil {
		return errors.Wrap(err, "can't update motion filter")
	}
	return nil
}

// advance steps the filter forward to the given frame index.
func (p *kalmanPredictor) advance(frame int) {
	for p.stateAt < frame {
		p.filter.Predict()
		p.stateAt++
	}
}

func (p *kalmanPredictor) Predict(frame int) []float64 {
	if p.filter == nil || len(p.last) != 2 {
		return p.last
	}
	p.advance(frame)
	x, y := p.filter.GetState()
	return []float64{x, y}
}
