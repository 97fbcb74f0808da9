package ptlink

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastPositionPredictor(t *testing.T) {
	p := &lastPositionPredictor{}
	require.NoError(t, p.Observe(0, []float64{1, 2}))
	assert.Equal(t, []float64{1, 2}, p.Predict(1))
	// No extrapolation: the same position is offered frame after frame.
	assert.Equal(t, []float64{1, 2}, p.Predict(5))

	require.NoError(t, p.Observe(6, []float64{3, 4}))
	assert.Equal(t, []float64{3, 4}, p.Predict(7))
}

func TestKalmanPredictorFallsBackOutside2D(t *testing.T) {
	p := NewKalmanPredictor(1.0)()
	require.NoError(t, p.Observe(0, []float64{1, 2, 3}))
	assert.Equal(t, []float64{1, 2, 3}, p.Predict(1))
}

func TestKalmanPredictorStaysNearSlowTrack(t *testing.T) {
	p := NewKalmanPredictor(1.0)()
	for f := 0; f < 5; f++ {
		if f > 0 {
			p.Predict(f)
		}
		require.NoError(t, p.Observe(f, []float64{10 + 0.1*float64(f), 20}))
	}
	pos := p.Predict(5)
	require.Len(t, pos, 2)
	assert.InDelta(t, 10.4, pos[0], 2.0)
	assert.InDelta(t, 20.0, pos[1], 2.0)
}

func TestKalmanPredictorRepeatedPredictIsStable(t *testing.T) {
	p := NewKalmanPredictor(1.0)()
	require.NoError(t, p.Observe(0, []float64{0, 0}))
	require.NoError(t, p.Observe(1, []float64{1, 0}))

	first := append([]float64(nil), p.Predict(3)...)
	assert.Equal(t, first, p.Predict(3))
	assert.Equal(t, first, p.Predict(3))
}

func TestKalmanPredictorStepsPerFrameIndex(t *testing.T) {
	observe := func(p Predictor) {
		require.NoError(t, p.Observe(0, []float64{0, 0}))
		require.NoError(t, p.Observe(1, []float64{1, 0}))
	}

	// Predicting across a frame gap matches stepping through it frame
	// by frame.
	jumped := NewKalmanPredictor(1.0)()
	observe(jumped)
	stepped := NewKalmanPredictor(1.0)()
	observe(stepped)
	stepped.Predict(2)
	stepped.Predict(3)

	want := stepped.Predict(4)
	got := jumped.Predict(4)
	require.Len(t, got, 2)
	assert.InDelta(t, want[0], got[0], 1e-9)
	assert.InDelta(t, want[1], got[1], 1e-9)

	// And a longer gap extrapolates further along the track.
	near := NewKalmanPredictor(1.0)()
	observe(near)
	assert.Greater(t, got[0], near.Predict(2)[0])
}

// saturatingPredictor accepts its first observation and rejects every
// later one.
type saturatingPredictor struct {
	seen bool
	last []float64
}

func (p *saturatingPredictor) Observe(frame int, pos []float64) error {
	p.last = append(p.last[:0], pos...)
	if p.seen {
		return errors.New("saturated")
	}
	p.seen = true
	return nil
}

func (p *saturatingPredictor) Predict(frame int) []float64 { return p.last }

func TestPredictorFailureDoesNotAbortFrame(t *testing.T) {
	l, err := NewLinker([]float64{1.0},
		WithPredictor(func() Predictor { return &saturatingPredictor{} }))
	require.NoError(t, err)

	// Every observation after the first is rejected by the motion
	// model; each frame must still commit whole, on one particle.
	for f := 0; f < 4; f++ {
		require.NoError(t, l.LinkFrame(f, []Feature{NewFeature(f, 0.2*float64(f), 0)}))
	}
	store := l.Finish()
	assert.Equal(t, []int64{0}, store.Particles())
	assert.Len(t, store.Trajectory(0), 4)
}

func TestLinkerWithKalmanPredictor(t *testing.T) {
	l, err := NewLinker([]float64{5.0}, WithPredictor(NewKalmanPredictor(1.0)))
	require.NoError(t, err)

	for f := 0; f < 8; f++ {
		det := NewFeature(f, 0.2*float64(f), 0)
		require.NoError(t, l.LinkFrame(f, []Feature{det}))
	}
	store := l.Finish()
	assert.Equal(t, []int64{0}, store.Particles())
	assert.Len(t, store.Trajectory(0), 8)
}
