package ptlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryBufferAdmitWithinBudget(t *testing.T) {
	mb := newMemoryBuffer(2)
	p := newParticle(0, 0, []float64{1, 1}, &lastPositionPredictor{})

	assert.True(t, mb.admit(p))
	assert.Equal(t, 1, p.dormancy)
	assert.True(t, mb.admit(p))
	assert.Equal(t, 2, p.dormancy)
	assert.False(t, mb.admit(p))
	assert.Equal(t, 3, p.dormancy)
}

func TestMemoryBufferZeroBudgetNeverDormant(t *testing.T) {
	mb := newMemoryBuffer(0)
	p := newParticle(0, 0, []float64{1, 1}, &lastPositionPredictor{})
	assert.False(t, mb.admit(p))
}

func TestMemoryBufferRebuild(t *testing.T) {
	mb := newMemoryBuffer(3)
	a := newParticle(1, 0, []float64{0, 0}, &lastPositionPredictor{})
	b := newParticle(2, 0, []float64{1, 0}, &lastPositionPredictor{})

	mb.rebuild([]*particle{a, b})
	assert.Equal(t, 2, mb.Len())
	assert.Equal(t, []*particle{a, b}, mb.particles())

	mb.rebuild(nil)
	assert.Equal(t, 0, mb.Len())
}

func TestParticleObserveResetsDormancy(t *testing.T) {
	p := newParticle(7, 0, []float64{0, 0}, &lastPositionPredictor{})
	_ = p.predictor.Observe(0, []float64{0, 0})
	p.dormancy = 2

	assert.NoError(t, p.observe(3, []float64{4, 5}))
	assert.Equal(t, 0, p.dormancy)
	assert.Equal(t, 3, p.lastFrame)
	assert.Equal(t, []float64{4, 5}, p.lastObs)
	assert.Equal(t, []float64{4, 5}, p.position(4))
}
