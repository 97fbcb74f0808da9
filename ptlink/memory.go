package ptlink

// memoryBuffer holds particles that went unlinked, for up to `memory`
// additional frames. While pooled, a particle's last known position is
// offered to the candidate search as a virtual source, so a trajectory
// can bridge short gaps (occlusion, defocus, missed detection). The
// buffer owns the eviction policy: a particle whose dormancy exceeds
// the budget is terminated and never reappears under its old id.
type memoryBuffer struct {
	budget int
	pool   []*particle // dormant particles, ascending id order
}

func newMemoryBuffer(budget int) *memoryBuffer {
	return &memoryBuffer{budget: budget}
}

// particles returns the dormant pool. Callers must not mutate it.
func (mb *memoryBuffer) particles() []*particle { return mb.pool }

func (mb *memoryBuffer) Len() int { return len(mb.pool) }

// admit advances the dormancy of a particle that went unmatched in the
// frame just committed. It reports whether the particle stays within
// the memory budget; if not, the particle is terminated and the caller
// must drop it. With budget 0 dormancy is never entered at all.
func (mb *memoryBuffer) admit(p *particle) bool {
	p.dormancy++
	return p.dormancy <= mb.budget
}

// rebuild replaces the pool after a frame commit with the particles
// that are dormant going into the next frame.
func (mb *memoryBuffer) rebuild(pool []*particle) {
	mb.pool = pool
}
