package ptlink

import "sort"

// TrajectoryStore accumulates the committed (frame, position, particle)
// rows of a linking run. Rows are stored in commit order: ascending
// frame, and within a frame the input row order of that frame's
// detections.
type TrajectoryStore struct {
	rows       []LinkedFeature
	byParticle map[int64][]int
}

func newTrajectoryStore() *TrajectoryStore {
	return &TrajectoryStore{
		byParticle: make(map[int64][]int),
	}
}

func (s *TrajectoryStore) append(rows ...LinkedFeature) {
	for _, row := range rows {
		s.byParticle[row.Particle] = append(s.byParticle[row.Particle], len(s.rows))
		s.rows = append(s.rows, row)
	}
}

// Len returns the number of committed rows.
func (s *TrajectoryStore) Len() int { return len(s.rows) }

// Rows returns a copy of all committed rows.
func (s *TrajectoryStore) Rows() []LinkedFeature {
	out := make([]LinkedFeature, len(s.rows))
	copy(out, s.rows)
	return out
}

// Particles returns the ids of all recorded trajectories in ascending
// order.
func (s *TrajectoryStore) Particles() []int64 {
	out := make([]int64, 0, len(s.byParticle))
	for id := range s.byParticle {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Trajectory returns the rows of one particle in ascending frame
// order. Returns nil for an unknown id.
func (s *TrajectoryStore) Trajectory(id int64) []LinkedFeature {
	idxs, ok := s.byParticle[id]
	if !ok {
		return nil
	}
	out := make([]LinkedFeature, len(idxs))
	for i, idx := range idxs {
		out[i] = s.rows[idx]
	}
	return out
}

// FrameRows returns the rows committed for one frame, in input row
// order.
func (s *TrajectoryStore) FrameRows(frame int) []LinkedFeature {
	var out []LinkedFeature
	for _, row := range s.rows {
		if row.Frame == frame {
			out = append(out, row)
		}
	}
	return out
}
