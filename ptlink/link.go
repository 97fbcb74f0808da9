package ptlink

import (
	"context"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// Frame is one step of a detection stream.
type Frame struct {
	Index    int
	Features []Feature
}

// FrameSource yields frames in strictly increasing index order.
// Next returns io.EOF (or a nil frame) when the stream ends.
type FrameSource interface {
	Next() (*Frame, error)
}

// Run consumes a frame stream to completion and returns the finalized
// store. The context is only checked between frames; a frame's
// resolution either completes or fails outright.
func (l *Linker) Run(ctx context.Context, frames FrameSource) (*TrajectoryStore, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "ptlink: run canceled")
		}
		frame, err := frames.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "ptlink: reading frame stream")
		}
		if frame == nil {
			break
		}
		if err := l.LinkFrame(frame.Index, frame.Features); err != nil {
			return nil, err
		}
	}
	return l.Finish(), nil
}

// sliceSource replays a feature slice as a frame stream: features are
// grouped by their Frame field and yielded in ascending frame order,
// preserving input row order within each frame.
type sliceSource struct {
	frames []Frame
	pos    int
}

// NewSliceSource adapts an in-memory feature slice to a FrameSource.
func NewSliceSource(features []Feature) FrameSource {
	byFrame := make(map[int][]Feature)
	var order []int
	for _, f := range features {
		if _, ok := byFrame[f.Frame]; !ok {
			order = append(order, f.Frame)
		}
		byFrame[f.Frame] = append(byFrame[f.Frame], f)
	}
	sort.Ints(order)
	frames := make([]Frame, len(order))
	for i, idx := range order {
		frames[i] = Frame{Index: idx, Features: byFrame[idx]}
	}
	return &sliceSource{frames: frames}
}

func (s *sliceSource) Next() (*Frame, error) {
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	frame := &s.frames[s.pos]
	s.pos++
	return frame, nil
}

// Link is the one-shot entry point: it links a feature slice and
// returns the same rows annotated with a Particle id, ordered by frame
// and, within a frame, by input row order. searchRange is the maximum
// linking distance, one value for all axes or one value per axis.
func Link(features []Feature, searchRange []float64, opts ...Option) ([]LinkedFeature, error) {
	l, err := NewLinker(searchRange, opts...)
	if err != nil {
		return nil, err
	}
	store, err := l.Run(context.Background(), NewSliceSource(features))
	if err != nil {
		return nil, err
	}
	return store.Rows(), nil
}
