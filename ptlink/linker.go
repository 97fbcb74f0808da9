package ptlink

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Linker links per-frame detections into trajectories. It owns all
// cross-frame state (live particles and the memory pool) and must not
// be shared between concurrent trajectory streams; run one Linker per
// stream.
//
// Frames are processed strictly in order of increasing frame index.
// Each frame either commits completely or fails without touching any
// state, so a failed frame can be retried with different parameters.
type Linker struct {
	searchRange  []float64 // per-axis, in coordinate units
	ndim         int       // 0 until inferred from the first detection
	memFrames    int
	subnetLimit  int
	strategy     Strategy
	adaptiveStep float64
	adaptiveStop float64
	workers      int

	predictorFactory func() Predictor
	logger           *Logger
	runID            uuid.UUID

	active      []*particle // particles linked in the last processed frame, ascending id
	memory      *memoryBuffer
	store       *TrajectoryStore
	nextID      int64
	lastFrame   int
	emptyFrames int
}

// NewLinker creates a Linker. searchRange is the maximum linking
// distance: a single value applies to every axis, or one value per
// axis may be given.
func NewLinker(searchRange []float64, opts ...Option) (*Linker, error) {
	l := &Linker{
		searchRange:      append([]float64(nil), searchRange...),
		subnetLimit:      DefaultSubnetSizeLimit,
		strategy:         StrategyExact,
		workers:          1,
		predictorFactory: func() Predictor { return &lastPositionPredictor{} },
		logger:           NoopLogger(),
		runID:            uuid.New(),
		store:            newTrajectoryStore(),
		lastFrame:        -1,
	}
	for _, opt := range opts {
		opt(l)
	}

	if len(l.searchRange) == 0 {
		return nil, ErrNonPositiveSearchRange
	}
	for _, r := range l.searchRange {
		if r <= 0 {
			return nil, ErrNonPositiveSearchRange
		}
	}
	if len(l.searchRange) > 1 {
		l.ndim = len(l.searchRange)
	}
	if l.memFrames < 0 {
		return nil, ErrNegativeMemory
	}
	if l.subnetLimit <= 0 {
		return nil, ErrBadSubnetLimit
	}
	if l.adaptiveStep != 0 {
		if l.adaptiveStep <= 0 || l.adaptiveStep >= 1 || l.adaptiveStop <= 0 {
			return nil, ErrBadAdaptiveParams
		}
	}
	l.memory = newMemoryBuffer(l.memFrames)
	l.logger = l.logger.WithRun(l.runID.String())
	return l, nil
}

// Store returns the trajectory rows committed so far.
func (l *Linker) Store() *TrajectoryStore { return l.store }

// ActiveCount returns the number of particles linked in the most
// recently processed frame.
func (l *Linker) ActiveCount() int { return len(l.active) }

// DormantCount returns the number of particles currently held in
// memory.
func (l *Linker) DormantCount() int { return l.memory.Len() }

// EmptyFrameCount returns how many processed frames had no detections.
func (l *Linker) EmptyFrameCount() int { return l.emptyFrames }

// LinkFrame links one frame's detections against the current particle
// state and commits the result. The frame index must exceed that of the
// previously processed frame. On error no state is modified.
func (l *Linker) LinkFrame(frame int, detections []Feature) error {
	if frame <= l.lastFrame {
		return &OutOfOrderFrameError{Frame: frame, LastFrame: l.lastFrame}
	}

	// Dimensionality inferred from a frame is adopted only once the
	// whole frame validates and resolves; a failed frame leaves it
	// unset so a retry can establish a different one.
	ndim := l.ndim
	searchRange := l.searchRange
	if ndim == 0 && len(detections) > 0 {
		ndim = len(detections[0].Coords)
		if ndim == 0 {
			return errors.Wrapf(ErrDimensionMismatch, "frame %d: detection has no coordinates", frame)
		}
		searchRange = expandRange(l.searchRange, ndim)
	}
	for i, det := range detections {
		if len(det.Coords) != ndim {
			return errors.Wrapf(ErrDimensionMismatch, "frame %d row %d: got %d coordinates, want %d",
				frame, i, len(det.Coords), ndim)
		}
	}

	log := l.logger.WithFrame(frame)
	if len(detections) == 0 {
		log.Info("frame has no detections; all particles go unmatched")
		l.emptyFrames++
	}

	sources := l.collectSources()
	srcPos := make([][]float64, len(sources))
	for i, p := range sources {
		srcPos[i] = scaleCoords(p.position(frame), searchRange)
	}
	tgtPos := make([][]float64, len(detections))
	for j, det := range detections {
		tgtPos[j] = scaleCoords(det.Coords, searchRange)
	}

	graph := buildCandidateGraph(srcPos, tgtPos)
	matches, err := l.resolveAll(graph)
	if err != nil {
		var oversize *SubnetOversizeError
		if errors.As(err, &oversize) {
			oversize.Frame = frame
		}
		log.Error("frame resolution failed", "error", err)
		return err
	}

	l.ndim = ndim
	l.searchRange = searchRange
	l.commit(frame, detections, sources, matches, log, len(graph.subnets))
	return nil
}

// collectSources merges active and dormant particles in ascending id
// order; the source index order is what the resolver's tie-break sees.
func (l *Linker) collectSources() []*particle {
	sources := make([]*particle, 0, len(l.active)+l.memory.Len())
	sources = append(sources, l.active...)
	sources = append(sources, l.memory.particles()...)
	sort.Slice(sources, func(i, j int) bool { return sources[i].id < sources[j].id })
	return sources
}

// resolveAll resolves every subnetwork of the candidate graph. The
// subnetworks are disjoint, so with workers configured they run
// concurrently; results land in per-subnetwork slots and no linker
// state is touched until commit.
func (l *Linker) resolveAll(graph *candidateGraph) ([]candidateEdge, error) {
	cfg := resolverConfig{
		limit:        l.subnetLimit,
		strategy:     l.strategy,
		adaptiveStep: l.adaptiveStep,
		adaptiveStop: l.adaptiveStop,
	}
	results := make([][]candidateEdge, len(graph.subnets))

	if l.workers > 1 && len(graph.subnets) > 1 {
		var g errgroup.Group
		g.SetLimit(l.workers)
		for i := range graph.subnets {
			i := i
			g.Go(func() error {
				resolved, err := resolveSubnet(graph.subnets[i], cfg)
				if err != nil {
					return err
				}
				results[i] = resolved
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range graph.subnets {
			resolved, err := resolveSubnet(graph.subnets[i], cfg)
			if err != nil {
				return nil, err
			}
			results[i] = resolved
		}
	}

	var matches []candidateEdge
	for _, resolved := range results {
		matches = append(matches, resolved...)
	}
	return matches, nil
}

// commit applies one frame's resolved matching: matched particles gain
// the frame's point and become active, unmatched particles advance
// their dormancy or terminate, unmatched detections start new
// particles, and every detection row lands in the store. commit never
// fails; a motion model that rejects its observation is reseeded so
// the frame still lands whole.
func (l *Linker) commit(frame int, detections []Feature, sources []*particle, matches []candidateEdge, log *Logger, subnets int) {
	srcMatch := make([]int, len(sources))
	for i := range srcMatch {
		srcMatch[i] = -1
	}
	dstMatch := make([]int, len(detections))
	for j := range dstMatch {
		dstMatch[j] = -1
	}
	for _, e := range matches {
		srcMatch[e.src] = e.dst
		dstMatch[e.dst] = e.src
	}

	newActive := make([]*particle, 0, len(sources))
	newPool := make([]*particle, 0, l.memory.Len()+len(sources))
	terminated := 0
	for i, p := range sources {
		if j := srcMatch[i]; j >= 0 {
			if err := p.observe(frame, detections[j].Coords); err != nil {
				log.Warn("motion model rejected the observation, reseeding",
					"particle", p.id, "error", err)
				p.reseed(l.predictorFactory(), frame, detections[j].Coords)
			}
			newActive = append(newActive, p)
			continue
		}
		if l.memory.admit(p) {
			newPool = append(newPool, p)
		} else {
			terminated++
		}
	}

	rows := make([]LinkedFeature, len(detections))
	created := 0
	for j, det := range detections {
		var id int64
		if i := dstMatch[j]; i >= 0 {
			id = sources[i].id
		} else {
			id = l.nextID
			l.nextID++
			p := newParticle(id, frame, det.Coords, l.predictorFactory())
			if err := p.predictor.Observe(frame, det.Coords); err != nil {
				log.Warn("motion model rejected the observation, reseeding",
					"particle", id, "error", err)
				p.reseed(l.predictorFactory(), frame, det.Coords)
			}
			newActive = append(newActive, p)
			created++
		}
		rows[j] = LinkedFeature{
			Feature: Feature{
				Frame:  frame,
				Coords: det.Coords,
				Attrs:  det.Attrs,
			},
			Particle: id,
		}
	}

	l.store.append(rows...)
	l.active = newActive
	l.memory.rebuild(newPool)
	l.lastFrame = frame

	log.Debug("frame committed",
		"detections", len(detections),
		"sources", len(sources),
		"matched", len(matches),
		"created", created,
		"terminated", terminated,
		"dormant", l.memory.Len(),
		"subnets", subnets,
	)
}

// Finish finalizes the run: remaining active and dormant particles are
// terminated as-is (their recorded trajectories stay untouched) and the
// accumulated store is returned. The Linker must not be reused after
// Finish.
func (l *Linker) Finish() *TrajectoryStore {
	l.logger.Info("linking finished",
		"frames", l.lastFrame+1,
		"particles", l.nextID,
		"rows", l.store.Len(),
		"empty_frames", l.emptyFrames,
	)
	l.active = nil
	l.memory.rebuild(nil)
	return l.store
}
