package ptlink

// DefaultSubnetSizeLimit is the fail-fast threshold on the number of
// sources or targets in a single ambiguous subnetwork. Past it the
// exact search would grow factorially, so resolution fails with
// SubnetOversizeError instead of hanging.
const DefaultSubnetSizeLimit = 30

// Option configures a Linker at construction time. Invalid values are
// reported by NewLinker, not by the option itself.
type Option func(*Linker)

// WithMemory sets the maximum number of consecutive frames a particle
// may go undetected before its trajectory is ended. The default 0
// terminates a particle the moment it goes unmatched.
func WithMemory(frames int) Option {
	return func(l *Linker) {
		l.memFrames = frames
	}
}

// WithSubnetSizeLimit overrides DefaultSubnetSizeLimit.
func WithSubnetSizeLimit(limit int) Option {
	return func(l *Linker) {
		l.subnetLimit = limit
	}
}

// WithStrategy selects the subnetwork assignment algorithm.
func WithStrategy(s Strategy) Option {
	return func(l *Linker) {
		l.strategy = s
	}
}

// WithAdaptive enables per-subnetwork search range reduction for
// subnetworks over the size limit: the range is multiplied by step
// (0 < step < 1) and the subnetwork re-split, repeatedly, until every
// piece fits the limit or the reduced range falls below stopRatio times
// the configured range, at which point SubnetOversizeError is returned.
func WithAdaptive(step, stopRatio float64) Option {
	return func(l *Linker) {
		l.adaptiveStep = step
		l.adaptiveStop = stopRatio
	}
}

// WithPredictor installs a motion predictor factory; every particle
// gets its own instance. See NewKalmanPredictor. The default predictor
// offers the last observed position with no extrapolation.
func WithPredictor(factory func() Predictor) Option {
	return func(l *Linker) {
		l.predictorFactory = factory
	}
}

// WithLogger installs a structured logger. The default discards all
// output.
func WithLogger(logger *Logger) Option {
	return func(l *Linker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithWorkers sets how many subnetworks may be resolved concurrently
// within one frame. Subnetworks are independent, so this is safe; the
// result does not depend on it. Values below 2 keep resolution
// sequential.
func WithWorkers(n int) Option {
	return func(l *Linker) {
		l.workers = n
	}
}
