package ptlink

import (
	"errors"
	"fmt"
)

var (
	// ErrNonPositiveSearchRange indicates a search range value <= 0.
	ErrNonPositiveSearchRange = errors.New("ptlink: search range must be positive on every axis")
	// ErrNegativeMemory indicates a negative memory parameter.
	ErrNegativeMemory = errors.New("ptlink: memory must be non-negative")
	// ErrDimensionMismatch indicates detections whose dimensionality disagrees
	// with the configured search range or with earlier frames.
	ErrDimensionMismatch = errors.New("ptlink: detection dimensionality mismatch")
	// ErrBadAdaptiveParams indicates adaptive step/stop values outside their
	// valid ranges (0 < step < 1, stop > 0).
	ErrBadAdaptiveParams = errors.New("ptlink: adaptive step must be in (0, 1) and stop must be positive")
	// ErrBadSubnetLimit indicates a non-positive subnetwork size limit.
	ErrBadSubnetLimit = errors.New("ptlink: subnetwork size limit must be positive")
)

// OutOfOrderFrameError reports a frame index that did not strictly
// increase. The run is aborted; no part of the offending frame is
// committed.
type OutOfOrderFrameError struct {
	Frame     int
	LastFrame int
}

func (e *OutOfOrderFrameError) Error() string {
	return fmt.Sprintf("ptlink: frame %d does not follow frame %d; frames must strictly increase", e.Frame, e.LastFrame)
}

// SubnetOversizeError reports an ambiguous subnetwork too large to
// resolve exactly under the configured size limit. The frame it
// occurred in is left uncommitted; the caller may retry with a larger
// limit, a smaller search range, or adaptive search enabled.
type SubnetOversizeError struct {
	Frame   int
	Sources int
	Targets int
	Limit   int
}

func (e *SubnetOversizeError) Error() string {
	return fmt.Sprintf("ptlink: subnetwork with %d sources and %d targets in frame %d exceeds size limit %d",
		e.Sources, e.Targets, e.Frame, e.Limit)
}
