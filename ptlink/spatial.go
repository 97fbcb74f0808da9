package ptlink

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// indexedPoint is a position in search-range units together with its
// index into the slice the index was built from.
type indexedPoint struct {
	coords kdtree.Point
	idx    int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return p.coords[d] - q.coords[d]
}

func (p indexedPoint) Dims() int { return len(p.coords) }

func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	// kdtree.Point.Distance is the squared Euclidean distance, which is
	// exactly the cost unit used throughout the linker.
	return p.coords.Distance(q.coords)
}

// pointSet implements kdtree.Interface over a slice of indexedPoints.
type pointSet []indexedPoint

func (s pointSet) Index(i int) kdtree.Comparable         { return s[i] }
func (s pointSet) Len() int                              { return len(s) }
func (s pointSet) Pivot(d kdtree.Dim) int                { return plane{Dim: d, pointSet: s}.Pivot() }
func (s pointSet) Slice(start, end int) kdtree.Interface { return s[start:end] }

// plane is a pointSet ordered along a single dimension, as required by
// the kdtree construction machinery.
type plane struct {
	kdtree.Dim
	pointSet
}

func (p plane) Less(i, j int) bool {
	return p.pointSet[i].coords[p.Dim] < p.pointSet[j].coords[p.Dim]
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.pointSet = p.pointSet[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.pointSet[i], p.pointSet[j] = p.pointSet[j], p.pointSet[i]
}

// Neighbor is one result of a radius query: the index of the matched
// point and the squared distance to the query position.
type Neighbor struct {
	Idx    int
	DistSq float64
}

// SpatialIndex answers radius and nearest-neighbor queries over one
// frame's positions. It is rebuilt per frame and is safe for
// concurrent read access after construction.
type SpatialIndex struct {
	tree *kdtree.Tree
	n    int
}

// NewSpatialIndex builds an index over the given positions. Duplicate
// or coincident positions are allowed. An empty input yields an index
// whose queries return no results.
func NewSpatialIndex(positions [][]float64) *SpatialIndex {
	if len(positions) == 0 {
		return &SpatialIndex{}
	}
	set := make(pointSet, len(positions))
	for i, pos := range positions {
		set[i] = indexedPoint{coords: kdtree.Point(pos), idx: i}
	}
	return &SpatialIndex{
		tree: kdtree.New(set, false),
		n:    len(positions),
	}
}

// Len returns the number of indexed positions.
func (ix *SpatialIndex) Len() int { return ix.n }

// Within returns every indexed position whose squared distance to q is
// at most maxDistSq, ordered by squared distance and then by index so
// that results are deterministic even among coincident points.
func (ix *SpatialIndex) Within(q []float64, maxDistSq float64) []Neighbor {
	if ix.n == 0 {
		return nil
	}
	keeper := kdtree.NewDistKeeper(maxDistSq)
	ix.tree.NearestSet(keeper, indexedPoint{coords: kdtree.Point(q), idx: -1})

	var out []Neighbor
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil {
			continue // the keeper's sentinel
		}
		out = append(out, Neighbor{
			Idx:    cd.Comparable.(indexedPoint).idx,
			DistSq: cd.Dist,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistSq != out[j].DistSq {
			return out[i].DistSq < out[j].DistSq
		}
		return out[i].Idx < out[j].Idx
	})
	return out
}

// Nearest returns the indexed position closest to q and its squared
// distance. ok is false when the index is empty.
func (ix *SpatialIndex) Nearest(q []float64) (idx int, distSq float64, ok bool) {
	if ix.n == 0 {
		return 0, 0, false
	}
	c, d := ix.tree.Nearest(indexedPoint{coords: kdtree.Point(q), idx: -1})
	return c.(indexedPoint).idx, d, true
}
