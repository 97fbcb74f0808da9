package ptlink

import "sort"

// candidateEdge is an admissible link between a source (an active or
// dormant particle's position) and a target (a detection in the frame
// being linked). The cost is the squared displacement in search-range
// units, so admissible edges always have cost <= 1.
type candidateEdge struct {
	src  int
	dst  int
	cost float64
}

// subnet is a maximal connected component of the candidate graph.
// Sources and targets are listed in ascending index order; edges are
// sorted by (src, cost, dst). Each subnet is resolved as one joint
// assignment problem, independently of the others.
type subnet struct {
	sources []int
	targets []int
	edges   []candidateEdge
}

// candidateGraph is the bipartite admissible-link graph for one frame,
// partitioned into subnets. Sources or targets with no admissible edge
// at all are kept aside: they are trivially unmatched and never enter
// a resolver.
type candidateGraph struct {
	subnets       []subnet
	lonelySources []int
	lonelyTargets []int
}

// unionFind is a disjoint-set forest with path halving and union by
// size, used to group candidate edges into connected components.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}

// buildCandidateGraph enumerates admissible links between sources and
// targets (positions in search-range units) and partitions them into
// subnets. Work stays proportional to local particle density: each
// source only sees targets within the unit radius via the spatial
// index, never the full pairwise distance matrix.
func buildCandidateGraph(sources, targets [][]float64) *candidateGraph {
	m, n := len(sources), len(targets)
	ix := NewSpatialIndex(targets)

	var edges []candidateEdge
	srcHasEdge := make([]bool, m)
	dstHasEdge := make([]bool, n)
	// Union-find nodes: sources occupy [0, m), targets [m, m+n).
	uf := newUnionFind(m + n)

	for i, src := range sources {
		for _, nb := range ix.Within(src, 1.0) {
			edges = append(edges, candidateEdge{src: i, dst: nb.Idx, cost: nb.DistSq})
			srcHasEdge[i] = true
			dstHasEdge[nb.Idx] = true
			uf.union(i, m+nb.Idx)
		}
	}

	graph := &candidateGraph{}
	for i := 0; i < m; i++ {
		if !srcHasEdge[i] {
			graph.lonelySources = append(graph.lonelySources, i)
		}
	}
	for j := 0; j < n; j++ {
		if !dstHasEdge[j] {
			graph.lonelyTargets = append(graph.lonelyTargets, j)
		}
	}

	// Group edges and members by component root. Component order is
	// normalized afterwards so it never depends on map iteration.
	edgesByRoot := make(map[int][]candidateEdge)
	for _, e := range edges {
		root := uf.find(e.src)
		edgesByRoot[root] = append(edgesByRoot[root], e)
	}
	srcByRoot := make(map[int][]int)
	for i := 0; i < m; i++ {
		if srcHasEdge[i] {
			root := uf.find(i)
			srcByRoot[root] = append(srcByRoot[root], i)
		}
	}
	dstByRoot := make(map[int][]int)
	for j := 0; j < n; j++ {
		if dstHasEdge[j] {
			root := uf.find(m + j)
			dstByRoot[root] = append(dstByRoot[root], j)
		}
	}

	roots := make([]int, 0, len(edgesByRoot))
	for root := range edgesByRoot {
		roots = append(roots, root)
	}
	sort.Ints(roots)

	for _, root := range roots {
		sn := subnet{
			sources: srcByRoot[root],
			targets: dstByRoot[root],
			edges:   edgesByRoot[root],
		}
		sort.Ints(sn.sources)
		sort.Ints(sn.targets)
		sort.Slice(sn.edges, func(a, b int) bool {
			ea, eb := sn.edges[a], sn.edges[b]
			if ea.src != eb.src {
				return ea.src < eb.src
			}
			if ea.cost != eb.cost {
				return ea.cost < eb.cost
			}
			return ea.dst < eb.dst
		})
		graph.subnets = append(graph.subnets, sn)
	}
	return graph
}
