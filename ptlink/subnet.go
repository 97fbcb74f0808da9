package ptlink

import (
	"math"
	"sort"

	hungarian "github.com/arthurkushman/go-hungarian"
)

// Strategy selects the subnetwork assignment algorithm.
type Strategy uint16

const (
	// StrategyExact resolves each subnetwork by branch-and-bound over its
	// candidate edges: minimal total squared displacement, ties broken by
	// lowest source index then lowest target index. This is the default.
	StrategyExact Strategy = iota
	// StrategyHungarian resolves each subnetwork with the Hungarian
	// algorithm on a square-padded cost matrix. Subnetworks below the
	// solver's working size go through the exact solver instead; larger
	// ones may pick a different assignment than StrategyExact when
	// several carry the same total cost.
	StrategyHungarian
)

// resolverConfig carries the per-run resolution parameters. A zero
// adaptiveStep disables adaptive search-range reduction.
type resolverConfig struct {
	limit        int
	strategy     Strategy
	adaptiveStep float64
	adaptiveStop float64
}

// resolveSubnet finds the partial matching of one subnet that minimizes
// the total squared displacement, never pairing beyond the unit budget.
// Matched edges are returned sorted by source index; every source or
// target absent from the result is unmatched. Oversize subnets fail
// with *SubnetOversizeError unless adaptive reduction is configured,
// in which case the distance budget is stepped down (re-splitting the
// subnet as edges drop out) until the pieces fit or the stop ratio is
// reached.
func resolveSubnet(sn subnet, cfg resolverConfig) ([]candidateEdge, error) {
	return resolveWithBudget(sn, cfg, 1.0)
}

func resolveWithBudget(sn subnet, cfg resolverConfig, rangeFactor float64) ([]candidateEdge, error) {
	m, n := len(sn.sources), len(sn.targets)
	if m <= cfg.limit && n <= cfg.limit {
		maxCost := rangeFactor * rangeFactor
		if cfg.strategy == StrategyHungarian {
			return solveHungarian(sn, maxCost), nil
		}
		return solveExact(sn, maxCost), nil
	}

	if cfg.adaptiveStep == 0 {
		return nil, &SubnetOversizeError{Sources: m, Targets: n, Limit: cfg.limit}
	}
	rangeFactor *= cfg.adaptiveStep
	if rangeFactor < cfg.adaptiveStop {
		return nil, &SubnetOversizeError{Sources: m, Targets: n, Limit: cfg.limit}
	}

	// Drop the edges that no longer fit the reduced budget and re-split:
	// removing edges can disconnect the subnet into smaller pieces.
	budget := rangeFactor * rangeFactor
	kept := sn.edges[:0:0]
	for _, e := range sn.edges {
		if e.cost <= budget {
			kept = append(kept, e)
		}
	}
	var matches []candidateEdge
	for _, piece := range splitEdges(kept) {
		resolved, err := resolveWithBudget(piece, cfg, rangeFactor)
		if err != nil {
			return nil, err
		}
		matches = append(matches, resolved...)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].src < matches[j].src })
	return matches, nil
}

// splitEdges regroups an edge list into connected components. Nodes
// that lost every edge simply vanish from the result; they are
// unmatched by construction.
func splitEdges(edges []candidateEdge) []subnet {
	srcIdx := make(map[int]int)
	dstIdx := make(map[int]int)
	var srcIDs, dstIDs []int
	for _, e := range edges {
		if _, ok := srcIdx[e.src]; !ok {
			srcIdx[e.src] = len(srcIDs)
			srcIDs = append(srcIDs, e.src)
		}
		if _, ok := dstIdx[e.dst]; !ok {
			dstIdx[e.dst] = len(dstIDs)
			dstIDs = append(dstIDs, e.dst)
		}
	}
	uf := newUnionFind(len(srcIDs) + len(dstIDs))
	for _, e := range edges {
		uf.union(srcIdx[e.src], len(srcIDs)+dstIdx[e.dst])
	}

	byRoot := make(map[int]*subnet)
	var roots []int
	for _, e := range edges {
		root := uf.find(srcIdx[e.src])
		sn, ok := byRoot[root]
		if !ok {
			sn = &subnet{}
			byRoot[root] = sn
			roots = append(roots, root)
		}
		sn.edges = append(sn.edges, e)
	}
	for _, src := range srcIDs {
		byRoot[uf.find(srcIdx[src])].sources = append(byRoot[uf.find(srcIdx[src])].sources, src)
	}
	for _, dst := range dstIDs {
		root := uf.find(len(srcIDs) + dstIdx[dst])
		byRoot[root].targets = append(byRoot[root].targets, dst)
	}

	sort.Ints(roots)
	out := make([]subnet, 0, len(roots))
	for _, root := range roots {
		sn := byRoot[root]
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
		out = append(out, *sn)
	}
	return out
}

// srcOption is one choice for a source inside the exact solver: link to
// a local target, or (dst == -1) stay unlinked at the dead cost.
type srcOption struct {
	dst  int
	cost float64
}

// solveExact enumerates assignments with branch-and-bound. Sources are
// visited in ascending index order and each source's options in
// ascending (cost, target index) order with the unlinked option last,
// so the first optimum reached is the deterministic tie-break winner.
// Leaving a source unlinked costs maxCost (the squared distance budget),
// which makes linking preferable whenever an admissible edge exists.
func solveExact(sn subnet, maxCost float64) []candidateEdge {
	m := len(sn.sources)
	n := len(sn.targets)
	srcLocal := make(map[int]int, m)
	for i, id := range sn.sources {
		srcLocal[id] = i
	}
	dstLocal := make(map[int]int, n)
	for j, id := range sn.targets {
		dstLocal[id] = j
	}

	options := make([][]srcOption, m)
	for _, e := range sn.edges {
		i := srcLocal[e.src]
		options[i] = append(options[i], srcOption{dst: dstLocal[e.dst], cost: e.cost})
	}
	for i := range options {
		opts := options[i]
		sort.Slice(opts, func(a, b int) bool {
			if opts[a].cost != opts[b].cost {
				return opts[a].cost < opts[b].cost
			}
			return opts[a].dst < opts[b].dst
		})
		options[i] = append(opts, srcOption{dst: -1, cost: maxCost})
	}

	// Admissible lower bound on the cost of all sources from depth i on:
	// every source takes its cheapest option, ignoring target conflicts.
	suffixMin := make([]float64, m+1)
	for i := m - 1; i >= 0; i-- {
		suffixMin[i] = suffixMin[i+1] + options[i][0].cost
	}

	// Greedy seed: consume edges cheapest-first, keeping those whose
	// endpoints are still free. Gives the search a tight initial bound.
	var heap edgeHeap
	for _, e := range sn.edges {
		heap.Push(e)
	}
	seedAssign := make([]int, m)
	for i := range seedAssign {
		seedAssign[i] = -1
	}
	seedUsed := make([]bool, n)
	seedCost := float64(m) * maxCost
	for heap.Len() > 0 {
		e := heap.Pop()
		i, j := srcLocal[e.src], dstLocal[e.dst]
		if seedAssign[i] >= 0 || seedUsed[j] {
			continue
		}
		seedAssign[i] = j
		seedUsed[j] = true
		seedCost += e.cost - maxCost
	}

	best := seedCost
	bestAssign := make([]int, m)
	copy(bestAssign, seedAssign)
	// The seed was not produced in tie-break order, so the first search
	// solution reaching the same total may replace it.
	allowEqual := true

	assign := make([]int, m)
	chosenCost := make([]float64, m)
	next := make([]int, m)
	used := make([]bool, n)
	costSoFar := 0.0
	depth := 0

	backtrack := func() {
		next[depth] = 0
		depth--
		if depth < 0 {
			return
		}
		if assign[depth] >= 0 {
			used[assign[depth]] = false
		}
		costSoFar -= chosenCost[depth]
	}

	for depth >= 0 {
		if depth == m {
			if costSoFar < best || (costSoFar == best && allowEqual) {
				best = costSoFar
				copy(bestAssign, assign)
				allowEqual = false
			}
			depth--
			if assign[depth] >= 0 {
				used[assign[depth]] = false
			}
			costSoFar -= chosenCost[depth]
			continue
		}
		opts := options[depth]
		advanced := false
		for next[depth] < len(opts) {
			opt := opts[next[depth]]
			next[depth]++
			if opt.dst >= 0 && used[opt.dst] {
				continue
			}
			bound := costSoFar + opt.cost + suffixMin[depth+1]
			if bound > best || (bound == best && !allowEqual) {
				// Options are cost-sorted, so no later option at this
				// depth can do better either; stop scanning them.
				if opt.dst >= 0 {
					continue
				}
				break
			}
			assign[depth] = opt.dst
			chosenCost[depth] = opt.cost
			if opt.dst >= 0 {
				used[opt.dst] = true
			}
			costSoFar += opt.cost
			depth++
			advanced = true
			break
		}
		if !advanced {
			backtrack()
		}
	}

	return assignToEdges(sn, bestAssign)
}

// solveHungarian pads the cost matrix to a square, with the distance
// budget as the dead cost for missing edges and dummy rows/columns, and
// extracts the pairs the solver placed on real admissible edges.
func solveHungarian(sn subnet, maxCost float64) []candidateEdge {
	m := len(sn.sources)
	n := len(sn.targets)
	size := m
	if n > size {
		size = n
	}
	// The solver runs round(size/5) reduction passes, so matrices
	// smaller than 3x3 get zero passes and come back empty. Those
	// subnets take the branch-and-bound path.
	if size < 3 {
		return solveExact(sn, maxCost)
	}
	srcLocal := make(map[int]int, m)
	for i, id := range sn.sources {
		srcLocal[id] = i
	}
	dstLocal := make(map[int]int, n)
	for j, id := range sn.targets {
		dstLocal[id] = j
	}

	matrix := make([][]float64, size)
	hasEdge := make([][]bool, size)
	for i := range matrix {
		matrix[i] = make([]float64, size)
		hasEdge[i] = make([]bool, size)
		for j := range matrix[i] {
			matrix[i][j] = maxCost
		}
	}
	for _, e := range sn.edges {
		i, j := srcLocal[e.src], dstLocal[e.dst]
		matrix[i][j] = e.cost
		hasEdge[i][j] = true
	}

	// Extract pairs placed on real admissible edges, walking sources in
	// index order and ignoring dummy rows and columns; each source takes
	// its cheapest still-free target among the cells the solver chose.
	solved := hungarian.SolveMin(matrix)
	assign := make([]int, m)
	taken := make([]bool, n)
	for i := range assign {
		assign[i] = -1
		for j := range solved[i] {
			if j >= n || !hasEdge[i][j] || taken[j] {
				continue
			}
			if k := assign[i]; k < 0 || matrix[i][j] < matrix[i][k] ||
				(matrix[i][j] == matrix[i][k] && j < k) {
				assign[i] = j
			}
		}
		if assign[i] >= 0 {
			taken[assign[i]] = true
		}
	}
	return assignToEdges(sn, assign)
}

// assignToEdges converts a local assignment vector back to global
// candidate edges, recomputing each pair's cost from the edge list.
func assignToEdges(sn subnet, assign []int) []candidateEdge {
	costOf := make(map[[2]int]float64, len(sn.edges))
	for _, e := range sn.edges {
		costOf[[2]int{e.src, e.dst}] = e.cost
	}
	var out []candidateEdge
	for i, j := range assign {
		if j < 0 {
			continue
		}
		src := sn.sources[i]
		dst := sn.targets[j]
		cost, ok := costOf[[2]int{src, dst}]
		if !ok {
			cost = math.NaN() // unreachable: assignments come from edges
		}
		out = append(out, candidateEdge{src: src, dst: dst, cost: cost})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].src < out[b].src })
	return out
}
