package regalloc

import "sort"

// SpillCandidate is a node Color could not fit into any of the 8
// colorable registers.
type SpillCandidate struct {
	Node *Node
}

// Color assigns a register (1..8) to every node in g by the two-phase
// greedy algorithm in spec.md §4.4: nodes are visited in decreasing
// weight order; phase one only colors nodes of degree ≤ 7 (guaranteed a
// free register by the pigeonhole principle), phase two attempts the
// rest and reports the first node that has no free register left as a
// spill candidate, aborting the remaining coloring for this call.
//
// Returns nil on success (every node colored) or the spill candidate
// the caller should hand to Spill before rebuilding the graph and
// calling Color again.
func Color(g *Graph) *SpillCandidate {
	order := make([]*Node, len(g.nodes))
	copy(order, g.nodes)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Weight > order[j].Weight })

	var lowDegree, highDegree []*Node
	for _, n := range order {
		if g.Degree(n) <= NumColors-1 {
			lowDegree = append(lowDegree, n)
		} else {
			highDegree = append(highDegree, n)
		}
	}

	for _, n := range lowDegree {
		n.Reg = lowestFreeColor(g, n)
	}
	for _, n := range highDegree {
		reg := lowestFreeColor(g, n)
		if reg > NumColors {
			return &SpillCandidate{Node: n}
		}
		n.Reg = reg
	}
	return nil
}

// lowestFreeColor returns the lowest register number 1..NumColors+1 not
// used by any already-colored neighbor of n; NumColors+1 signals no
// legal register remains.
func lowestFreeColor(g *Graph, n *Node) int {
	used := make(map[int]bool)
	for neighbor := range g.edges[n] {
		if neighbor.Reg != 0 {
			used[neighbor.Reg] = true
		}
	}
	for r := 1; r <= NumColors; r++ {
		if !used[r] {
			return r
		}
	}
	return NumColors + 1
}
