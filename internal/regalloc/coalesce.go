package regalloc

import "github.com/mgdickerson/cRust-sub000/internal/ir"

// Coalesce merges each phi node P with its operand nodes X and Y when no
// edge exists among any pair of {P, X, Y}, per spec.md §4.3. Coalescing
// gives a phi and its incoming values a single register class, which is
// what lets phi resolution (internal/phi) later turn same-register phis
// into no-ops instead of movs.
func Coalesce(g *Graph) {
	for _, phiOp := range phiOps(g.fn) {
		p := g.byOp[phiOp]
		if p == nil {
			continue
		}
		operandNodes := phiOperandNodes(g, phiOp)
		if len(operandNodes) == 0 {
			continue
		}
		candidates := append([]*Node{p}, operandNodes...)
		if !noEdgeAmong(g, candidates) {
			continue
		}
		for _, o := range operandNodes {
			if o == p {
				continue
			}
			mergeInto(g, p, o)
		}
	}
}

func phiOps(fn *ir.Function) []*ir.Op {
	var out []*ir.Op
	for _, b := range fn.Blocks {
		for _, op := range b.ActiveOps() {
			if op.Opcode == ir.OpPhi {
				out = append(out, op)
			}
		}
	}
	return out
}

func phiOperandNodes(g *Graph, phi *ir.Op) []*Node {
	seen := make(map[*Node]bool)
	var out []*Node
	for _, in := range phi.PhiInputs {
		def := in.Value.DefiningOp()
		if def == nil {
			continue
		}
		n := g.byOp[def]
		if n == nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func noEdgeAmong(g *Graph, nodes []*Node) bool {
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if g.edges[nodes[i]][nodes[j]] {
				return false
			}
		}
	}
	return true
}

// mergeInto absorbs src's Ops and neighbor set into dst and repoints
// every byOp entry for src's Ops at dst, so later lookups (including
// later Coalesce calls for other phis) see the merged node.
func mergeInto(g *Graph, dst, src *Node) {
	if dst == src {
		return
	}
	dst.Ops = append(dst.Ops, src.Ops...)
	dst.Weight += src.Weight
	for op := range g.byOp {
		if g.byOp[op] == src {
			g.byOp[op] = dst
		}
	}
	for neighbor := range g.edges[src] {
		if neighbor == dst {
			continue
		}
		g.addEdge(dst, neighbor)
		delete(g.edges[neighbor], src)
	}
	delete(g.edges, src)
	g.nodes = removeNode(g.nodes, src)
}

func removeNode(nodes []*Node, victim *Node) []*Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != victim {
			out = append(out, n)
		}
	}
	return out
}
