// Package regalloc implements graph-coloring register allocation over
// internal/ir's SSA form: interference-graph construction via a single
// dominator-tree-driven reverse traversal, conservative phi coalescing,
// two-phase greedy coloring over 8 machine registers, and spill-slot
// insertion with allocator re-run to a fixpoint. Grounded on the
// teacher's gas-accounting liveness pass in internal/ir/optimizations.go
// generalized from EVM stack slots to DLX general-purpose registers, and
// on other_examples/59349f24_fkuehnel-golang-cfg__go-code-regalloc.go.go
// for the coloring/spill shape itself (the only worked register allocator
// in the retrieved pack).
package regalloc

import "github.com/mgdickerson/cRust-sub000/internal/ir"

// NumColors is the count of general-purpose colorable registers (r1..r8).
// r0 is hardwired to zero and r9 is reserved scratch; neither is a
// colorable node.
const NumColors = 8

// SpillScratchReg (r9) is kept out of the colorable set. internal/compiler's
// lowering uses it to materialize constant operands; the address
// computations spill code inserts are ordinary Ops colored like any other.
const SpillScratchReg = 9

// Node is one interference-graph node: an SSA value (the Op that defines
// it), extended by Coalesce to absorb a phi's operand nodes when they can
// share a register class.
type Node struct {
	id     int
	Ops    []*ir.Op // primary defining Op first; phi coalescing appends more
	Weight int
	Reg    int // 0 until Color assigns one
}

// Primary returns the node's first (defining) Op, the one whose Reg field
// is authoritative once Color has run; coalesced members share the same
// Reg by construction.
func (n *Node) Primary() *ir.Op { return n.Ops[0] }

// Graph is an undirected interference graph over one function's live SSA
// values.
type Graph struct {
	fn    *ir.Function
	nodes []*Node
	byOp  map[*ir.Op]*Node
	edges map[*Node]map[*Node]bool
}

func newGraph(fn *ir.Function) *Graph {
	return &Graph{fn: fn, byOp: make(map[*ir.Op]*Node), edges: make(map[*Node]map[*Node]bool)}
}

// nodeFor returns op's node, creating a singleton node on first reference.
func (g *Graph) nodeFor(op *ir.Op) *Node {
	if n, ok := g.byOp[op]; ok {
		return n
	}
	n := &Node{id: len(g.nodes), Ops: []*ir.Op{op}}
	g.nodes = append(g.nodes, n)
	g.byOp[op] = n
	g.edges[n] = make(map[*Node]bool)
	return n
}

func (g *Graph) addEdge(a, b *Node) {
	if a == b {
		return
	}
	g.edges[a][b] = true
	g.edges[b][a] = true
}

// Neighbors returns n's interfering nodes.
func (g *Graph) Neighbors(n *Node) []*Node {
	out := make([]*Node, 0, len(g.edges[n]))
	for m := range g.edges[n] {
		out = append(out, m)
	}
	return out
}

// Degree returns the number of nodes n interferes with.
func (g *Graph) Degree(n *Node) int { return len(g.edges[n]) }

// Nodes returns every node in the graph, in creation order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// liveSet is a snapshot of which Ops are live, keyed by defining Op.
type liveSet map[*ir.Op]bool

func (s liveSet) clone() liveSet {
	c := make(liveSet, len(s))
	for k := range s {
		c[k] = true
	}
	return c
}

func unionLive(a, b liveSet) liveSet {
	out := a.clone()
	for k := range b {
		out[k] = true
	}
	return out
}
