package regalloc

import "github.com/mgdickerson/cRust-sub000/internal/ir"

// UseCounter is the subset of optimizer.UseTracker this package needs: a
// per-Op use count, for the interference graph's node-weight formula.
type UseCounter interface {
	UsesOf(def *ir.Op) []*ir.Op
}

// BuildInterference constructs fn's interference graph by the single
// reverse dominator-tree-driven traversal spec.md §4.3 describes: start
// from the exit block with an empty live set and walk predecessors
// upward, with if-joins and while-headers handled specially since they
// are the only points this language's control forms create more than one
// predecessor.
//
// A function with a `return` in every arm of a terminal if (spec.md §8's
// factorial scenario) ends in more than one block with no successor, not
// one shared exit; each such block is walked independently from an empty
// live set and the resulting edges accumulate into the same graph, which
// is sound because interference edges are never removed, only added.
func BuildInterference(fn *ir.Function, dom *ir.DomInfo, tracker UseCounter) *Graph {
	g := newGraph(fn)
	b := &builder{fn: fn, dom: dom, g: g}
	for _, blk := range fn.Blocks {
		if len(blk.Succs) == 0 {
			b.walk(blk, liveSet{}, nil)
		}
	}
	b.assignWeights(tracker)
	return g
}

type builder struct {
	fn  *ir.Function
	dom *ir.DomInfo
	g   *Graph
}

// walk processes b and recurses toward the entry, stopping (without
// processing) once it reaches stopAt. stopAt is nil for the outermost
// call, which runs all the way to the function entry.
func (b *builder) walk(blk *ir.Block, live liveSet, stopAt *ir.Block) liveSet {
	if blk == stopAt {
		return live
	}
	live = b.processNonPhi(blk, live)
	live = b.removePhiDefs(blk, live)

	switch len(blk.Preds) {
	case 0:
		return live
	case 1:
		return b.walk(blk.Preds[0], live, stopAt)
	default:
		if b.isWhileHeader(blk) {
			return b.handleWhileHeader(blk, live, stopAt)
		}
		return b.handleIfJoin(blk, live, stopAt)
	}
}

// processNonPhi runs the per-block processing step for every active
// non-phi Op in reverse order: remove the defined value from live, add an
// interference edge between it and everything else currently live, then
// add its operands to live.
func (b *builder) processNonPhi(blk *ir.Block, live liveSet) liveSet {
	ops := blk.ActiveOps()
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		if op.Opcode == ir.OpPhi {
			continue
		}
		if op.Opcode.ProducesValue() {
			live = b.defineAndInterfere(op, live)
		}
		for _, v := range op.Operands() {
			live = b.addOperand(*v, live)
		}
	}
	return live
}

// removePhiDefs removes each active phi's own defined value from live
// (it stops being live above the join/header block that defines it) but
// does not yet add either operand; that happens per-branch in
// handleIfJoin/handleWhileHeader via addPhiOperand.
func (b *builder) removePhiDefs(blk *ir.Block, live liveSet) liveSet {
	for _, op := range blk.ActiveOps() {
		if op.Opcode != ir.OpPhi {
			continue
		}
		live = b.defineAndInterfere(op, live)
	}
	return live
}

// defineAndInterfere removes op's value from live (if present) and adds
// an interference edge between op and every value still live at the
// point of its definition.
func (b *builder) defineAndInterfere(op *ir.Op, live liveSet) liveSet {
	n := b.g.nodeFor(op)
	next := live.clone()
	delete(next, op)
	for other := range next {
		b.g.addEdge(n, b.g.nodeFor(other))
	}
	return next
}

// addOperand adds v to live if v references another Op's value.
func (b *builder) addOperand(v ir.Value, live liveSet) liveSet {
	def := v.DefiningOp()
	if def == nil {
		return live
	}
	next := live.clone()
	next[def] = true
	return next
}

// addPhiOperand adds, for every active phi in blk, the operand that
// corresponds to the predecessor edge pred, per spec.md §4.3's "only the
// operand corresponding to the edge just traversed is added".
func (b *builder) addPhiOperand(blk *ir.Block, live liveSet, pred *ir.Block) liveSet {
	next := live.clone()
	for _, op := range blk.ActiveOps() {
		if op.Opcode != ir.OpPhi {
			continue
		}
		for _, in := range op.PhiInputs {
			if in.Pred != pred {
				continue
			}
			def := in.Value.DefiningOp()
			if def == nil {
				continue
			}
			nDef := b.g.nodeFor(def)
			for other := range next {
				if other == def {
					continue
				}
				b.g.addEdge(nDef, b.g.nodeFor(other))
			}
			next[def] = true
		}
	}
	return next
}

// isWhileHeader reports whether blk is a loop header, judged by its block
// kind alone (the builder marks every while-loop header BlockWhileHeader).
func (b *builder) isWhileHeader(blk *ir.Block) bool {
	if blk.Kind != ir.BlockWhileHeader {
		return false
	}
	return true
}

// handleIfJoin implements spec.md §4.3's if-join case: clone the live
// set, traverse each branch independently up to the immediate dominator
// (the barrier), union the results, and continue from the barrier.
func (b *builder) handleIfJoin(blk *ir.Block, live liveSet, stopAt *ir.Block) liveSet {
	barrier := b.dom.IDom(blk)
	p0, p1 := blk.Preds[0], blk.Preds[1]

	rightLive := b.addPhiOperand(blk, live, p1)
	rightLive = b.walk(p1, rightLive, barrier)

	leftLive := b.addPhiOperand(blk, live, p0)
	leftLive = b.walk(p0, leftLive, barrier)

	merged := unionLive(rightLive, leftLive)
	if barrier == nil {
		return merged
	}
	return b.walk(barrier, merged, stopAt)
}

// handleWhileHeader implements spec.md §4.3's while-header case: traverse
// the backedge branch twice to approximate loop-carried liveness, fold in
// the backedge operand of each header phi, then continue through the
// immediate dominator (the entry edge), folding in its operand too.
func (b *builder) handleWhileHeader(blk *ir.Block, live liveSet, stopAt *ir.Block) liveSet {
	idom := b.dom.IDom(blk)
	var headerPred, backedgePred *ir.Block
	for _, p := range blk.Preds {
		if p == idom {
			headerPred = p
		} else {
			backedgePred = p
		}
	}
	if backedgePred == nil {
		// Degenerate: both preds equal idom (cannot happen for a
		// well-formed while loop), fall back to treating this as a
		// straight predecessor walk so the traversal still terminates.
		return b.walk(blk.Preds[0], live, stopAt)
	}

	pass1 := b.walk(backedgePred, live.clone(), blk)
	pass2 := b.walk(backedgePred, pass1, blk)
	withBackedge := b.addPhiOperand(blk, pass2, backedgePred)

	if headerPred == nil {
		return withBackedge
	}
	withEntry := b.addPhiOperand(blk, withBackedge, headerPred)
	return b.walk(idom, withEntry, stopAt)
}

// assignWeights sets each node's weight to its use count plus 10 if any
// of its member Ops is defined inside a loop, per spec.md §4.3.
func (b *builder) assignWeights(tracker UseCounter) {
	for _, n := range b.g.nodes {
		w := 0
		loop := false
		for _, op := range n.Ops {
			w += len(tracker.UsesOf(op))
			if inLoop(op.Block, b.dom) {
				loop = true
			}
		}
		if loop {
			w += 10
		}
		n.Weight = w
	}
}

func inLoop(blk *ir.Block, dom *ir.DomInfo) bool {
	for cur := blk; cur != nil; {
		if cur.Kind == ir.BlockWhileHeader || cur.Kind == ir.BlockWhileBody {
			return true
		}
		next := dom.IDom(cur)
		if next == nil || next == cur {
			return false
		}
		cur = next
	}
	return false
}
