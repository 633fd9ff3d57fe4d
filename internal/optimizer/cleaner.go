package optimizer

import "github.com/mgdickerson/cRust-sub000/internal/ir"

// Clean removes blocks unreachable from fn.Entry and, among reachable
// blocks, splices out blocks that carry no active instructions and have
// exactly one successor with no phi operations (so there is no
// predecessor-edge bookkeeping to repair). Idempotent: a second call
// over an already-clean function removes nothing.
func Clean(fn *ir.Function) {
	reachable := reachableBlocks(fn.Entry)
	fn.Blocks = filterReachable(fn.Blocks, reachable)
	for _, b := range fn.Blocks {
		b.Preds = filterReachableList(b.Preds, reachable)
		b.Succs = filterReachableList(b.Succs, reachable)
	}

	spliced := true
	for spliced {
		spliced = false
		for _, b := range fn.Blocks {
			if b == fn.Entry {
				continue
			}
			if len(b.ActiveOps()) != 0 || len(b.Succs) != 1 {
				continue
			}
			succ := b.Succs[0]
			if blockHasPhi(succ) {
				continue
			}
			for _, p := range b.Preds {
				ir.RemoveEdge(p, b)
				ir.AddEdge(p, succ)
			}
			ir.RemoveEdge(b, succ)
			spliced = true
		}
		if spliced {
			reachable = reachableBlocks(fn.Entry)
			fn.Blocks = filterReachable(fn.Blocks, reachable)
		}
	}
}

func blockHasPhi(b *ir.Block) bool {
	for _, op := range b.ActiveOps() {
		if op.Opcode == ir.OpPhi {
			return true
		}
	}
	return false
}

func reachableBlocks(entry *ir.Block) map[*ir.Block]bool {
	seen := make(map[*ir.Block]bool)
	var walk func(b *ir.Block)
	walk = func(b *ir.Block) {
		if seen[b] {
			return
		}
		seen[b] = true
		for _, s := range b.Succs {
			walk(s)
		}
	}
	walk(entry)
	return seen
}

func filterReachable(blocks []*ir.Block, reachable map[*ir.Block]bool) []*ir.Block {
	out := blocks[:0]
	for _, b := range blocks {
		if reachable[b] {
			out = append(out, b)
		}
	}
	return out
}

func filterReachableList(list []*ir.Block, reachable map[*ir.Block]bool) []*ir.Block {
	out := list[:0]
	for _, b := range list {
		if reachable[b] {
			out = append(out, b)
		}
	}
	return out
}
