package optimizer

import "github.com/mgdickerson/cRust-sub000/internal/ir"

// DCE removes every active Op in fn that has no observable effect
// (spec.md §4.2: not a store, branch, call, I/O, or return) and no
// remaining uses, iterating until no further Op can be removed within
// this single pass. The caller (Run) re-invokes CSE/DCE together to a
// fixed point, since removing one dead Op can expose its operand as
// newly dead.
func DCE(fn *ir.Function, tracker *UseTracker) (removed int) {
	changed := true
	for changed {
		changed = false
		for _, b := range fn.Blocks {
			for _, op := range b.ActiveOps() {
				if op.Opcode.HasEffect() {
					continue
				}
				if tracker.HasUses(op) {
					continue
				}
				op.Active = false
				tracker.Remove(op)
				removed++
				changed = true
			}
		}
	}
	return removed
}
