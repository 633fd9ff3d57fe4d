package optimizer

import "github.com/mgdickerson/cRust-sub000/internal/ir"

// DivByZero is a diagnostic candidate (not a hard error) raised when
// constant folding would divide by a literal zero: spec.md §4.2 leaves
// the actual instruction in place, unevaluated, and reports the
// division Op itself (it carries no source position) for the caller to
// surface as a warning or error depending on policy.
type DivByZero struct {
	Op *ir.Op
}

// FoldConstants walks fn's blocks in dominator-tree preorder and replaces any
// arithmetic Op whose operands are both compile-time constants with the
// folded constant value, redirecting every use through tracker. Returns
// every division-by-zero candidate encountered, left un-folded.
func FoldConstants(fn *ir.Function, dom *ir.DomInfo, tracker *UseTracker) []DivByZero {
	var candidates []DivByZero

	dom.PreorderWalk(func(b *ir.Block) {
		for _, op := range b.ActiveOps() {
			if !op.Opcode.IsArithmetic() {
				continue
			}
			if op.X == nil || op.Y == nil || !op.X.IsConst() || !op.Y.IsConst() {
				continue
			}
			if op.Opcode == ir.OpDiv && op.Y.Const == 0 {
				candidates = append(candidates, DivByZero{Op: op})
				continue
			}
			folded, ok := evalConst(op.Opcode, op.X.Const, op.Y.Const)
			if !ok {
				continue
			}
			replaceOp(op, ir.ConstValue(folded), tracker)
		}
	})

	return candidates
}

func evalConst(opc ir.Opcode, x, y int) (int, bool) {
	switch opc {
	case ir.OpAdd:
		return x + y, true
	case ir.OpSub:
		return x - y, true
	case ir.OpMul:
		return x * y, true
	case ir.OpDiv:
		if y == 0 {
			return 0, false
		}
		return x / y, true
	}
	return 0, false
}

// replaceOp retargets every use of op to newVal and deactivates op. Used
// by both constant folding and CSE, which differ only in how they
// discover newVal.
func replaceOp(op *ir.Op, newVal ir.Value, tracker *UseTracker) {
	tracker.Retarget(op, newVal)
	op.Active = false
	tracker.Remove(op)
}
