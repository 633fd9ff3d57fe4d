// Package optimizer implements the middle end's dominator-scoped CSE,
// constant folding, and dead-code elimination passes over internal/ir's
// SSA form. Grounded on the teacher's internal/ir optimization passes
// (optimizations.go), generalized from EVM gas-accounting cleanups to
// the arithmetic/memory opcode set this specification defines.
package optimizer

import "github.com/mgdickerson/cRust-sub000/internal/ir"

// UseTracker is the "TempValManager" side table spec.md §4.2 describes:
// for every live Op, the set of other Ops that currently reference it as
// an operand. Rebuilt whenever the optimizer pipeline starts a fresh
// function and kept incrementally consistent as CSE/DCE deactivate Ops.
type UseTracker struct {
	uses map[*ir.Op][]*ir.Op
}

// BuildUseTracker scans every active Op in fn and records its operand
// references.
func BuildUseTracker(fn *ir.Function) *UseTracker {
	t := &UseTracker{uses: make(map[*ir.Op][]*ir.Op)}
	for _, b := range fn.Blocks {
		for _, op := range b.ActiveOps() {
			for _, v := range op.Operands() {
				if def := v.DefiningOp(); def != nil {
					t.uses[def] = append(t.uses[def], op)
				}
			}
		}
	}
	return t
}

// UsesOf returns the active Ops that currently reference def as an
// operand.
func (t *UseTracker) UsesOf(def *ir.Op) []*ir.Op {
	var active []*ir.Op
	for _, u := range t.uses[def] {
		if u.Active {
			active = append(active, u)
		}
	}
	return active
}

// HasUses reports whether def is referenced by any active Op.
func (t *UseTracker) HasUses(def *ir.Op) bool { return len(t.UsesOf(def)) > 0 }

// Retarget rewrites every recorded use of oldOp to instead reference
// newVal, and updates the tracker's own bookkeeping so later queries see
// the new edges.
func (t *UseTracker) Retarget(oldOp *ir.Op, newVal ir.Value) {
	for _, user := range t.uses[oldOp] {
		user.ReplaceOperand(oldOp, newVal)
		if newDef := newVal.DefiningOp(); newDef != nil {
			t.uses[newDef] = append(t.uses[newDef], user)
		}
	}
	delete(t.uses, oldOp)
}

// Remove drops def from the tracker entirely (called once an Op has been
// deactivated and has no remaining uses).
func (t *UseTracker) Remove(def *ir.Op) { delete(t.uses, def) }
