package regalloc

import "github.com/mgdickerson/cRust-sub000/internal/ir"

// spillCounter is per-Allocate-call state naming successive spill slots
// spill_val0, spill_val1, ... within one function, per spec.md §4.4.
type spillCounter struct{ n int }

// Spill rewrites fn so that cand's defined value lives in a fresh spill
// slot instead of a register: a store is inserted right after the
// defining Op, and a load-then-rewrite is inserted before every site that
// used the value, per spec.md §4.4. The caller must rebuild the
// interference graph and re-run Color after calling Spill.
func Spill(fn *ir.Function, addrs *ir.AddressTable, cand *SpillCandidate, ctx *ir.Context, counter *spillCounter) {
	slot := addrs.DeclareSpill(fn, counter.n)
	counter.n++

	for _, defOp := range cand.Node.Ops {
		insertStoreAfter(ctx, defOp, slot)
		rewriteUses(ctx, fn, defOp, slot)
	}
}

// insertStoreAfter materializes slot's address into a temp and stores
// defOp's value there, directly after defOp in its block.
func insertStoreAfter(ctx *ir.Context, defOp *ir.Op, slot *ir.UniqueAddress) {
	blk := defOp.Block
	addrOp := blk.InsertOpAfter(ctx, ir.OpAdda, defOp)
	setXY(addrOp, ir.AddrValue(slot), ir.ConstValue(0))

	st := blk.InsertOpAfter(ctx, ir.OpStore, addrOp)
	setXY(st, ir.OpValue(addrOp), ir.OpValue(defOp))
}

// rewriteUses inserts, immediately before every active Op that currently
// references defOp as an operand, a load of slot into a fresh value, and
// redirects that use to the loaded value.
func rewriteUses(ctx *ir.Context, fn *ir.Function, defOp *ir.Op, slot *ir.UniqueAddress) {
	for _, blk := range fn.Blocks {
		for _, user := range blockSnapshot(blk) {
			if !user.Active || user == defOp || !referencesOp(user, defOp) {
				continue
			}
			addrOp := blk.InsertOpBefore(ctx, ir.OpAdda, user)
			setXY(addrOp, ir.AddrValue(slot), ir.ConstValue(0))

			ld := blk.InsertOpBefore(ctx, ir.OpLoad, user)
			ldX := ir.OpValue(addrOp)
			ld.X = &ldX

			user.ReplaceOperand(defOp, ir.OpValue(ld))
		}
	}
}

// blockSnapshot copies a block's current Ops slice so rewriteUses can
// splice new instructions into the live slice while iterating a stable
// view of the original ones.
func blockSnapshot(blk *ir.Block) []*ir.Op {
	out := make([]*ir.Op, len(blk.Ops))
	copy(out, blk.Ops)
	return out
}

func setXY(op *ir.Op, x, y ir.Value) {
	op.X = &x
	op.Y = &y
}

func referencesOp(op *ir.Op, def *ir.Op) bool {
	if op.X != nil && op.X.Kind == ir.ValOp && op.X.Op == def {
		return true
	}
	if op.Y != nil && op.Y.Kind == ir.ValOp && op.Y.Op == def {
		return true
	}
	for i := range op.PhiInputs {
		if op.PhiInputs[i].Value.Kind == ir.ValOp && op.PhiInputs[i].Value.Op == def {
			return true
		}
	}
	return false
}
