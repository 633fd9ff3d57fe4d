// Package phi implements the last pre-lowering pass over internal/ir's
// SSA form: converting phi Ops into register-to-register/immediate moves
// on predecessor edges, per spec.md §4.5. Grounded on the teacher's SSA
// deconstruction pass (internal/ir's block-exit lowering in
// kanso-lang-kanso), generalized from EVM stack shuffling to DLX register
// moves.
package phi

import "github.com/mgdickerson/cRust-sub000/internal/ir"

// Resolve converts every active phi Op in fn into zero or more mov Ops on
// its predecessor edges, after internal/regalloc has assigned a register
// to every value including each phi itself. A predecessor edge needs no
// move when that edge's incoming value is already colored into the phi's
// own register; otherwise a `mov dst_reg, operand_value` is inserted at
// the end of that predecessor block, before its branch/ret terminator.
// Every resolved phi is deactivated regardless of how many moves it
// needed, since control flow now carries the value through the inserted
// moves instead of through the phi itself.
//
// Each incoming edge already carries its own explicit predecessor block
// (ir.PhiInput.Pred) rather than a positional x/y-to-earlier/later-block
// convention, so Resolve does not need to infer which physical
// predecessor owns which operand; it reads it directly off PhiInputs.
func Resolve(fn *ir.Function, ctx *ir.Context) {
	for _, blk := range fn.Blocks {
		for _, op := range blk.ActiveOps() {
			if op.Opcode != ir.OpPhi {
				continue
			}
			resolvePhi(ctx, op)
		}
	}
}

func resolvePhi(ctx *ir.Context, phi *ir.Op) {
	for _, in := range phi.PhiInputs {
		if !needsMov(phi, in.Value) {
			continue
		}
		insertMov(ctx, in.Pred, phi.Reg, in.Value)
	}
	phi.Active = false
}

// needsMov reports whether incoming value v must be materialized into
// phi's register by an explicit mov rather than already living there: a
// constant or address/array handle always needs one, an Op-reference only
// needs one when its assigned register differs from the phi's.
func needsMov(phi *ir.Op, v ir.Value) bool {
	def := v.DefiningOp()
	if def == nil {
		return true
	}
	return def.Reg != phi.Reg
}

// insertMov splices a mov Op carrying val into dstReg at the end of
// pred's instruction list, immediately before its terminator, so the
// terminator remains the block's last instruction.
func insertMov(ctx *ir.Context, pred *ir.Block, dstReg int, val ir.Value) {
	term := pred.Terminator()
	var mov *ir.Op
	if term != nil {
		mov = pred.InsertOpBefore(ctx, ir.OpMov, term)
	} else {
		mov = pred.NewOp(ctx, ir.OpMov)
	}
	mov.X = &val
	mov.Reg = dstReg
}

// Cleanup physically drops every deactivated Op (phis Resolve removed,
// and any earlier optimizer.DCE/CSE leftovers) from each block's
// instruction list. Run once, after Resolve, immediately before handing
// the function to the DLX encoder, so the encoder never has to skip
// inactive entries itself.
func Cleanup(fn *ir.Function) {
	for _, blk := range fn.Blocks {
		blk.Ops = blk.ActiveOps()
	}
}
