package compiler

import (
	"fmt"

	"github.com/mgdickerson/cRust-sub000/internal/dlx"
	"github.com/mgdickerson/cRust-sub000/internal/ir"
	"github.com/mgdickerson/cRust-sub000/internal/regalloc"
)

// Lower translates every function in prog — already register-allocated
// and phi-resolved — into one flat DLX instruction stream. Grounded on
// the teacher's bytecode emission pass (kanso-lang-kanso's IR-to-EVM-op
// lowering), generalized from a stack machine's opcode emission to a
// register machine's three-address instructions, plus a two-pass
// branch/call target patching step the EVM target never needed (EVM jump
// destinations are resolved by the runtime, DLX's are not).
//
// Addressing convention: every local, parameter, spill, and return-slot
// address a function uses is a compile-time-constant absolute offset
// from register 0 (Function.FrameBase + the slot's own offset), not a
// runtime frame-pointer-relative address. This sidesteps needing a
// caller/callee frame-pointer handshake entirely. Recursion still works
// with one static frame per function; what the scheme cannot hold is two
// concurrently live activations that each need their own copy of a
// frame-resident value (see Function.FrameBase's doc comment and
// DESIGN.md).
//
// Register convention: internal/regalloc's colors 1..NumColors map
// directly onto DLX registers r1..r8 (no renumbering). r0 is hardwired
// zero by the target machine. r9 (regalloc.SpillScratchReg) doubles as
// this pass's scratch register for materializing constant operands that
// an immediate-form instruction can't absorb directly. r30 is the DLX
// reference VM's own stack pointer (pre-initialized at program start);
// this pass uses it only to save/restore the general-purpose registers
// around a call, conservatively treating every call as clobbering all of
// them rather than computing each call's live-out set. r31 is the link
// register BSR writes and RET reads; since it is a single shared
// register rather than a hardware call stack, it is saved/restored
// around every call site the same way r1..r8 are, so a call nested
// inside another call's body (including a recursive call) cannot
// clobber the return address its enclosing call is still waiting on.
const (
	regZero = 0
	regSP   = 30
	regRA   = 31
)

type branchFixup struct {
	idx    int
	target *ir.Block
}

type callFixup struct {
	idx    int
	target string
}

type lowerState struct {
	instrs       []dlx.Instruction
	blockStart   map[*ir.Block]int
	branchFixups []branchFixup
	callFixups   []callFixup
}

func (s *lowerState) emit(in dlx.Instruction) int {
	s.instrs = append(s.instrs, in)
	return len(s.instrs) - 1
}

// Lower assembles prog's functions into a LinearProgram, with main's code
// placed first so execution starts at word 0.
func Lower(prog *ir.Program) (*LinearProgram, error) {
	s := &lowerState{blockStart: make(map[*ir.Block]int)}
	entries := make(map[string]int)

	ordered := make([]*ir.Function, 0, len(prog.Functions))
	var main *ir.Function
	for _, fn := range prog.Functions {
		if fn.Name == "main" {
			main = fn
			continue
		}
		ordered = append(ordered, fn)
	}
	if main != nil {
		ordered = append([]*ir.Function{main}, ordered...)
	}

	for _, fn := range ordered {
		entries[fn.Name] = len(s.instrs)
		s.lowerFunction(fn)
	}

	for _, f := range s.branchFixups {
		target, ok := s.blockStart[f.target]
		if !ok {
			return nil, fmt.Errorf("branch at word %d targets a block that was never emitted", f.idx)
		}
		in := s.instrs[f.idx]
		in.C = target - f.idx
		s.instrs[f.idx] = in
	}
	for _, f := range s.callFixups {
		target, ok := entries[f.target]
		if !ok {
			return nil, fmt.Errorf("call at word %d targets undefined function %q", f.idx, f.target)
		}
		in := s.instrs[f.idx]
		in.C = target - f.idx
		s.instrs[f.idx] = in
	}

	return &LinearProgram{Instructions: s.instrs, FunctionEntries: entries}, nil
}

func (s *lowerState) lowerFunction(fn *ir.Function) {
	for _, blk := range fn.Blocks {
		s.blockStart[blk] = len(s.instrs)
		for _, op := range blk.ActiveOps() {
			s.lowerOp(op)
		}
	}
}

func (s *lowerState) lowerOp(op *ir.Op) {
	switch op.Opcode {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpCmp:
		s.lowerArith(op)
	case ir.OpAdda:
		s.lowerAdda(op)
	case ir.OpLoad, ir.OpPLoad:
		base, offset := addrOf(*op.X)
		s.emit(dlx.Instruction{Op: dlx.LDW, A: op.Reg, B: base, C: offset})
	case ir.OpStore, ir.OpPStore:
		base, offset := addrOf(*op.X)
		valReg := s.regOrImm(*op.Y)
		s.emit(dlx.Instruction{Op: dlx.STW, A: valReg, B: base, C: offset})
	case ir.OpGLoad, ir.OpGStore:
		// Never emitted by the current builder: global variables are
		// tracked as SSA values the same as locals, not reloaded/spilled
		// across calls (see DESIGN.md's "Global scalars as ordinary SSA
		// values" entry).
		panic("compiler: gload/gstore reached Lower but the builder never emits them")
	case ir.OpBra, ir.OpBeq, ir.OpBne, ir.OpBlt, ir.OpBle, ir.OpBgt, ir.OpBge:
		s.lowerBranch(op)
	case ir.OpRet:
		s.emit(dlx.Instruction{Op: dlx.RET, C: regRA})
	case ir.OpCall:
		s.lowerCall(op)
	case ir.OpRead:
		s.emit(dlx.Instruction{Op: dlx.RDI, A: op.Reg})
	case ir.OpWrite:
		s.emit(dlx.Instruction{Op: dlx.WRD, B: s.regOrImm(*op.X)})
	case ir.OpWriteNL:
		s.emit(dlx.Instruction{Op: dlx.WRL})
	case ir.OpMov:
		s.lowerMov(op)
	case ir.OpPhi, ir.OpKill, ir.OpEnd:
		// Phis are resolved into movs before Lower ever runs; kill/end
		// are bookkeeping markers with no DLX counterpart.
	}
}

var immForm = map[ir.Opcode]dlx.Opcode{
	ir.OpAdd: dlx.ADDI, ir.OpSub: dlx.SUBI, ir.OpMul: dlx.MULI, ir.OpDiv: dlx.DIVI, ir.OpCmp: dlx.CMPI,
}

var regForm = map[ir.Opcode]dlx.Opcode{
	ir.OpAdd: dlx.ADD, ir.OpSub: dlx.SUB, ir.OpMul: dlx.MUL, ir.OpDiv: dlx.DIV, ir.OpCmp: dlx.CMP,
}

// lowerArith picks the cheapest DLX encoding available for a binary
// arithmetic/compare Op: an immediate-form instruction whenever the
// right operand (or, for commutative opcodes, either operand) is a
// constant, falling back to materializing constants into the scratch
// register and emitting the register-register form otherwise.
func (s *lowerState) lowerArith(op *ir.Op) {
	x, y := *op.X, *op.Y
	dest := op.Reg

	if y.IsConst() {
		xr := s.regOrImm(x)
		s.emit(dlx.Instruction{Op: immForm[op.Opcode], A: dest, B: xr, C: y.Const})
		return
	}
	if x.IsConst() && op.Opcode.IsCommutative() {
		s.emit(dlx.Instruction{Op: immForm[op.Opcode], A: dest, B: regOf(y), C: x.Const})
		return
	}

	xr := s.regOrImm(x)
	yr := s.regOrImm(y)
	s.emit(dlx.Instruction{Op: regForm[op.Opcode], A: dest, B: xr, C: yr})
}

// lowerAdda computes an array element's absolute address: the array's
// own static base, plus its already-byte-scaled linear index (constant
// or register), plus the slot's own offset within its frame/globals
// region.
func (s *lowerState) lowerAdda(op *ir.Op) {
	base, offset := addrOf(*op.X)
	dest := op.Reg
	y := *op.Y

	if y.IsConst() {
		s.emit(dlx.Instruction{Op: dlx.ADDI, A: dest, B: base, C: offset + y.Const})
		return
	}
	yr := s.regOrImm(y)
	s.emit(dlx.Instruction{Op: dlx.ADD, A: dest, B: base, C: yr})
	if offset != 0 {
		s.emit(dlx.Instruction{Op: dlx.ADDI, A: dest, B: dest, C: offset})
	}
}

var condBranch = map[ir.Opcode]dlx.Opcode{
	ir.OpBeq: dlx.BEQ, ir.OpBne: dlx.BNE, ir.OpBlt: dlx.BLT,
	ir.OpBle: dlx.BLE, ir.OpBgt: dlx.BGT, ir.OpBge: dlx.BGE,
}

// lowerBranch emits a branch with a zero placeholder displacement and
// queues the fixup Lower resolves once every block's start address is
// known. An unconditional branch tests r0 (always zero) against itself
// via BEQ, since DLX has no dedicated unconditional-jump opcode.
func (s *lowerState) lowerBranch(op *ir.Op) {
	if op.Opcode == ir.OpBra {
		idx := s.emit(dlx.Instruction{Op: dlx.BEQ, A: regZero, B: regZero})
		s.branchFixups = append(s.branchFixups, branchFixup{idx, op.Dest})
		return
	}
	idx := s.emit(dlx.Instruction{Op: condBranch[op.Opcode], A: regOf(*op.X)})
	s.branchFixups = append(s.branchFixups, branchFixup{idx, op.Dest})
}

// lowerCall conservatively saves every general-purpose register around
// the callee (rather than computing the call's true live-out set) and
// restores them in reverse order on return, then queues a BSR fixup.
//
// r31 is saved and restored the same way: BSR overwrites it with this
// call's own return address, and if the callee (or anything it calls)
// executes its own BSR before its RET, r31 is clobbered again before
// this call site's RET ever reads it back. Without saving it here, any
// call chain more than one level deep — not just direct recursion —
// returns to the wrong place. Pushing/popping r31 alongside r1..r8
// around every call site means each activation's return address lives
// on the stack for exactly as long as a nested call could overwrite
// r31, which is what makes recursive calls (e.g. fact) come back
// correctly.
func (s *lowerState) lowerCall(op *ir.Op) {
	for r := 1; r <= regalloc.NumColors; r++ {
		s.emit(dlx.Instruction{Op: dlx.PSH, A: r, B: regSP, C: -4})
	}
	s.emit(dlx.Instruction{Op: dlx.PSH, A: regRA, B: regSP, C: -4})
	idx := s.emit(dlx.Instruction{Op: dlx.BSR})
	s.callFixups = append(s.callFixups, callFixup{idx, op.Target})
	s.emit(dlx.Instruction{Op: dlx.POP, A: regRA, B: regSP, C: 4})
	for r := regalloc.NumColors; r >= 1; r-- {
		s.emit(dlx.Instruction{Op: dlx.POP, A: r, B: regSP, C: 4})
	}
}

func (s *lowerState) lowerMov(op *ir.Op) {
	v := *op.X
	if v.IsConst() {
		s.emit(dlx.Instruction{Op: dlx.ADDI, A: op.Reg, B: regZero, C: v.Const})
		return
	}
	s.emit(dlx.Instruction{Op: dlx.ADD, A: op.Reg, B: regOf(v), C: regZero})
}

// regOf returns the physical register already assigned to an
// operand-bearing value. Reaching the panic means Lower ran before
// register allocation and phi resolution finished, an invariant
// violation rather than a user-facing condition.
func regOf(v ir.Value) int {
	switch v.Kind {
	case ir.ValOp:
		return v.Op.Reg
	case ir.ValReg:
		return v.Reg
	}
	panic("compiler: operand has no assigned register at lowering time")
}

// regOrImm returns a register holding v's value, materializing a
// constant into the scratch register with an immediate add-from-zero
// when needed. Safe to call at most once per side of an instruction
// being built: the result is always consumed by the very next emitted
// instruction, before anything else can overwrite the scratch register.
func (s *lowerState) regOrImm(v ir.Value) int {
	if v.IsConst() {
		s.emit(dlx.Instruction{Op: dlx.ADDI, A: regalloc.SpillScratchReg, B: regZero, C: v.Const})
		return regalloc.SpillScratchReg
	}
	return regOf(v)
}

// addrOf resolves an address-valued operand (an adda result already
// sitting in a register, or a raw UniqueAddress/UniqueArray handle) to a
// (base register, constant offset) pair suitable for an F1 load/store.
func addrOf(v ir.Value) (base, offset int) {
	switch v.Kind {
	case ir.ValOp:
		return v.Op.Reg, 0
	case ir.ValAddr:
		return staticBase(v.Addr)
	case ir.ValArray:
		return staticBase(v.Array.Addr)
	}
	panic("compiler: operand is not an address at lowering time")
}

func staticBase(a *ir.UniqueAddress) (base, offset int) {
	if a.Kind == ir.AddrGlobalVar {
		return regZero, a.Offset
	}
	return regZero, a.Func.FrameBase + a.Offset
}
