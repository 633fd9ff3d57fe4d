package ir

// Opcode is the closed instruction set named in the specification's data
// model: arithmetic, memory, control, I/O, and pseudo operations.
type Opcode int

const (
	// Arithmetic
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpDiv
	OpCmp
	OpAdda

	// Memory
	OpLoad
	OpStore
	OpPLoad  // load from a call parameter/return slot
	OpPStore // store into a call parameter/return slot
	OpGLoad  // load from a global slot
	OpGStore // store into a global slot

	// Control
	OpBra
	OpBeq
	OpBne
	OpBlt
	OpBle
	OpBgt
	OpBge
	OpRet
	OpCall

	// I/O
	OpRead
	OpWrite
	OpWriteNL

	// Pseudo
	OpPhi
	OpMov
	OpKill
	OpEnd
)

var opcodeNames = map[Opcode]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpCmp: "cmp", OpAdda: "adda",
	OpLoad: "load", OpStore: "store", OpPLoad: "pload", OpPStore: "pstore", OpGLoad: "gload", OpGStore: "gstore",
	OpBra: "bra", OpBeq: "beq", OpBne: "bne", OpBlt: "blt", OpBle: "ble", OpBgt: "bgt", OpBge: "bge",
	OpRet: "ret", OpCall: "call",
	OpRead: "read", OpWrite: "write", OpWriteNL: "writeNL",
	OpPhi: "phi", OpMov: "mov", OpKill: "kill", OpEnd: "end",
}

func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return "unknown"
}

// IsArithmetic reports whether o is one of the four binary arithmetic
// opcodes eligible for constant folding and CSE (spec.md §4.2).
func (o Opcode) IsArithmetic() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

// IsCommutative reports whether operand order is insignificant for CSE
// keying.
func (o Opcode) IsCommutative() bool {
	return o == OpAdd || o == OpMul
}

// IsBranch reports whether o transfers control and therefore must be the
// last Op in its block.
func (o Opcode) IsBranch() bool {
	switch o {
	case OpBra, OpBeq, OpBne, OpBlt, OpBle, OpBgt, OpBge, OpRet:
		return true
	}
	return false
}

// ProducesValue reports whether o defines a value other Ops can
// reference as an operand, and therefore needs an interference-graph
// node and an eventual register (spec.md §4.3's "nodes are SSA values").
// Opcodes with no result (stores, branches, call, I/O writes, ret) are
// excluded even though some of them (OpCall) sit between a value-defining
// pload and the call itself.
func (o Opcode) ProducesValue() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv, OpCmp, OpAdda, OpLoad, OpPLoad, OpGLoad, OpRead, OpPhi, OpMov:
		return true
	}
	return false
}

// HasEffect reports whether o has an observable effect that makes it
// ineligible for dead-code elimination even with no remaining uses
// (spec.md §4.2's DCE rule).
func (o Opcode) HasEffect() bool {
	switch o {
	case OpStore, OpPStore, OpGStore, OpCall, OpRead, OpWrite, OpWriteNL, OpRet, OpEnd:
		return true
	}
	return o.IsBranch()
}

// Op is the atomic IR unit: an instruction with a monotonic id, an
// opcode, up to two operands, an owning block, and (after register
// allocation) an assigned physical register.
type Op struct {
	ID     int
	Opcode Opcode
	Block  *Block
	X, Y   *Value
	Target string // symbolic call target, only meaningful for OpCall
	Dest   *Block // branch destination, only meaningful for branch opcodes

	Active bool
	Reg    int // 0 until allocated; thereafter 1..9 (see internal/regalloc)

	// PhiInputs holds a phi's (predecessor block -> incoming value) map
	// in predecessor-edge order, used instead of X/Y so that more than
	// two predecessors (not produced by this language's control forms,
	// but kept general per spec.md §3's "fixed ordering of predecessor
	// edges") can be represented. The builder leaves X and Y nil on phi
	// Ops.
	PhiInputs []PhiInput
}

// PhiInput is one incoming edge of a phi Op.
type PhiInput struct {
	Pred  *Block
	Value Value
}

// NewOp allocates an Op with the next id from ctx and appends it to the
// end of block's instruction list. The caller is responsible for setting
// X/Y/Target as appropriate for the opcode.
func (b *Block) NewOp(ctx *Context, opcode Opcode) *Op {
	op := &Op{ID: ctx.nextOpID(), Opcode: opcode, Block: b, Active: true}
	b.Ops = append(b.Ops, op)
	return op
}

// InsertOpBefore allocates a new Op with the next id from ctx and splices
// it into block's instruction list immediately before existing, shifting
// later instructions down. Used by internal/regalloc's spill handler to
// insert address/load/store Ops around a spilled value's def and uses
// without disturbing that block's other instruction positions.
func (b *Block) InsertOpBefore(ctx *Context, opcode Opcode, existing *Op) *Op {
	idx := len(b.Ops)
	for i, o := range b.Ops {
		if o == existing {
			idx = i
			break
		}
	}
	return b.insertOpAt(ctx, opcode, idx)
}

// InsertOpAfter is InsertOpBefore's mirror: the new Op is spliced in
// immediately after existing.
func (b *Block) InsertOpAfter(ctx *Context, opcode Opcode, existing *Op) *Op {
	idx := len(b.Ops)
	for i, o := range b.Ops {
		if o == existing {
			idx = i + 1
			break
		}
	}
	return b.insertOpAt(ctx, opcode, idx)
}

func (b *Block) insertOpAt(ctx *Context, opcode Opcode, idx int) *Op {
	op := &Op{ID: ctx.nextOpID(), Opcode: opcode, Block: b, Active: true}
	b.Ops = append(b.Ops, nil)
	copy(b.Ops[idx+1:], b.Ops[idx:])
	b.Ops[idx] = op
	return op
}

// Operands returns the op's non-nil value operands, including phi inputs.
func (op *Op) Operands() []*Value {
	var out []*Value
	if op.X != nil {
		out = append(out, op.X)
	}
	if op.Y != nil {
		out = append(out, op.Y)
	}
	for i := range op.PhiInputs {
		out = append(out, &op.PhiInputs[i].Value)
	}
	return out
}

// ReplaceOperand rewrites every operand that currently points at oldOp to
// point at newVal instead. Used by CSE/DCE/constant folding to redirect
// uses after an Op is deactivated.
func (op *Op) ReplaceOperand(oldOp *Op, newVal Value) {
	if op.X != nil && op.X.Kind == ValOp && op.X.Op == oldOp {
		*op.X = newVal
	}
	if op.Y != nil && op.Y.Kind == ValOp && op.Y.Op == oldOp {
		*op.Y = newVal
	}
	for i := range op.PhiInputs {
		v := &op.PhiInputs[i].Value
		if v.Kind == ValOp && v.Op == oldOp {
			*v = newVal
		}
	}
}

// String renders a single Op for debug dumps (internal/ir.Program.String
// and the `-dump-ir` CLI flag).
func (op *Op) String() string {
	return opString(op)
}
