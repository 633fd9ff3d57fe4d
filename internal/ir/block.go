package ir

// BlockKind classifies a basic block's role in the control structures that
// produced it (spec.md §3's closed block-type set).
type BlockKind int

const (
	BlockMain BlockKind = iota
	BlockIfHeader
	BlockIfThen
	BlockElse
	BlockPhiJoin
	BlockWhileHeader
	BlockWhileBody
	BlockWhileExit
	BlockBra
	BlockFunctionHead
	BlockExit
)

var blockKindNames = map[BlockKind]string{
	BlockMain: "main", BlockIfHeader: "if_header", BlockIfThen: "if_then", BlockElse: "else",
	BlockPhiJoin: "phi_join", BlockWhileHeader: "while_header", BlockWhileBody: "while_body",
	BlockWhileExit: "while_exit", BlockBra: "bra", BlockFunctionHead: "function_head", BlockExit: "exit",
}

func (k BlockKind) String() string {
	if n, ok := blockKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Block is a basic block: an ordered Op list with no internal control
// flow (branches appear only as the last Op) plus its successor/
// predecessor edges.
type Block struct {
	ID    int
	Kind  BlockKind
	Label string
	Ops   []*Op

	Preds []*Block
	Succs []*Block

	Func *Function
}

// NewBlock allocates a block with the next id, owned by fn.
func (ctx *Context) NewBlock(fn *Function, kind BlockKind, label string) *Block {
	b := &Block{ID: ctx.nextBlockID(), Kind: kind, Label: label, Func: fn}
	fn.Blocks = append(fn.Blocks, b)
	return b
}

// AddEdge links from -> to as a control-flow edge, recording both the
// successor on from and the predecessor on to. Edges are never added
// twice between the same pair.
func AddEdge(from, to *Block) {
	for _, s := range from.Succs {
		if s == to {
			return
		}
	}
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}

// RemoveEdge removes a previously added control-flow edge, if present.
func RemoveEdge(from, to *Block) {
	from.Succs = removeBlock(from.Succs, to)
	to.Preds = removeBlock(to.Preds, from)
}

func removeBlock(list []*Block, b *Block) []*Block {
	out := list[:0]
	for _, x := range list {
		if x != b {
			out = append(out, x)
		}
	}
	return out
}

// Terminator returns the block's last active Op if it is a branch/ret,
// or nil if the block has no terminator yet.
func (b *Block) Terminator() *Op {
	for i := len(b.Ops) - 1; i >= 0; i-- {
		if !b.Ops[i].Active {
			continue
		}
		if b.Ops[i].Opcode.IsBranch() {
			return b.Ops[i]
		}
		return nil
	}
	return nil
}

// ActiveOps returns the block's Ops with the deactivated ones filtered
// out, preserving creation order.
func (b *Block) ActiveOps() []*Op {
	var out []*Op
	for _, op := range b.Ops {
		if op.Active {
			out = append(out, op)
		}
	}
	return out
}
