package optimizer

import "github.com/mgdickerson/cRust-sub000/internal/ir"

// cseKey is the canonical four-level lookup key spec.md §4.2 describes:
// opcode, then canonicalized operands (commutative operands sorted so
// `a+b` and `b+a` collide), scoped per dominator-tree branch by the
// caller's push/pop discipline below.
type cseKey struct {
	opc  ir.Opcode
	a, b operandKey
}

type operandKey struct {
	kind ir.ValueKind
	c    int
	opID int
}

func keyOf(v ir.Value) operandKey {
	id := -1
	if def := v.DefiningOp(); def != nil {
		id = def.ID
	}
	return operandKey{kind: v.Kind, c: v.Const, opID: id}
}

func less(a, b operandKey) bool {
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	if a.c != b.c {
		return a.c < b.c
	}
	return a.opID < b.opID
}

func cseEligible(opc ir.Opcode) bool {
	switch opc {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpCmp, ir.OpAdda:
		return true
	}
	return false
}

func keyFor(op *ir.Op) (cseKey, bool) {
	if !cseEligible(op.Opcode) || op.X == nil || op.Y == nil {
		return cseKey{}, false
	}
	ka, kb := keyOf(*op.X), keyOf(*op.Y)
	if op.Opcode.IsCommutative() && less(kb, ka) {
		ka, kb = kb, ka
	}
	return cseKey{opc: op.Opcode, a: ka, b: kb}, true
}

// CSE performs dominator-scoped common subexpression elimination over
// fn: a value computed by a dominating block is reused instead of
// recomputed by any block it dominates. The available-expression table
// is a stack of per-dominator-tree-node entries, pushed on entry to a
// node and popped on return, so an expression computed only on one
// branch of an if never leaks into a sibling branch.
func CSE(fn *ir.Function, dom *ir.DomInfo, tracker *UseTracker) {
	table := make(map[cseKey]*ir.Op)

	var walk func(b *ir.Block)
	walk = func(b *ir.Block) {
		var added []cseKey
		for _, op := range b.ActiveOps() {
			key, ok := keyFor(op)
			if !ok {
				continue
			}
			if existing, found := table[key]; found {
				replaceOp(op, ir.OpValue(existing), tracker)
				continue
			}
			table[key] = op
			added = append(added, key)
		}
		for _, c := range dom.Children(b) {
			walk(c)
		}
		for _, k := range added {
			delete(table, k)
		}
	}
	walk(fn.Entry)
}
