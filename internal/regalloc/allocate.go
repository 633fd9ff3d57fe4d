package regalloc

import (
	"github.com/mgdickerson/cRust-sub000/internal/ast"
	"github.com/mgdickerson/cRust-sub000/internal/errors"
	"github.com/mgdickerson/cRust-sub000/internal/ir"
	"github.com/mgdickerson/cRust-sub000/internal/optimizer"
)

// maxSpillRounds bounds the interference/coalesce/color/spill loop.
// spec.md §4.4 argues termination informally ("the set of spillable
// nodes strictly decreases each iteration"); this cap turns a violation
// of that argument into a reported capacity error instead of a hang.
const maxSpillRounds = 64

// Allocate runs the full spec.md §4.4 pipeline for fn: build the
// interference graph, coalesce phis, color, and on a spill candidate
// insert spill code and rerun from scratch, repeating until every node
// is colored. Returns a capacity diagnostic if maxSpillRounds is
// exhausted, which spec.md §7 treats as E03xx (no legal spill location
// within the round budget).
func Allocate(fn *ir.Function, addrs *ir.AddressTable, ctx *ir.Context) ([]*Graph, *errors.CompilerError) {
	counter := &spillCounter{}
	var history []*Graph

	for round := 0; round < maxSpillRounds; round++ {
		dom := ir.ComputeDominance(fn)
		tracker := optimizer.BuildUseTracker(fn)
		g := BuildInterference(fn, dom, tracker)
		Coalesce(g)
		history = append(history, g)

		cand := Color(g)
		if cand == nil {
			applyColors(g)
			return history, nil
		}

		Spill(fn, addrs, cand, ctx, counter)
		// Spill just appended a fresh frame slot with no assigned offset.
		// Re-run layout over every function (not just fn) so frames stay
		// non-overlapping while the new slot gets a real address; frames
		// laid out after fn's move up by the new slot's size.
		addrs.AssignLayout(ctx.Program.Functions)
	}

	err := errors.RegisterAllocationFailed(fn.Name, ast.Position{})
	return history, &err
}

// applyColors writes each node's assigned register back onto every
// member Op (a coalesced node may own more than one).
func applyColors(g *Graph) {
	for _, n := range g.nodes {
		for _, op := range n.Ops {
			op.Reg = n.Reg
		}
	}
}
