package regalloc

import (
	"testing"

	"github.com/mgdickerson/cRust-sub000/internal/ir"
	"github.com/mgdickerson/cRust-sub000/internal/optimizer"
	"github.com/mgdickerson/cRust-sub000/internal/parser"
	"github.com/stretchr/testify/require"
)

func buildOptimized(t *testing.T, source string) (*ir.Program, *ir.Context) {
	t.Helper()
	comp, errs := parser.Parse("test.dlx", source)
	require.Empty(t, errs)
	prog, ctx, diags := ir.Build(comp)
	require.Empty(t, diags)
	optimizer.Run(prog)
	return prog, ctx
}

func TestCoalesce_MergesIfJoinPhiWithBothBranches(t *testing.T) {
	_, ctx := buildOptimized(t, `main var a,x; { let a <- call InputNum; if a < 0 then let x <- 0 - a else let x <- a fi; call OutputNum(x) }.`)
	main := ctx.Program.Functions[0]

	dom := ir.ComputeDominance(main)
	tracker := optimizer.BuildUseTracker(main)
	g := BuildInterference(main, dom, tracker)
	before := len(g.Nodes())
	Coalesce(g)
	if len(g.Nodes()) >= before {
		t.Fatalf("expected coalescing to reduce node count, before=%d after=%d", before, len(g.Nodes()))
	}
}

func TestColor_AssignsEveryNodeARegisterWithinBudget(t *testing.T) {
	_, ctx := buildOptimized(t, `main var a,b,c; { let a <- call InputNum; let b <- a + 1; let c <- b + 1; call OutputNum(c) }.`)
	main := ctx.Program.Functions[0]

	dom := ir.ComputeDominance(main)
	tracker := optimizer.BuildUseTracker(main)
	g := BuildInterference(main, dom, tracker)
	Coalesce(g)
	cand := Color(g)
	if cand != nil {
		t.Fatalf("expected no spill for a 3-value function, got spill candidate")
	}
	for _, n := range g.Nodes() {
		if n.Reg < 1 || n.Reg > NumColors {
			t.Fatalf("node colored out of range: %d", n.Reg)
		}
	}
}

func TestColor_NoTwoInterferingNodesShareARegister(t *testing.T) {
	_, ctx := buildOptimized(t, `main var a,b,c,d,e; { let a <- call InputNum; let b <- a+1; let c <- a+2; let d <- b+c; let e <- a+b+c+d; call OutputNum(e) }.`)
	main := ctx.Program.Functions[0]

	dom := ir.ComputeDominance(main)
	tracker := optimizer.BuildUseTracker(main)
	g := BuildInterference(main, dom, tracker)
	Coalesce(g)
	Color(g)

	for _, n := range g.Nodes() {
		for _, m := range g.Neighbors(n) {
			if n.Reg != 0 && n.Reg == m.Reg {
				t.Fatalf("interfering nodes share register r%d", n.Reg)
			}
		}
	}
}

func TestAllocate_ColorsEveryOpInFunction(t *testing.T) {
	prog, ctx := buildOptimized(t, `main var i,s; { let s <- 0; let i <- 1; while i <= 10 do let s <- s + i; let i <- i + 1 od; call OutputNum(s) }.`)
	main := prog.Functions[0]
	addrs := ir.NewAddressTable()

	_, errDiag := Allocate(main, addrs, ctx)
	require.Nil(t, errDiag)

	for _, b := range main.Blocks {
		for _, op := range b.ActiveOps() {
			if !op.Opcode.ProducesValue() {
				continue
			}
			if op.Reg < 1 || op.Reg > SpillScratchReg {
				t.Fatalf("op %d (%s) left with invalid register r%d", op.ID, op.Opcode, op.Reg)
			}
		}
	}
}
