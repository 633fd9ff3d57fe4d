package optimizer

import (
	"testing"

	"github.com/mgdickerson/cRust-sub000/internal/ir"
	"github.com/mgdickerson/cRust-sub000/internal/parser"
)

func buildOrFail(t *testing.T, source string) *ir.Program {
	t.Helper()
	comp, errs := parser.Parse("test.dlx", source)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	prog, _, diags := ir.Build(comp)
	if len(diags) > 0 {
		t.Fatalf("build diagnostics: %v", diags)
	}
	return prog
}

func countOpcode(fn *ir.Function, opc ir.Opcode) int {
	n := 0
	for _, b := range fn.Blocks {
		for _, op := range b.ActiveOps() {
			if op.Opcode == opc {
				n++
			}
		}
	}
	return n
}

func TestRun_CSEEliminatesRedundantMultiply(t *testing.T) {
	prog := buildOrFail(t, `main var x,y; { let x <- call InputNum; let y <- x*x + x*x; call OutputNum(y) }.`)
	main := prog.Functions[0]

	before := countOpcode(main, ir.OpMul)
	if before != 2 {
		t.Fatalf("expected 2 mul ops before optimization, got %d", before)
	}

	Run(prog)

	after := countOpcode(main, ir.OpMul)
	if after != 1 {
		t.Fatalf("expected exactly 1 surviving mul op after CSE, got %d", after)
	}
}

func TestRun_ConstantFoldingRemovesArithmeticOps(t *testing.T) {
	prog := buildOrFail(t, `main var a; { let a <- 1 + 2 * 3; call OutputNum(a) }.`)
	main := prog.Functions[0]

	Run(prog)

	if n := countOpcode(main, ir.OpAdd); n != 0 {
		t.Fatalf("expected add to be folded away, got %d remaining", n)
	}
	if n := countOpcode(main, ir.OpMul); n != 0 {
		t.Fatalf("expected mul to be folded away, got %d remaining", n)
	}
}

func TestRun_DivByZeroLeftUnfoldedAsCandidate(t *testing.T) {
	prog := buildOrFail(t, `main var a; { let a <- 4 / 0; call OutputNum(a) }.`)
	main := prog.Functions[0]

	results := Run(prog)
	var res Result
	for _, r := range results {
		if r.Function == main {
			res = r
		}
	}
	if len(res.DivByZero) != 1 {
		t.Fatalf("expected 1 div-by-zero candidate, got %d", len(res.DivByZero))
	}
	if n := countOpcode(main, ir.OpDiv); n != 1 {
		t.Fatalf("expected the division to survive unfolded, got %d", n)
	}
}

func TestRun_DeadComputationRemoved(t *testing.T) {
	prog := buildOrFail(t, `main var a,b; { let a <- call InputNum; let b <- a + 1; call OutputNum(a) }.`)
	main := prog.Functions[0]

	before := countOpcode(main, ir.OpAdd)
	if before != 1 {
		t.Fatalf("expected 1 add op before DCE, got %d", before)
	}

	Run(prog)

	if n := countOpcode(main, ir.OpAdd); n != 0 {
		t.Fatalf("expected dead add computing unused b to be removed, got %d", n)
	}
}

func TestClean_IsIdempotent(t *testing.T) {
	prog := buildOrFail(t, `main var i, s; { let s <- 0; let i <- 1; while i <= 10 do let s <- s + i; let i <- i + 1 od; call OutputNum(s) }.`)
	main := prog.Functions[0]

	Clean(main)
	firstCount := len(main.Blocks)
	Clean(main)
	if len(main.Blocks) != firstCount {
		t.Fatalf("Clean is not idempotent: %d blocks then %d", firstCount, len(main.Blocks))
	}
}

func TestCSE_ScopedToDominatingBranchOnly(t *testing.T) {
	prog := buildOrFail(t, `main var a,x,y; { let a <- call InputNum; if a < 0 then let x <- a*a else let y <- a*a fi; call OutputNum(a) }.`)
	main := prog.Functions[0]

	dom := ir.ComputeDominance(main)
	tracker := BuildUseTracker(main)
	CSE(main, dom, tracker)

	if n := countOpcode(main, ir.OpMul); n != 2 {
		t.Fatalf("expected both branch multiplies to survive (no shared dominator computes a*a), got %d", n)
	}
}
