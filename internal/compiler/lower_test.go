package compiler

import (
	"testing"

	"github.com/mgdickerson/cRust-sub000/internal/dlx"
	"github.com/mgdickerson/cRust-sub000/internal/ir"
	"github.com/mgdickerson/cRust-sub000/internal/optimizer"
	"github.com/mgdickerson/cRust-sub000/internal/parser"
	"github.com/mgdickerson/cRust-sub000/internal/phi"
	"github.com/mgdickerson/cRust-sub000/internal/regalloc"
)

// readyToLower runs every pass Lower itself assumes already ran (build,
// optimize, allocate, resolve phis) and hands back the resulting Program,
// mirroring what Compiler.AllocateAndLower does internally.
func readyToLower(t *testing.T, source string) *ir.Program {
	t.Helper()
	comp, errs := parser.Parse("test.dlx", source)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	prog, ctx, diags := ir.Build(comp)
	if len(diags) > 0 {
		t.Fatalf("build diagnostics: %v", diags)
	}
	optimizer.Run(prog)
	for _, fn := range prog.Functions {
		if _, allocErr := regalloc.Allocate(fn, prog.Globals, ctx); allocErr != nil {
			t.Fatalf("allocation failed for %s: %v", fn.Name, allocErr)
		}
		phi.Resolve(fn, ctx)
		phi.Cleanup(fn)
	}
	return prog
}

func TestLower_EveryWordRoundTrips(t *testing.T) {
	prog := readyToLower(t, `main var a; { let a <- 1 + 2; call OutputNum(a); call OutputNewLine }.`)
	lp, err := Lower(prog)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if len(lp.Instructions) == 0 {
		t.Fatal("expected at least one emitted instruction")
	}
	for i, w := range lp.Words() {
		if dlx.Pack(dlx.Decode(w)) != w {
			t.Fatalf("word %d (%#08x) failed its own encode/decode round trip", i, w)
		}
	}
}

func TestLower_MainEntryIsWordZero(t *testing.T) {
	prog := readyToLower(t, `
		function addOne(n); { return n + 1 };
		main var a; { let a <- call addOne(4); call OutputNum(a) }.`)
	lp, err := Lower(prog)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if lp.FunctionEntries["main"] != 0 {
		t.Fatalf("expected main's entry to be word 0, got %d", lp.FunctionEntries["main"])
	}
	if _, ok := lp.FunctionEntries["addOne"]; !ok {
		t.Fatal("expected addOne to have a recorded entry point")
	}
}

func TestLower_ConditionalBranchTargetsLandInBounds(t *testing.T) {
	prog := readyToLower(t, `main var a,x; { let a <- call InputNum; if a < 0 then let x <- 0-a else let x <- a fi; call OutputNum(x) }.`)
	lp, err := Lower(prog)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	for i, in := range lp.Instructions {
		if !dlx.IsBranch(in.Op) || in.Op == dlx.BSR {
			continue
		}
		target := i + in.C
		if target < 0 || target >= len(lp.Instructions) {
			t.Fatalf("branch at word %d has out-of-bounds target %d (program has %d words)", i, target, len(lp.Instructions))
		}
	}
}

func TestLower_CallSitesSaveAndRestoreEveryGeneralRegister(t *testing.T) {
	prog := readyToLower(t, `
		function addOne(n); { return n + 1 };
		main var a; { let a <- call addOne(4); call OutputNum(a) }.`)
	lp, err := Lower(prog)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	pushes, pops := 0, 0
	for _, in := range lp.Instructions {
		switch in.Op {
		case dlx.PSH:
			pushes++
		case dlx.POP:
			pops++
		}
	}
	if pushes == 0 || pushes != pops {
		t.Fatalf("expected balanced PSH/POP around the call, got pushes=%d pops=%d", pushes, pops)
	}
	// Every call site saves r1..r8 plus the link register r31.
	if pushes%(regalloc.NumColors+1) != 0 {
		t.Fatalf("expected pushes to come in full (NumColors+1)-sized groups (general-purpose registers plus r31), got %d", pushes)
	}
}

// TestLower_NestedCallPreservesLinkRegister exercises spec.md §8 scenario
// 4's recursive fact: a call site inside fact's own body (the recursive
// call) sits between fact's own BSR-return-address save and its RET.
// Without saving r31 around every call, the inner BSR would overwrite
// the return address fact's own RET depends on.
func TestLower_NestedCallPreservesLinkRegister(t *testing.T) {
	prog := readyToLower(t, `
		function fact(n); { if n <= 1 then return 1 else return n * call fact(n - 1) fi };
		main { call OutputNum(call fact(6)) }.`)
	lp, err := Lower(prog)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	var bsrIdx []int
	for i, in := range lp.Instructions {
		if in.Op == dlx.BSR {
			bsrIdx = append(bsrIdx, i)
		}
	}
	if len(bsrIdx) == 0 {
		t.Fatal("expected at least one BSR in the lowered program")
	}

	for _, idx := range bsrIdx {
		if idx == 0 || lp.Instructions[idx-1].Op != dlx.PSH || lp.Instructions[idx-1].A != regRA {
			t.Fatalf("BSR at word %d is not immediately preceded by a PSH of the link register (r%d)", idx, regRA)
		}
		if idx+1 >= len(lp.Instructions) || lp.Instructions[idx+1].Op != dlx.POP || lp.Instructions[idx+1].A != regRA {
			t.Fatalf("BSR at word %d is not immediately followed by a POP of the link register (r%d)", idx, regRA)
		}
	}

	// fact's own recursive call site must fully nest its own PSH/POP
	// pair around its BSR without imbalancing the surrounding sequence:
	// walking every PSH/POP as a stack depth counter should never go
	// negative and must return to zero by the end of the program.
	depth := 0
	for _, in := range lp.Instructions {
		switch in.Op {
		case dlx.PSH:
			depth++
		case dlx.POP:
			depth--
		}
		if depth < 0 {
			t.Fatal("POP observed with no matching outstanding PSH: save/restore sequence is unbalanced")
		}
	}
	if depth != 0 {
		t.Fatalf("expected every PSH to be matched by a POP by end of program, final depth %d", depth)
	}
}
