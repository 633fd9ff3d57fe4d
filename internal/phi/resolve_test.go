package phi

import (
	"testing"

	"github.com/mgdickerson/cRust-sub000/internal/ir"
	"github.com/mgdickerson/cRust-sub000/internal/optimizer"
	"github.com/mgdickerson/cRust-sub000/internal/parser"
	"github.com/mgdickerson/cRust-sub000/internal/regalloc"
	"github.com/stretchr/testify/require"
)

func buildAllocated(t *testing.T, source string) (*ir.Function, *ir.Context) {
	t.Helper()
	comp, errs := parser.Parse("test.dlx", source)
	require.Empty(t, errs)
	prog, ctx, diags := ir.Build(comp)
	require.Empty(t, diags)
	optimizer.Run(prog)

	main := prog.Functions[0]
	_, allocErr := regalloc.Allocate(main, prog.Globals, ctx)
	require.Nil(t, allocErr)
	return main, ctx
}

func TestResolve_DeactivatesEveryPhi(t *testing.T) {
	main, ctx := buildAllocated(t, `main var a,x; { let a <- call InputNum; if a < 0 then let x <- 0 - a else let x <- a fi; call OutputNum(x) }.`)

	hadPhi := false
	for _, b := range main.Blocks {
		for _, op := range b.ActiveOps() {
			if op.Opcode == ir.OpPhi {
				hadPhi = true
			}
		}
	}
	if !hadPhi {
		t.Fatal("expected at least one phi before resolution in this if/else scenario")
	}

	Resolve(main, ctx)

	for _, b := range main.Blocks {
		for _, op := range b.ActiveOps() {
			if op.Opcode == ir.OpPhi {
				t.Fatalf("phi op %d still active after Resolve", op.ID)
			}
		}
	}
}

func TestResolve_InsertsMovBeforeTerminator(t *testing.T) {
	main, ctx := buildAllocated(t, `main var a,x; { let a <- call InputNum; if a < 0 then let x <- 0 - a else let x <- a fi; call OutputNum(x) }.`)
	Resolve(main, ctx)

	for _, b := range main.Blocks {
		ops := b.ActiveOps()
		for i, op := range ops {
			if op.Opcode != ir.OpMov {
				continue
			}
			if i != len(ops)-1 {
				continue
			}
			t.Fatalf("mov op %d is the last op in block %d, expected a terminator after it", op.ID, b.ID)
		}
	}
}

func TestCleanup_RemovesDeactivatedOps(t *testing.T) {
	main, ctx := buildAllocated(t, `main var a,x; { let a <- call InputNum; if a < 0 then let x <- 0 - a else let x <- a fi; call OutputNum(x) }.`)
	Resolve(main, ctx)
	Cleanup(main)

	for _, b := range main.Blocks {
		for _, op := range b.Ops {
			if !op.Active {
				t.Fatalf("inactive op %d survived Cleanup in block %d", op.ID, b.ID)
			}
		}
	}
}

func TestResolve_DeactivatesEveryWhileHeaderPhi(t *testing.T) {
	main, ctx := buildAllocated(t, `main var i,s; { let s <- 0; let i <- 1; while i <= 10 do let s <- s + i; let i <- i + 1 od; call OutputNum(s) }.`)
	Resolve(main, ctx)

	for _, b := range main.Blocks {
		for _, op := range b.ActiveOps() {
			if op.Opcode == ir.OpPhi {
				t.Fatalf("phi %d survived resolution in while-loop scenario", op.ID)
			}
		}
	}
}
