// Package compiler is the host-facing driver that wires the middle end's
// five passes into the three operations spec.md §6 names: BuildSSA,
// Optimize, AllocateAndLower. Grounded on the teacher's top-level
// compilation entry point (kanso-lang-kanso's main.go/ast_conversion.go
// drive parse -> lower -> typecheck -> emit in sequence), generalized to
// this middle end's five-stage pipeline.
package compiler

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/mgdickerson/cRust-sub000/internal/ast"
	"github.com/mgdickerson/cRust-sub000/internal/dlx"
	"github.com/mgdickerson/cRust-sub000/internal/errors"
	"github.com/mgdickerson/cRust-sub000/internal/ir"
	"github.com/mgdickerson/cRust-sub000/internal/optimizer"
	"github.com/mgdickerson/cRust-sub000/internal/phi"
	"github.com/mgdickerson/cRust-sub000/internal/regalloc"
)

// Context carries one compilation's IR context plus the accumulated
// diagnostic list and fatal flag, checked only at pass boundaries (never
// mid-pass) per spec.md §5 and §7's error-handling design.
type Context struct {
	*ir.Context

	Diagnostics []errors.CompilerError
	Fatal       bool
}

func (c *Context) absorb(diags []errors.CompilerError) {
	c.Diagnostics = append(c.Diagnostics, diags...)
	for _, d := range diags {
		if d.Level == errors.Error {
			c.Fatal = true
		}
	}
}

// Compiler exposes the three host operations named in spec.md §6. It
// carries no state of its own: every method takes or returns the Context
// that threads state across calls, matching spec.md §9's "no process-wide
// state" and letting a host compile several programs in sequence, each
// with its own Context.
type Compiler struct{}

// New returns a ready-to-use Compiler.
func New() *Compiler { return &Compiler{} }

// BuildSSA lowers a parsed Computation into SSA-form IR. Parser-reported
// syntax errors never reach this call (the caller checks those first);
// BuildSSA only surfaces the builder's own semantic diagnostics
// (undefined identifiers, arity mismatches, redefinitions, and the like).
func (c *Compiler) BuildSSA(comp *ast.Computation) (*Context, error) {
	_, irCtx, diags := ir.Build(comp)
	ctx := &Context{Context: irCtx}
	ctx.absorb(diags)
	if ctx.Fatal {
		return ctx, pkgerrors.Errorf("BuildSSA: %d error(s), see Context.Diagnostics", countErrors(ctx.Diagnostics))
	}
	return ctx, nil
}

// Optimize runs constant folding, dominator-scoped CSE, and dead-code
// elimination to a fixed point, then cleans unreachable blocks, over
// every function ctx holds. Division-by-zero candidates the optimizer
// declines to fold are recorded as warnings rather than errors: spec.md
// §4.2 treats them as a diagnostic, not a build failure.
func (c *Compiler) Optimize(ctx *Context) error {
	if ctx.Fatal {
		return pkgerrors.New("Optimize: called on a Context with unresolved fatal diagnostics")
	}
	results := optimizer.Run(ctx.Program)
	for _, r := range results {
		for range r.DivByZero {
			ctx.Diagnostics = append(ctx.Diagnostics, errors.DivisionByZero(r.Function.Name, ast.Position{}))
		}
	}
	return nil
}

// AllocateAndLower runs register allocation (with spilling), phi
// resolution, and DLX lowering over every function ctx holds, returning
// the assembled LinearProgram. This is the last pass boundary: a capacity
// diagnostic from any one function's allocator aborts the whole
// compilation, matching spec.md §7's treatment of E03xx as fatal.
func (c *Compiler) AllocateAndLower(ctx *Context) (*LinearProgram, error) {
	if ctx.Fatal {
		return nil, pkgerrors.New("AllocateAndLower: called on a Context with unresolved fatal diagnostics")
	}

	for _, fn := range ctx.Program.Functions {
		_, allocErr := regalloc.Allocate(fn, ctx.Program.Globals, ctx.Context)
		if allocErr != nil {
			ctx.Diagnostics = append(ctx.Diagnostics, *allocErr)
			ctx.Fatal = true
			return nil, pkgerrors.Wrapf(fmt.Errorf("%s", allocErr.Message), "allocating %s", fn.Name)
		}
		phi.Resolve(fn, ctx.Context)
		phi.Cleanup(fn)
	}

	lp, err := Lower(ctx.Program)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "lowering to DLX")
	}
	return lp, nil
}

func countErrors(diags []errors.CompilerError) int {
	n := 0
	for _, d := range diags {
		if d.Level == errors.Error {
			n++
		}
	}
	return n
}

// roundTripCheck is a defensive internal-invariant assertion available to
// callers that want to confirm a just-packed word decodes back to an
// identical instruction before committing to it (spec.md §8's DLX
// round-trip property). AllocateAndLower does not call this on every
// instruction (that would make every compile pay for a property the unit
// tests already cover), and no other code in this repository calls it
// either.
func roundTripCheck(words []uint32) error {
	for i, w := range words {
		if dlx.Pack(dlx.Decode(w)) != w {
			diag := errors.InternalEncodingError(i)
			return fmt.Errorf("%s", diag.Message)
		}
	}
	return nil
}
