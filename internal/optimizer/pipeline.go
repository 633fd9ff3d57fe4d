package optimizer

import "github.com/mgdickerson/cRust-sub000/internal/ir"

// maxFixedPointIterations bounds the CSE/DCE re-run loop.
// Each Op can be folded or eliminated at most once, so the loop provably
// terminates well before this many rounds for any realistic function;
// the cap exists only to turn a latent bug into a bounded loop instead
// of an infinite one.
const maxFixedPointIterations = 32

// Result summarizes one function's optimization run.
type Result struct {
	Function    *ir.Function
	DivByZero   []DivByZero
	Iterations  int
	OpsRemoved  int
}

// Run applies constant folding, CSE, and DCE to every function in prog,
// iterating CSE+DCE together until neither pass changes anything (or the
// iteration cap is hit), then runs the block cleaner once the Op-level
// fixed point is reached. Dominance is computed once per function, before
// constant folding, and shared by every pass of that function's run.
func Run(prog *ir.Program) []Result {
	results := make([]Result, 0, len(prog.Functions))
	for _, fn := range prog.Functions {
		results = append(results, runFunction(fn))
	}
	return results
}

func runFunction(fn *ir.Function) Result {
	res := Result{Function: fn}

	dom := ir.ComputeDominance(fn)
	tracker := BuildUseTracker(fn)
	res.DivByZero = append(res.DivByZero, FoldConstants(fn, dom, tracker)...)

	for i := 0; i < maxFixedPointIterations; i++ {
		res.Iterations++
		before := countActive(fn)

		CSE(fn, dom, tracker)
		removed := DCE(fn, tracker)
		res.OpsRemoved += removed

		after := countActive(fn)
		if after == before {
			break
		}
	}

	Clean(fn)
	return res
}

func countActive(fn *ir.Function) int {
	n := 0
	for _, b := range fn.Blocks {
		n += len(b.ActiveOps())
	}
	return n
}
