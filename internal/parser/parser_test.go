package parser

import (
	"testing"

	"github.com/mgdickerson/cRust-sub000/internal/ast"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleMain(t *testing.T) {
	src := `main { let a <- 1 + 2 * 3; call OutputNum(a); call OutputNewLine }.`
	comp, errs := Parse("t.pl0", src)
	require.Empty(t, errs)
	require.Len(t, comp.Body, 3)

	assign, ok := comp.Body[0].(*ast.Assignment)
	require.True(t, ok)
	require.Equal(t, "a", assign.Target.Name.Value)
}

func TestParse_GlobalDecls(t *testing.T) {
	src := `main var i, s; { let s <- 0; let i <- 1; while i <= 10 do let s <- s + i; let i <- i + 1 od; call OutputNum(s) }.`
	comp, errs := Parse("t.pl0", src)
	require.Empty(t, errs)
	require.Len(t, comp.Globals, 1)
	vd, ok := comp.Globals[0].(*ast.VarDecl)
	require.True(t, ok)
	require.Len(t, vd.Names, 2)
}

func TestParse_ArrayDecl(t *testing.T) {
	src := `main var a; array[3] b; { let b[0] <- 10; let a <- b[0]; call OutputNum(a) }.`
	comp, errs := Parse("t.pl0", src)
	require.Empty(t, errs)
	require.Len(t, comp.Globals, 2)
	ad, ok := comp.Globals[1].(*ast.ArrayDecl)
	require.True(t, ok)
	require.Equal(t, []int{3}, ad.Dimensions)
}

func TestParse_FunctionDecl(t *testing.T) {
	src := `function fact(n); { if n <= 1 then return 1 else return n * call fact(n - 1) fi }; main { call OutputNum(call fact(6)) }.`
	comp, errs := Parse("t.pl0", src)
	require.Empty(t, errs)
	require.Len(t, comp.Functions, 1)
	fn := comp.Functions[0]
	require.Equal(t, "fact", fn.Name.Value)
	require.Len(t, fn.Params, 1)
	require.True(t, fn.Returns)
}

func TestParse_MissingRelationalOperatorReportsError(t *testing.T) {
	src := `main { if 1 then let a <- 2 fi } .`
	_, errs := Parse("t.pl0", src)
	require.NotEmpty(t, errs)
}

func TestParse_UnterminatedIfRecovers(t *testing.T) {
	src := `main { if 1 < 2 then let a <- 2; call OutputNum(a) }.`
	// missing 'fi' - parser should still report and return a best-effort AST
	comp, errs := Parse("t.pl0", src)
	require.NotEmpty(t, errs)
	require.NotNil(t, comp)
}
