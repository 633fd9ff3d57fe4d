package ir

import (
	"github.com/mgdickerson/cRust-sub000/internal/ast"
	"github.com/mgdickerson/cRust-sub000/internal/errors"
)

// Builder lowers a parsed Computation into SSA-form IR, one Function per
// declared function plus an implicit "main". Grounded on the teacher's
// internal/ir builder pass, restructured around this language's six
// statement forms and PL/0-style global/local/array scoping instead of
// Kanso's contract storage model.
type Builder struct {
	ctx *Context

	globalScope  *Scope
	globalArrays map[string]*UniqueArray
	funcs        map[string]*Function

	fn       *Function
	curBlock *Block

	diags []errors.CompilerError
}

// Build lowers comp into a Program, along with the Context that produced
// it. Diagnostics are accumulated rather than raised as Go errors so that
// one malformed function does not prevent the rest of the program from
// being lowered, matching the parser's recovery style. Callers that go on
// to run the optimizer and register allocator must keep using the
// returned Context so that Op/Block ids stay monotonic across the whole
// pipeline (spec.md §9's "per-compilation context").
func Build(comp *ast.Computation) (*Program, *Context, []errors.CompilerError) {
	b := &Builder{
		ctx:          NewContext(),
		globalScope:  NewScope(),
		globalArrays: make(map[string]*UniqueArray),
		funcs:        make(map[string]*Function),
	}

	b.declareGlobals(comp.Globals)

	// Two-pass: declare every function's signature and parameter frame
	// slots first, so forward and mutually-recursive calls resolve.
	for _, fd := range comp.Functions {
		if _, dup := b.funcs[fd.Name.Value]; dup {
			b.err(errors.DuplicateDeclaration(fd.Name.Value, fd.Pos))
			continue
		}
		b.funcs[fd.Name.Value] = b.declareFunctionSignature(fd)
	}

	for _, fd := range comp.Functions {
		fn, ok := b.funcs[fd.Name.Value]
		if !ok {
			continue
		}
		b.lowerFunctionBody(fn, fd)
	}

	b.lowerMain(comp)

	b.ctx.Program.Globals.AssignLayout(b.ctx.Program.Functions)
	return b.ctx.Program, b.ctx, b.diags
}

func (b *Builder) err(e errors.CompilerError) { b.diags = append(b.diags, e) }

// --- declarations ---

func (b *Builder) declareGlobals(decls []ast.Decl) {
	for _, d := range decls {
		switch decl := d.(type) {
		case *ast.VarDecl:
			for _, name := range decl.Names {
				if b.globalScope.Lookup(name.Value) != nil {
					b.err(errors.DuplicateDeclaration(name.Value, name.Pos))
					continue
				}
				b.ctx.Program.Globals.DeclareGlobal(name.Value)
				m := b.globalScope.Declare(name.Value)
				m.NewVersion(nil, ConstValue(0))
			}
		case *ast.ArrayDecl:
			count := 1
			for _, dim := range decl.Dimensions {
				count *= dim
			}
			for _, name := range decl.Names {
				if _, dup := b.globalArrays[name.Value]; dup {
					b.err(errors.DuplicateDeclaration(name.Value, name.Pos))
					continue
				}
				addr := b.ctx.Program.Globals.DeclareGlobalArray(name.Value, count)
				arr := b.ctx.NewArray(name.Value, decl.Dimensions, addr)
				b.globalArrays[name.Value] = arr
			}
		}
	}
}

func (b *Builder) declareFunctionSignature(fd *ast.FuncDecl) *Function {
	paramNames := make([]string, len(fd.Params))
	for i, p := range fd.Params {
		paramNames[i] = p.Value
	}
	fn := b.ctx.NewFunction(fd.Name.Value, paramNames)
	for _, p := range fd.Params {
		b.ctx.Program.Globals.DeclareLocal(fn, p.Value)
	}
	if fd.Returns {
		fn.Returns = true
		fn.ReturnSlot = b.ctx.Program.Globals.DeclareReturnSlot(fn)
	}
	return fn
}

// --- function lowering ---

func (b *Builder) lowerFunctionBody(fn *Function, fd *ast.FuncDecl) {
	b.fn = fn
	head := b.ctx.NewBlock(fn, BlockFunctionHead, fn.Name+"_entry")
	fn.Entry = head
	b.curBlock = head

	for _, p := range fd.Params {
		mgr := fn.Scope.Declare(p.Value)
		addr := fn.paramAddr(p.Value)
		op := head.NewOp(b.ctx, OpPLoad)
		op.X = addrPtr(AddrValue(addr))
		mgr.NewVersion(head, OpValue(op))
	}

	b.declareLocals(fn, fd.Locals)

	for _, stmt := range fd.Body {
		b.lowerStmt(stmt)
	}

	if b.curBlock != nil && b.curBlock.Terminator() == nil {
		b.curBlock.NewOp(b.ctx, OpRet)
	}
	b.curBlock = nil
}

func (b *Builder) declareLocals(fn *Function, decls []ast.Decl) {
	for _, d := range decls {
		switch decl := d.(type) {
		case *ast.VarDecl:
			for _, name := range decl.Names {
				if fn.Scope.Lookup(name.Value) != nil {
					b.err(errors.DuplicateDeclaration(name.Value, name.Pos))
					continue
				}
				mgr := fn.Scope.Declare(name.Value)
				mgr.NewVersion(fn.Entry, ConstValue(0))
			}
		case *ast.ArrayDecl:
			count := 1
			for _, dim := range decl.Dimensions {
				count *= dim
			}
			for _, name := range decl.Names {
				if _, dup := fn.Arrays[name.Value]; dup {
					b.err(errors.DuplicateDeclaration(name.Value, name.Pos))
					continue
				}
				addr := b.ctx.Program.Globals.DeclareLocalArray(fn, name.Value, count)
				arr := b.ctx.NewArray(name.Value, decl.Dimensions, addr)
				fn.Arrays[name.Value] = arr
			}
		}
	}
}

func (b *Builder) lowerMain(comp *ast.Computation) {
	fn := b.ctx.NewFunction("main", nil)
	// main's var declarations are the program's globals, so main versions
	// them (and places phis for them) through the global scope directly.
	fn.Scope = b.globalScope
	b.fn = fn
	entry := b.ctx.NewBlock(fn, BlockMain, "main")
	fn.Entry = entry
	b.curBlock = entry

	for _, stmt := range comp.Body {
		b.lowerStmt(stmt)
	}
	if b.curBlock != nil && b.curBlock.Terminator() == nil {
		b.curBlock.NewOp(b.ctx, OpEnd)
	}
}

// --- statements ---

func (b *Builder) lowerStmt(s ast.Stmt) {
	if b.curBlock == nil {
		return // unreachable: falls past an unconditional return
	}
	switch st := s.(type) {
	case *ast.Assignment:
		b.lowerAssignment(st)
	case *ast.If:
		b.lowerIf(st)
	case *ast.While:
		b.lowerWhile(st)
	case *ast.Return:
		b.lowerReturn(st)
	case *ast.FuncCall:
		b.lowerCall(st, false)
	}
}

func (b *Builder) lowerAssignment(a *ast.Assignment) {
	val := b.lowerExpr(a.Value)

	if a.Target.Index == nil {
		if _, isArr := b.resolveArray(a.Target.Name.Value); isArr {
			b.err(errors.ArrayScalarMismatch(a.Target.Name.Value, true, a.Target.Pos))
			return
		}
		mgr := b.fn.Scope.Lookup(a.Target.Name.Value)
		if mgr == nil {
			mgr = b.globalScope.Lookup(a.Target.Name.Value)
		}
		if mgr == nil {
			// Assigning to an undeclared scalar declares it in the current
			// function; only reading an undeclared name is an error.
			mgr = b.fn.Scope.Declare(a.Target.Name.Value)
		}
		mgr.NewVersion(b.curBlock, val)
		return
	}

	arr := b.lookupArray(a.Target.Name.Value, a.Target.Pos)
	if arr == nil {
		return
	}
	idx := b.lowerExpr(a.Target.Index)
	addrOp := b.emitAdda(arr, idx)
	store := b.curBlock.NewOp(b.ctx, OpStore)
	store.X = addrPtr(OpValue(addrOp))
	store.Y = addrPtr(val)
	recordUse(val, store)
}

func (b *Builder) lowerReturn(r *ast.Return) {
	if r.Value != nil {
		val := b.lowerExpr(r.Value)
		st := b.curBlock.NewOp(b.ctx, OpPStore)
		st.X = addrPtr(AddrValue(b.fn.ReturnSlot))
		st.Y = addrPtr(val)
		recordUse(val, st)
	}
	b.curBlock.NewOp(b.ctx, OpRet)
	b.curBlock = nil
}

// lowerCall lowers a call used as a statement (asValue == false, result
// discarded) or as a value-producing factor (asValue == true, returns the
// loaded result).
func (b *Builder) lowerCall(c *ast.FuncCall, asValue bool) Value {
	switch c.Name.Value {
	case "InputNum":
		op := b.curBlock.NewOp(b.ctx, OpRead)
		return OpValue(op)
	case "OutputNum":
		if len(c.Args) != 1 {
			b.err(errors.ArityMismatch("OutputNum", 1, len(c.Args), c.Pos))
			return ConstValue(0)
		}
		val := b.lowerExpr(c.Args[0])
		op := b.curBlock.NewOp(b.ctx, OpWrite)
		op.X = addrPtr(val)
		recordUse(val, op)
		return ConstValue(0)
	case "OutputNewLine":
		b.curBlock.NewOp(b.ctx, OpWriteNL)
		return ConstValue(0)
	}

	fn, ok := b.funcs[c.Name.Value]
	if !ok {
		b.err(errors.UndefinedFunction(c.Name.Value, c.Pos, b.similarFuncNames(c.Name.Value)))
		return ConstValue(0)
	}
	if len(c.Args) != len(fn.Params) {
		b.err(errors.ArityMismatch(c.Name.Value, len(fn.Params), len(c.Args), c.Pos))
	}
	for i, arg := range c.Args {
		if i >= len(fn.Params) {
			break
		}
		val := b.lowerExpr(arg)
		addr := fn.paramAddr(fn.Params[i])
		st := b.curBlock.NewOp(b.ctx, OpPStore)
		st.X = addrPtr(AddrValue(addr))
		st.Y = addrPtr(val)
		recordUse(val, st)
	}
	call := b.curBlock.NewOp(b.ctx, OpCall)
	call.Target = fn.Name

	if asValue || fn.Returns {
		if !fn.Returns {
			b.err(errors.VoidInExpression(c.Name.Value, c.Pos))
			return ConstValue(0)
		}
		ld := b.curBlock.NewOp(b.ctx, OpPLoad)
		ld.X = addrPtr(AddrValue(fn.ReturnSlot))
		return OpValue(ld)
	}
	return ConstValue(0)
}

// similarFuncNames proposes did-you-mean candidates among declared
// function names for an undefined-function diagnostic.
func (b *Builder) similarFuncNames(name string) []string {
	cands := make([]string, 0, len(b.funcs))
	for n := range b.funcs {
		cands = append(cands, n)
	}
	return errors.FindSimilarNames(name, cands)
}

// --- if / while ---

func (b *Builder) lowerIf(n *ast.If) {
	beforeTable := b.curScope().Snapshot()

	header := b.curBlock
	header.Kind = BlockIfHeader

	thenBlock := b.ctx.NewBlock(b.fn, BlockIfThen, "then")
	AddEdge(header, thenBlock)

	var elseBlock *Block
	if n.Else != nil {
		elseBlock = b.ctx.NewBlock(b.fn, BlockElse, "else")
		AddEdge(header, elseBlock)
	}
	join := b.ctx.NewBlock(b.fn, BlockPhiJoin, "join")

	falseTarget := elseBlock
	if falseTarget == nil {
		falseTarget = join
		AddEdge(header, join)
	}
	b.emitCondBranch(n.Cond, falseTarget)

	b.curBlock = thenBlock
	for _, s := range n.Then {
		b.lowerStmt(s)
	}
	thenEnd := b.curBlock
	thenTable := b.curScope().Snapshot()
	if thenEnd != nil {
		AddEdge(thenEnd, join)
	}

	var elseTable VarTable
	var elseEnd *Block
	if n.Else != nil {
		b.curScope().Restore(beforeTable)
		b.curBlock = elseBlock
		for _, s := range n.Else {
			b.lowerStmt(s)
		}
		elseEnd = b.curBlock
		elseTable = b.curScope().Snapshot()
		if elseEnd != nil {
			AddEdge(elseEnd, join)
		}
	} else {
		elseTable = beforeTable
		elseEnd = header
	}

	b.curBlock = join
	b.curScope().Restore(beforeTable)
	for _, name := range b.curScope().Names() {
		tv, tok := thenTable[name]
		ev, eok := elseTable[name]
		if !tok && !eok {
			continue
		}
		if tok && eok && tv == ev {
			b.curScope().managerFor(name).SetCurrent(tv)
			continue
		}
		phi := join.NewOp(b.ctx, OpPhi)
		if thenEnd != nil && tok {
			phi.PhiInputs = append(phi.PhiInputs, PhiInput{Pred: thenEnd, Value: VarValue(tv)})
		}
		if elseEnd != nil && eok {
			phi.PhiInputs = append(phi.PhiInputs, PhiInput{Pred: elseEnd, Value: VarValue(ev)})
		}
		b.curScope().managerFor(name).NewVersion(join, OpValue(phi))
	}
}

func (b *Builder) lowerWhile(n *ast.While) {
	preHeader := b.curBlock
	header := b.ctx.NewBlock(b.fn, BlockWhileHeader, "while_header")
	AddEdge(preHeader, header)

	written := collectAssignedNames(n.Body)

	phis := make(map[string]*Op, len(written))
	b.curBlock = header
	for name := range written {
		mgr := b.curScope().managerFor(name)
		if mgr == nil {
			continue
		}
		prev := mgr.Current()
		if prev == nil {
			continue
		}
		phi := header.NewOp(b.ctx, OpPhi)
		phi.PhiInputs = append(phi.PhiInputs, PhiInput{Pred: preHeader, Value: VarValue(prev)})
		phis[name] = phi
		mgr.NewVersion(header, OpValue(phi))
	}

	body := b.ctx.NewBlock(b.fn, BlockWhileBody, "while_body")
	exit := b.ctx.NewBlock(b.fn, BlockWhileExit, "while_exit")
	AddEdge(header, body)
	AddEdge(header, exit)
	b.emitCondBranch(n.Cond, exit)

	b.curBlock = body
	for _, s := range n.Body {
		b.lowerStmt(s)
	}
	bodyEnd := b.curBlock
	if bodyEnd != nil {
		AddEdge(bodyEnd, header)
		endTable := b.curScope().Snapshot()
		for name, phi := range phis {
			if v, ok := endTable[name]; ok {
				phi.PhiInputs = append(phi.PhiInputs, PhiInput{Pred: bodyEnd, Value: VarValue(v)})
			}
		}
	}

	b.curBlock = exit
}

// collectAssignedNames returns every scalar variable name assigned
// anywhere within stmts, recursing into nested if/while bodies. Array
// element stores are excluded: arrays are memory-resident and never gain
// an SSA version, so they never need a loop-header phi.
func collectAssignedNames(stmts []ast.Stmt) map[string]bool {
	out := make(map[string]bool)
	var walk func([]ast.Stmt)
	walk = func(list []ast.Stmt) {
		for _, s := range list {
			switch st := s.(type) {
			case *ast.Assignment:
				if st.Target.Index == nil {
					out[st.Target.Name.Value] = true
				}
			case *ast.If:
				walk(st.Then)
				walk(st.Else)
			case *ast.While:
				walk(st.Body)
			}
		}
	}
	walk(stmts)
	return out
}

// --- expressions ---

func (b *Builder) lowerExpr(e ast.Expr) Value {
	switch expr := e.(type) {
	case *ast.Expression:
		v := b.lowerExpr(expr.First)
		for _, tail := range expr.Rest {
			rhs := b.lowerExpr(tail.Term)
			opc := OpAdd
			if tail.Op == ast.OP_SUB {
				opc = OpSub
			}
			v = b.emitArith(opc, v, rhs)
		}
		return v
	case *ast.Term:
		v := b.lowerExpr(expr.First)
		for _, tail := range expr.Rest {
			rhs := b.lowerExpr(tail.Factor)
			opc := OpMul
			if tail.Op == ast.OP_DIV {
				opc = OpDiv
			}
			v = b.emitArith(opc, v, rhs)
		}
		return v
	case *ast.Factor:
		return b.lowerFactor(expr)
	case *ast.Designator:
		return b.lowerDesignator(expr)
	case *ast.Number:
		return ConstValue(expr.Value)
	case *ast.FuncCall:
		return b.lowerCall(expr, true)
	}
	return ConstValue(0)
}

func (b *Builder) lowerFactor(f *ast.Factor) Value {
	switch {
	case f.Number != nil:
		return ConstValue(f.Number.Value)
	case f.Designator != nil:
		return b.lowerDesignator(f.Designator)
	case f.Paren != nil:
		return b.lowerExpr(f.Paren)
	case f.Call != nil:
		return b.lowerCall(f.Call, true)
	}
	return ConstValue(0)
}

func (b *Builder) lowerDesignator(d *ast.Designator) Value {
	if d.Index == nil {
		mgr := b.lookupScalar(d.Name.Value, d.Pos)
		if mgr == nil {
			return ConstValue(0)
		}
		cur := mgr.Current()
		if cur == nil {
			return ConstValue(0)
		}
		return VarValue(cur)
	}
	arr := b.lookupArray(d.Name.Value, d.Pos)
	if arr == nil {
		return ConstValue(0)
	}
	idx := b.lowerExpr(d.Index)
	addrOp := b.emitAdda(arr, idx)
	ld := b.curBlock.NewOp(b.ctx, OpLoad)
	ld.X = addrPtr(OpValue(addrOp))
	return OpValue(ld)
}

func (b *Builder) emitAdda(arr *UniqueArray, linearIndex Value) *Op {
	op := b.curBlock.NewOp(b.ctx, OpAdda)
	op.X = addrPtr(ArrayValue(arr))
	var scaled Value
	if linearIndex.IsConst() {
		scaled = ConstValue(4 * linearIndex.Const)
	} else {
		mul := b.curBlock.NewOp(b.ctx, OpMul)
		mul.X = addrPtr(linearIndex)
		mul.Y = addrPtr(ConstValue(4))
		recordUse(linearIndex, mul)
		scaled = OpValue(mul)
	}
	op.Y = addrPtr(scaled)
	return op
}

func (b *Builder) emitArith(opc Opcode, x, y Value) Value {
	if x.IsConst() && y.IsConst() {
		if folded, ok := foldConst(opc, x.Const, y.Const); ok {
			return ConstValue(folded)
		}
	}
	op := b.curBlock.NewOp(b.ctx, opc)
	op.X = addrPtr(x)
	op.Y = addrPtr(y)
	recordUse(x, op)
	recordUse(y, op)
	return OpValue(op)
}

// foldConst evaluates a constant arithmetic op eagerly at build time.
// Division by zero is not folded here: the division Op is left in place
// and surfaced later as a diagnostic candidate by the optimizer's
// constant-folding pass (spec.md §4.2); the Op carries no source position.
func foldConst(opc Opcode, x, y int) (int, bool) {
	switch opc {
	case OpAdd:
		return x + y, true
	case OpSub:
		return x - y, true
	case OpMul:
		return x * y, true
	case OpDiv:
		if y == 0 {
			return 0, false
		}
		return x / y, true
	}
	return 0, false
}

func (b *Builder) emitCondBranch(cond *ast.Relation, targetIfFalse *Block) {
	left := b.lowerExpr(cond.Left)
	right := b.lowerExpr(cond.Right)
	cmp := b.curBlock.NewOp(b.ctx, OpCmp)
	cmp.X = addrPtr(left)
	cmp.Y = addrPtr(right)
	recordUse(left, cmp)
	recordUse(right, cmp)

	br := b.curBlock.NewOp(b.ctx, negatedBranchOp(cond.Op))
	br.X = addrPtr(OpValue(cmp))
	br.Dest = targetIfFalse
}

func negatedBranchOp(op ast.RelOp) Opcode {
	switch op {
	case ast.REL_EQ:
		return OpBne
	case ast.REL_NE:
		return OpBeq
	case ast.REL_LT:
		return OpBge
	case ast.REL_LE:
		return OpBgt
	case ast.REL_GT:
		return OpBle
	case ast.REL_GE:
		return OpBlt
	}
	return OpBra
}

// --- scope helpers ---

func (b *Builder) curScope() *Scope { return b.fn.Scope }

func (b *Builder) resolveArray(name string) (*UniqueArray, bool) {
	if a, ok := b.fn.Arrays[name]; ok {
		return a, true
	}
	if a, ok := b.globalArrays[name]; ok {
		return a, true
	}
	return nil, false
}

func (b *Builder) lookupScalar(name string, pos ast.Position) *VariableManager {
	if mgr := b.fn.Scope.Lookup(name); mgr != nil {
		return mgr
	}
	if mgr := b.globalScope.Lookup(name); mgr != nil {
		return mgr
	}
	b.err(errors.UndefinedVariable(name, pos, nil))
	return nil
}

func (b *Builder) lookupArray(name string, pos ast.Position) *UniqueArray {
	if a, ok := b.resolveArray(name); ok {
		return a
	}
	b.err(errors.UndefinedVariable(name, pos, nil))
	return nil
}

func recordUse(v Value, op *Op) {
	if v.Var != nil {
		v.Var.RecordUse(op)
	}
}

func addrPtr(v Value) *Value { return &v }

func (s *Scope) managerFor(name string) *VariableManager { return s.managers[name] }
