package ir

// Program aggregates every function produced by a compilation plus the
// shared global address table (spec.md §3's top-level unit).
type Program struct {
	Functions []*Function
	Globals   *AddressTable
	Arrays    []*UniqueArray
}

// Context is the per-compilation allocator: monotonic id counters for
// Ops, Blocks, Functions, and Arrays, plus the Program being built.
// Exactly one Context exists per call to Compiler.BuildSSA.
type Context struct {
	Program *Program

	opID    int
	blockID int
	funcID  int
	arrayID int
}

// NewContext creates an empty compilation context with a fresh Program.
func NewContext() *Context {
	return &Context{Program: &Program{Globals: NewAddressTable()}}
}

func (ctx *Context) nextOpID() int {
	id := ctx.opID
	ctx.opID++
	return id
}

func (ctx *Context) nextBlockID() int {
	id := ctx.blockID
	ctx.blockID++
	return id
}

func (ctx *Context) nextFuncID() int {
	id := ctx.funcID
	ctx.funcID++
	return id
}

// NewArray allocates a UniqueArray backed by addr, with the next array
// id, and registers it on the program.
func (ctx *Context) NewArray(base string, dims []int, addr *UniqueAddress) *UniqueArray {
	a := &UniqueArray{ID: ctx.arrayID, Base: base, Dimensions: dims, Addr: addr}
	ctx.arrayID++
	ctx.Program.Arrays = append(ctx.Program.Arrays, a)
	return a
}
