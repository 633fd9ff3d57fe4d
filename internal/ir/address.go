package ir

// AddressKind classifies a UniqueAddress's storage class (spec.md §3).
type AddressKind int

const (
	AddrGlobalVar AddressKind = iota
	AddrLocalVar
	AddrSpill
	AddrStackPointer
	AddrFramePointer
	AddrGlobalBase
	AddrReturnSlot // carried from original_source/ret_register.rs, see SPEC_FULL.md
)

// UniqueAddress is a static storage slot: a byte offset within the
// globals region or a function's frame, assigned by the address-layout
// pass (spec.md §3).
type UniqueAddress struct {
	ID     int
	Base   string
	Kind   AddressKind
	Size   int // bytes
	Offset int // byte offset, filled in by AssignLayout
	Func   *Function
}

// AddressTable owns every UniqueAddress created during a compilation and
// performs the address-assignment pass that lays globals and each
// function's frame out as byte offsets (spec.md §4.1's "Global/parameter
// scan" feeds this; the layout itself runs once IR construction for every
// function has finished collecting its locals/spills).
type AddressTable struct {
	nextID       int
	globals      []*UniqueAddress
	globalsByID  map[string]*UniqueAddress
	globalsBytes int
}

// NewAddressTable creates an empty table.
func NewAddressTable() *AddressTable {
	return &AddressTable{globalsByID: make(map[string]*UniqueAddress)}
}

func (t *AddressTable) newAddr(base string, kind AddressKind, size int, fn *Function) *UniqueAddress {
	a := &UniqueAddress{ID: t.nextID, Base: base, Kind: kind, Size: size, Func: fn}
	t.nextID++
	return a
}

// DeclareGlobal reserves a global scalar slot (size 4 bytes).
func (t *AddressTable) DeclareGlobal(name string) *UniqueAddress {
	a := t.newAddr(name, AddrGlobalVar, 4, nil)
	t.globals = append(t.globals, a)
	t.globalsByID[name] = a
	return a
}

// DeclareGlobalArray reserves a global array slot sized elemSize*count
// bytes.
func (t *AddressTable) DeclareGlobalArray(name string, count int) *UniqueAddress {
	a := t.newAddr(name, AddrGlobalVar, 4*count, nil)
	t.globals = append(t.globals, a)
	t.globalsByID[name] = a
	return a
}

// Global looks up a previously declared global by name.
func (t *AddressTable) Global(name string) *UniqueAddress { return t.globalsByID[name] }

// DeclareLocal reserves a scalar local slot within fn's frame.
func (t *AddressTable) DeclareLocal(fn *Function, name string) *UniqueAddress {
	a := t.newAddr(name, AddrLocalVar, 4, fn)
	fn.Frame = append(fn.Frame, a)
	return a
}

// DeclareLocalArray reserves an array local slot within fn's frame.
func (t *AddressTable) DeclareLocalArray(fn *Function, name string, count int) *UniqueAddress {
	a := t.newAddr(name, AddrLocalVar, 4*count, fn)
	fn.Frame = append(fn.Frame, a)
	return a
}

// DeclareSpill reserves a fresh 4-byte spill slot within fn's frame,
// named per spec.md §4.4 ("spill_valN").
func (t *AddressTable) DeclareSpill(fn *Function, n int) *UniqueAddress {
	a := t.newAddr(spillName(n), AddrSpill, 4, fn)
	fn.Frame = append(fn.Frame, a)
	return a
}

func spillName(n int) string {
	digits := [...]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	if n < 10 {
		return "spill_val" + string(digits[n])
	}
	// Spills beyond single digits are rare for this language's test
	// programs, but handled generally.
	var buf []byte
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return "spill_val" + string(buf)
}

// DeclareReturnSlot reserves fn's single return-value slot.
func (t *AddressTable) DeclareReturnSlot(fn *Function) *UniqueAddress {
	a := t.newAddr(fn.Name+"$ret", AddrReturnSlot, 4, fn)
	fn.Frame = append(fn.Frame, a)
	return a
}

// AssignLayout lays the globals region out first, then every function's
// frame immediately after it, each function's frame getting its own
// non-overlapping absolute base (Function.FrameBase) within the same flat
// memory image. A function's local/param/spill/return-slot addresses are
// therefore compile-time-constant absolute offsets (FrameBase + a.Offset),
// not runtime-relative to a frame pointer — see Function.FrameBase's doc
// comment. Capacity errors (spec.md §7) are raised by the caller if the
// resulting total size exceeds the target's memory budget; this pass
// itself cannot fail.
//
// Re-running AssignLayout (e.g. after internal/regalloc declares a new
// spill slot mid-allocation) is safe: every offset is recomputed from
// scratch in the same deterministic order, so frames never overlap. The
// globals region, every frame laid out before the grown one, and the
// grown frame's existing slots keep their addresses; the new slot lands
// at the end of its frame, and every frame laid out after it moves up by
// the new slot's size.
func (t *AddressTable) AssignLayout(functions []*Function) {
	offset := 0
	for _, a := range t.globals {
		a.Offset = offset
		offset += a.Size
	}
	t.globalsBytes = offset

	for _, fn := range functions {
		fn.FrameBase = offset
		foff := 0
		for _, a := range fn.Frame {
			a.Offset = foff
			foff += a.Size
		}
		fn.FrameSize = foff
		offset += foff
	}
}

// GlobalsSize returns the total byte size of the globals region after
// AssignLayout has run.
func (t *AddressTable) GlobalsSize() int { return t.globalsBytes }
