package ir

// UniqueArray is a fixed-shape multidimensional array declared at global
// or function scope: a name, its dimension sizes, and the backing
// UniqueAddress its elements are laid out within (spec.md §3).
type UniqueArray struct {
	ID         int
	Base       string
	Dimensions []int
	Addr       *UniqueAddress
}

// ElementCount returns the total number of scalar elements across all
// dimensions.
func (a *UniqueArray) ElementCount() int {
	n := 1
	for _, d := range a.Dimensions {
		n *= d
	}
	return n
}

// Offset computes the byte offset of the element selected by a single
// linear index (spec.md §4.1's array indexing lowering flattens a
// multi-subscript access into one linear index before calling this).
// Caller-supplied bounds checking is out of scope, matching this
// language's Non-goals.
func (a *UniqueArray) Offset(linearIndex int) int {
	return a.Addr.Offset + 4*linearIndex
}

// Stride returns the element count of every dimension after the i'th,
// i.e. the multiplier applied to a subscript at position i when
// flattening a multidimensional access to a linear index.
func (a *UniqueArray) Stride(i int) int {
	s := 1
	for j := i + 1; j < len(a.Dimensions); j++ {
		s *= a.Dimensions[j]
	}
	return s
}
