package compiler

import "github.com/mgdickerson/cRust-sub000/internal/dlx"

// LinearProgram is the flat, final output of AllocateAndLower: every
// function's instructions concatenated into one address space, main
// placed first so execution starts at word 0 (matching the DLX
// reference VM's PC-reset-to-zero convention), ready to hand to
// dlx.Pack for each Instruction or to print as assembly text.
type LinearProgram struct {
	Instructions []dlx.Instruction

	// FunctionEntries maps a function name to the instruction index its
	// code begins at, for -dump-ir-style tooling and for patching BSR
	// displacements during lowering.
	FunctionEntries map[string]int
}

// Words packs every instruction into its 32-bit wire format, in order.
func (lp *LinearProgram) Words() []uint32 {
	words := make([]uint32, len(lp.Instructions))
	for i, in := range lp.Instructions {
		words[i] = dlx.Pack(in)
	}
	return words
}

// String renders the program as one instruction per line, each prefixed
// with its word index, in the style of a disassembly listing.
func (lp *LinearProgram) String() string {
	var out []byte
	for i, in := range lp.Instructions {
		out = append(out, []byte(itoa(i))...)
		out = append(out, ':', ' ')
		out = append(out, []byte(in.String())...)
		out = append(out, '\n')
	}
	return string(out)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
