package dlx

// Pack and Decode implement a bit-exact codec between Instruction values
// and the 32-bit words the original dlx.rs's disassem function reads back
// apart, following spec.md §6's field widths literally (a full 16-bit
// signed immediate for F1's c field) rather than the 8-bit-truncating
// quirk disassem happens to implement — the round-trip contract spec.md
// requires (pack(decode(word)) == word for every word this package
// produces) only holds if pack and decode agree on field widths with
// each other, not with a third implementation's idiosyncrasy.

const (
	opcodeBits = 6
	regBits    = 5
	f1ImmBits  = 16
	f3DispBits = 26
)

// Pack encodes in into its 32-bit instruction word.
func Pack(in Instruction) uint32 {
	op := uint32(in.Op) & mask(opcodeBits)
	word := op << (32 - opcodeBits)

	switch FormatOf(in.Op) {
	case F1:
		a := uint32(in.A) & mask(regBits)
		b := uint32(in.B) & mask(regBits)
		c := uint32(in.C) & mask(f1ImmBits)
		word |= a << 21
		word |= b << 16
		word |= c
	case F2:
		a := uint32(in.A) & mask(regBits)
		b := uint32(in.B) & mask(regBits)
		c := uint32(in.C) & mask(regBits)
		word |= a << 21
		word |= b << 16
		word |= c
	case F3:
		c := uint32(in.C) & mask(f3DispBits)
		word |= c
	}
	return word
}

// Decode unpacks a 32-bit instruction word into an Instruction, sign
// extending the immediate/displacement field per FormatOf(op).
func Decode(word uint32) Instruction {
	op := Opcode((word >> (32 - opcodeBits)) & mask(opcodeBits))

	switch FormatOf(op) {
	case F1:
		a := int((word >> 21) & mask(regBits))
		b := int((word >> 16) & mask(regBits))
		c := signExtend(word&mask(f1ImmBits), f1ImmBits)
		return Instruction{Op: op, A: a, B: b, C: c}
	case F2:
		a := int((word >> 21) & mask(regBits))
		b := int((word >> 16) & mask(regBits))
		c := int(word & mask(regBits))
		return Instruction{Op: op, A: a, B: b, C: c}
	default:
		c := signExtend(word&mask(f3DispBits), f3DispBits)
		return Instruction{Op: op, A: -1, B: -1, C: c}
	}
}

func mask(bits uint) uint32 {
	return (uint32(1) << bits) - 1
}

// signExtend treats the low `bits` bits of v as a two's-complement value
// and sign extends it to a full int.
func signExtend(v uint32, bits uint) int {
	shift := 32 - bits
	return int(int32(v<<shift) >> shift)
}
