package dlx

// Instruction is one decoded DLX word: an opcode plus up to three operand
// fields, interpreted according to FormatOf(Op).
//
//   - F1: A and B are register numbers, C is a 16-bit signed immediate.
//   - F2: A and B are register numbers, C is a register number (0-31).
//   - F3: A and B are unused (conventionally -1), C is a 26-bit signed
//     PC-relative or absolute displacement, used only by JSR.
type Instruction struct {
	Op Opcode
	A  int
	B  int
	C  int
}

// String renders an instruction roughly the way a DLX disassembler would,
// for use in -emit=asm dumps and test failure messages.
func (in Instruction) String() string {
	switch FormatOf(in.Op) {
	case F3:
		return in.Op.String() + " " + itoa(in.C)
	case F1:
		return in.Op.String() + " r" + itoa(in.A) + ", r" + itoa(in.B) + ", " + itoa(in.C)
	default:
		return in.Op.String() + " r" + itoa(in.A) + ", r" + itoa(in.B) + ", r" + in.regOrImm()
	}
}

func (in Instruction) regOrImm() string {
	return itoa(in.C)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
