package dlx

import "testing"

func TestPackDecode_RoundTripF2(t *testing.T) {
	in := Instruction{Op: ADD, A: 3, B: 4, C: 5}
	word := Pack(in)
	got := Decode(word)
	if got != in {
		t.Fatalf("F2 round trip mismatch: want %+v, got %+v", in, got)
	}
	if Pack(got) != word {
		t.Fatalf("pack(decode(word)) != word for F2: %x vs %x", Pack(got), word)
	}
}

func TestPackDecode_RoundTripF1PositiveImmediate(t *testing.T) {
	in := Instruction{Op: ADDI, A: 1, B: 2, C: 1000}
	word := Pack(in)
	got := Decode(word)
	if got != in {
		t.Fatalf("F1 round trip mismatch: want %+v, got %+v", in, got)
	}
	if Pack(got) != word {
		t.Fatalf("pack(decode(word)) != word for F1: %x vs %x", Pack(got), word)
	}
}

func TestPackDecode_RoundTripF1NegativeImmediate(t *testing.T) {
	in := Instruction{Op: BEQ, A: 0, B: 0, C: -4}
	word := Pack(in)
	got := Decode(word)
	if got != in {
		t.Fatalf("F1 negative-immediate round trip mismatch: want %+v, got %+v", in, got)
	}
	if got.C != -4 {
		t.Fatalf("expected sign-extended -4, got %d", got.C)
	}
}

func TestPackDecode_RoundTripF1LargeNegativeImmediate(t *testing.T) {
	// -32768 is the most negative value a 16-bit signed field can hold.
	in := Instruction{Op: STW, A: 5, B: 6, C: -32768}
	word := Pack(in)
	got := Decode(word)
	if got.C != -32768 {
		t.Fatalf("expected -32768, got %d", got.C)
	}
	if Pack(got) != word {
		t.Fatalf("pack(decode(word)) != word for large negative F1 immediate")
	}
}

func TestPackDecode_RoundTripF3(t *testing.T) {
	in := Instruction{Op: JSR, A: -1, B: -1, C: 123456}
	word := Pack(in)
	got := Decode(word)
	if got.Op != JSR || got.C != 123456 {
		t.Fatalf("F3 round trip mismatch: want C=123456, got %+v", got)
	}
	if Pack(got) != word {
		t.Fatalf("pack(decode(word)) != word for F3")
	}
}

func TestPackDecode_RoundTripF3Negative(t *testing.T) {
	in := Instruction{Op: JSR, A: -1, B: -1, C: -100}
	word := Pack(in)
	got := Decode(word)
	if got.C != -100 {
		t.Fatalf("expected -100, got %d", got.C)
	}
}

func TestFormatOf_MatchesSpecTables(t *testing.T) {
	f1s := []Opcode{BSR, RDI, WRD, WRH, WRL, CHKI, BEQ, BNE, BLT, BGE, BLE, BGT,
		ADDI, SUBI, MULI, DIVI, MODI, CMPI, ORI, ANDI, BICI, XORI, LSHI, ASHI,
		LDW, POP, STW, PSH}
	for _, op := range f1s {
		if FormatOf(op) != F1 {
			t.Errorf("expected %s to be F1, got %v", op, FormatOf(op))
		}
	}

	f2s := []Opcode{RET, CHK, ADD, SUB, MUL, DIV, MOD, CMP, OR, AND, BIC, XOR,
		LSH, ASH, LDX, STX}
	for _, op := range f2s {
		if FormatOf(op) != F2 {
			t.Errorf("expected %s to be F2, got %v", op, FormatOf(op))
		}
	}

	if FormatOf(JSR) != F3 {
		t.Errorf("expected JSR to be F3, got %v", FormatOf(JSR))
	}
}

func TestOpcodeNumericValues_MatchSpec(t *testing.T) {
	cases := map[Opcode]int{
		ADD: 0, SUB: 1, MUL: 2, DIV: 3, MOD: 4, CMP: 5,
		OR: 8, AND: 9, BIC: 10, XOR: 11, LSH: 12, ASH: 13, CHK: 14,
		ADDI: 16, SUBI: 17, MULI: 18, DIVI: 19, MODI: 20, CMPI: 21,
		ORI: 24, ANDI: 25, BICI: 26, XORI: 27, LSHI: 28, ASHI: 29, CHKI: 30,
		LDW: 32, LDX: 33, POP: 34, STW: 36, STX: 37, PSH: 38,
		BEQ: 40, BNE: 41, BLT: 42, BGE: 43, BLE: 44, BGT: 45, BSR: 46,
		JSR: 48, RET: 49,
		RDI: 50, WRD: 51, WRH: 52, WRL: 53,
		ERR: 63,
	}
	for op, want := range cases {
		if int(op) != want {
			t.Errorf("opcode %s: want %d, got %d", op, want, int(op))
		}
	}
}
