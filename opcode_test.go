package pattern

import (
	"strings"
	"testing"
)

func TestOpcodePredicates(t *testing.T) {
	cases := []struct {
		op   Opcode
		name string
	}{
		{opcodeRedo(), "REDO"},
		{opcodeTake(3), "TAKE 3"},
		{opcodeTail(1), "TAIL 1"},
		{opcodeHead(2), "HEAD 2"},
		{opcodeHalt(), "HALT"},
		{opcodeGoto('a', 'z', 7), "GOTO 7 ON a-z"},
		{opcodeGoto('q', 'q', 0), "GOTO 0 ON q"},
		{opcodeGoto(0x20, 0x7E, IMAX), `HALT ON \x20-~`},
		{opcodeGoto(MetaBOL, MetaBOL, 4), "GOTO 4 ON BOL"},
	}
	for _, tc := range cases {
		if got := tc.op.Disasm(); got != tc.name {
			t.Errorf("Disasm(0x%08X) = %q, want %q", uint32(tc.op), got, tc.name)
		}
	}
}

func TestOpcodeFields(t *testing.T) {
	op := opcodeGoto('a', 'f', 0x1234)
	if !op.IsGoto() || op.IsMetaGoto() {
		t.Errorf("range goto misclassified")
	}
	if op.Lo() != 'a' || op.Hi() != 'f' || op.Target() != 0x1234 {
		t.Errorf("fields = %c %c %d", byte(op.Lo()), byte(op.Hi()), op.Target())
	}
	mop := opcodeGoto(MetaEOB, MetaEOB, 9)
	if !mop.IsMetaGoto() || !mop.IsGoto() {
		t.Errorf("meta goto misclassified")
	}
	if mop.Lo() != MetaEOB || mop.Hi() != MetaEOB || mop.Target() != 9 {
		t.Errorf("meta fields = 0x%x 0x%x %d", mop.Lo(), mop.Hi(), mop.Target())
	}
	// special opcodes must never classify as transitions
	for _, op := range []Opcode{opcodeRedo(), opcodeTake(1), opcodeTail(0), opcodeHead(0)} {
		if op.IsGoto() {
			t.Errorf("0x%08X classified as goto", uint32(op))
		}
	}
	if !opcodeHalt().IsGoto() || opcodeHalt().Target() != IMAX {
		t.Errorf("HALT must be the full dead range")
	}
}

func TestDecodeRejectsBadPrograms(t *testing.T) {
	// a goto target beyond the end of the program
	if _, err := Decode([]Opcode{opcodeGoto('a', 'a', 5), opcodeHalt()}); err == nil {
		t.Errorf("out-of-range target not rejected")
	}
	if states, err := Decode(nil); err != nil || states != nil {
		t.Errorf("empty program: %v, %v", states, err)
	}
}

func TestDisasmListingStable(t *testing.T) {
	p, err := CompileWithOptions("ab", "r")
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	for _, op := range p.Program() {
		sb.WriteString(op.Disasm())
		sb.WriteByte('\n')
	}
	out := sb.String()
	if !strings.Contains(out, "TAKE 1") {
		t.Errorf("listing misses TAKE 1:\n%s", out)
	}
	if !strings.Contains(out, "GOTO") {
		t.Errorf("listing misses GOTO:\n%s", out)
	}
}
