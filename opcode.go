package pattern

import (
	"fmt"

	"github.com/coregx/pattern/internal/sparse"
)

// Opcode is one fixed-width instruction of the compiled DFA program.
//
// The 32-bit layout, self-consistent between this encoder and matcher
// runtimes:
//
//	GOTO lo..hi  [ lo:8 | hi:8 | pc:16 ]          lo <= hi, both bytes
//	GOTO meta    [ FF   | m:8  | pc:16 ]          m = meta - MetaMin, 1..12
//	REDO         [ FF   | 00   | 0000 ]
//	TAKE rule    [ FE   | 00   | rule ]
//	TAIL id      [ FD   | 00   | id   ]
//	HEAD id      [ FC   | 00   | id   ]
//
// A pc field of IMAX means HALT: there is no transition and the final
// decision is the last TAKE. The canonical HALT word is the full-range
// dead transition GOTO 0x00..0xFF -> IMAX.
type Opcode uint32

const (
	opcRedo Opcode = 0xFF000000
	opcTake Opcode = 0xFE000000
	opcTail Opcode = 0xFD000000
	opcHead Opcode = 0xFC000000
	opcHalt Opcode = 0x00FFFFFF
)

func opcodeRedo() Opcode { return opcRedo }

func opcodeTake(rule Index) Opcode { return opcTake | Opcode(rule) }

func opcodeTail(id Index) Opcode { return opcTail | Opcode(id) }

func opcodeHead(id Index) Opcode { return opcHead | Opcode(id) }

func opcodeHalt() Opcode { return opcHalt }

func opcodeGoto(lo, hi Char, target Index) Opcode {
	if isMeta(lo) {
		return 0xFF000000 | Opcode(lo&0xFF)<<16 | Opcode(target)
	}
	return Opcode(lo)<<24 | Opcode(hi)<<16 | Opcode(target)
}

// IsRedo reports whether the opcode is the REDO marker.
func (o Opcode) IsRedo() bool { return o == opcRedo }

// IsTake reports whether the opcode accepts a rule.
func (o Opcode) IsTake() bool { return o&0xFFFF0000 == opcTake }

// IsTail reports whether the opcode is a lookahead stop marker.
func (o Opcode) IsTail() bool { return o&0xFFFF0000 == opcTail }

// IsHead reports whether the opcode is a lookahead start marker.
func (o Opcode) IsHead() bool { return o&0xFFFF0000 == opcHead }

// IsHalt reports whether the opcode is the canonical full-range dead
// transition.
func (o Opcode) IsHalt() bool { return o == opcHalt }

// IsMetaGoto reports whether the opcode is a transition on a meta
// character.
func (o Opcode) IsMetaGoto() bool {
	m := (o >> 16) & 0xFF
	return o>>24 == 0xFF && m >= 1 && m <= Opcode(MetaMax-MetaMin)
}

// IsGoto reports whether the opcode is a transition, on a byte range or on
// a meta character.
func (o Opcode) IsGoto() bool {
	return o>>24 <= (o>>16)&0xFF || o.IsMetaGoto()
}

// Lo returns the low transition label of a GOTO; for a meta transition
// this is the meta character itself.
func (o Opcode) Lo() Char {
	if o.IsMetaGoto() {
		return MetaMin + Char((o>>16)&0xFF)
	}
	return Char(o >> 24)
}

// Hi returns the high transition label of a GOTO.
func (o Opcode) Hi() Char {
	if o.IsMetaGoto() {
		return o.Lo()
	}
	return Char((o >> 16) & 0xFF)
}

// Target returns the 16-bit payload: the target program counter of a GOTO,
// the rule of a TAKE, or the lookahead ID of a HEAD or TAIL. IMAX in a
// GOTO target means HALT.
func (o Opcode) Target() Index {
	return Index(o & 0xFFFF)
}

// Disasm renders the opcode the way the code exporters comment it.
func (o Opcode) Disasm() string {
	switch {
	case o.IsRedo():
		return "REDO"
	case o.IsTake():
		return fmt.Sprintf("TAKE %d", o.Target())
	case o.IsTail():
		return fmt.Sprintf("TAIL %d", o.Target())
	case o.IsHead():
		return fmt.Sprintf("HEAD %d", o.Target())
	case o.IsHalt():
		return "HALT"
	}
	verb := fmt.Sprintf("GOTO %d ON ", o.Target())
	if o.Target() == IMAX {
		verb = "HALT ON "
	}
	lo, hi := o.Lo(), o.Hi()
	if isMeta(lo) {
		return verb + metaLabel[lo-MetaMin]
	}
	s := verb + charLabel(lo)
	if lo != hi {
		s += "-" + charLabel(hi)
	}
	return s
}

// charLabel renders a byte label for disassembly listings.
func charLabel(c Char) string {
	switch {
	case c >= '\a' && c <= '\r':
		return `\` + string("abtnvfr"[c-'\a'])
	case c == '\\':
		return `'\'`
	case c > 0x20 && c < 0x7F:
		return string(rune(c))
	case c < 8:
		return fmt.Sprintf(`\%d`, c)
	default:
		return fmt.Sprintf(`\x%02x`, c)
	}
}

// DecodedEdge is one reconstructed transition. A Target of IMAX denotes
// HALT.
type DecodedEdge struct {
	Lo, Hi Char
	Target Index
}

// DecodedState is one DFA state reconstructed from an opcode program by
// Decode.
type DecodedState struct {
	PC     Index // program counter of the state's first opcode
	Accept Index // accepted rule, 0 when none
	Redo   bool  // ignored-match marker
	Heads  []Index
	Tails  []Index
	Edges  []DecodedEdge // in emission order (descending lo)
}

// Decode reconstructs the states of an opcode program: their accept rules,
// lookahead markers and transitions. It is the inverse of the encoder up
// to state renumbering and is used by the exporters, the literal
// extractor, and the round-trip tests.
func Decode(prog []Opcode) ([]DecodedState, error) {
	if len(prog) == 0 {
		return nil, nil
	}
	if len(prog) > int(IMAX) {
		return nil, fmt.Errorf("pattern: program too long to decode: %d opcodes", len(prog))
	}
	// state starts: pc 0 and every live GOTO target
	starts := sparse.NewSparseSet(uint32(len(prog)))
	starts.Insert(0)
	for pc, o := range prog {
		if o.IsGoto() && o.Target() != IMAX {
			if int(o.Target()) >= len(prog) {
				return nil, fmt.Errorf("pattern: opcode %d targets pc %d beyond program end", pc, o.Target())
			}
			starts.Insert(uint32(o.Target()))
		}
	}
	var states []DecodedState
	var cur *DecodedState
	for pc, o := range prog {
		if starts.Contains(uint32(pc)) {
			states = append(states, DecodedState{PC: Index(pc)})
			cur = &states[len(states)-1]
		}
		switch {
		case o.IsRedo():
			cur.Redo = true
		case o.IsTake():
			cur.Accept = o.Target()
		case o.IsTail():
			cur.Tails = append(cur.Tails, o.Target())
		case o.IsHead():
			cur.Heads = append(cur.Heads, o.Target())
		case o.IsGoto():
			cur.Edges = append(cur.Edges, DecodedEdge{Lo: o.Lo(), Hi: o.Hi(), Target: o.Target()})
		default:
			return nil, fmt.Errorf("pattern: unrecognized opcode 0x%08X at pc %d", uint32(o), pc)
		}
	}
	return states, nil
}
