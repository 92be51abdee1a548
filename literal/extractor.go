package literal

import (
	"github.com/coregx/pattern"
	"github.com/coregx/pattern/internal/sparse"
)

// ExtractorConfig bounds literal extraction.
//
// The caps keep pathological patterns from exploding the literal set:
// wide character classes multiply the number of walks, and very long
// literals hurt prefilter cache locality without improving selectivity.
type ExtractorConfig struct {
	// MaxLiterals limits how many literals are collected before the
	// sequence is cut off and marked inexact. Default: 64.
	MaxLiterals int

	// MaxLiteralLen limits the length of each literal. Longer walks are
	// truncated to prefixes. Default: 64.
	MaxLiteralLen int
}

// DefaultConfig returns the default extraction limits.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
	}
}

// Extract walks a compiled DFA program from its start state and collects
// the byte strings a match can begin with. A literal is complete when its
// walk reaches an accept state, so the literal alone is a match; the walk
// goes on past an accept state that has live transitions.
//
// Walks are cut at cycles, meta transitions, lookahead markers, REDO
// states and the configured caps; any cut marks the sequence inexact and
// records the bytes walked so far, if any, as a plain prefix unless the
// literal count cap has been reached.
func Extract(prog []pattern.Opcode, cfg ExtractorConfig) *Seq {
	seq := NewSeq()
	if cfg.MaxLiterals <= 0 || cfg.MaxLiteralLen <= 0 {
		cfg = DefaultConfig()
	}
	states, err := pattern.Decode(prog)
	if err != nil || len(states) == 0 {
		seq.SetInexact()
		return seq
	}
	byPC := make(map[pattern.Index]*pattern.DecodedState, len(states))
	for i := range states {
		byPC[states[i].PC] = &states[i]
	}
	e := &extractor{
		cfg:    cfg,
		byPC:   byPC,
		seq:    seq,
		onPath: sparse.NewSparseSet(uint32(len(prog))),
	}
	e.walk(0, nil)
	seq.Dedup()
	return seq
}

type extractor struct {
	cfg    ExtractorConfig
	byPC   map[pattern.Index]*pattern.DecodedState
	seq    *Seq
	onPath *sparse.SparseSet
	full   bool
}

// add records a literal, enforcing the count cap.
func (e *extractor) add(prefix []byte, complete bool) {
	if e.seq.Len() >= e.cfg.MaxLiterals {
		e.seq.SetInexact()
		e.full = true
		return
	}
	b := make([]byte, len(prefix))
	copy(b, prefix)
	e.seq.Add(b, complete)
}

// cut ends a walk early: the bytes so far become a plain prefix and the
// sequence is inexact.
func (e *extractor) cut(prefix []byte) {
	e.seq.SetInexact()
	if len(prefix) > 0 {
		e.add(prefix, false)
	}
}

func (e *extractor) walk(pc pattern.Index, prefix []byte) {
	if e.full {
		return
	}
	st := e.byPC[pc]
	if st == nil || st.Redo || len(st.Heads) > 0 || len(st.Tails) > 0 {
		e.cut(prefix)
		return
	}
	live := false
	meta := false
	for _, ed := range st.Edges {
		if ed.Target != pattern.IMAX {
			live = true
			if ed.Lo > 0xFF {
				meta = true
			}
		}
	}
	if st.Accept > 0 {
		// reaching an accept state makes the walked bytes a full match
		// on their own, however the walk continues
		e.add(prefix, true)
		if !live {
			return
		}
	} else if !live {
		return // dead end, nothing can match through here
	}
	if meta {
		// continuations depend on matcher-side anchor conditions
		e.cut(prefix)
		return
	}
	if len(prefix) >= e.cfg.MaxLiteralLen {
		e.cut(prefix)
		return
	}
	if !e.onPath.Insert(uint32(pc)) {
		// cycle: unbounded repetition ahead
		e.cut(prefix)
		return
	}
	defer e.onPath.Remove(uint32(pc))
	for b := 0; b <= 0xFF; b++ {
		target, ok := resolve(st, pattern.Char(b))
		if !ok {
			continue
		}
		e.walk(target, append(prefix, byte(b)))
		if e.full {
			return
		}
	}
}

// resolve finds the live target for byte c following the program's
// first-match edge order. The dead fallback and halting ranges yield no
// target.
func resolve(st *pattern.DecodedState, c pattern.Char) (pattern.Index, bool) {
	for _, ed := range st.Edges {
		if ed.Lo <= c && c <= ed.Hi {
			if ed.Target == pattern.IMAX {
				return 0, false
			}
			return ed.Target, true
		}
	}
	return 0, false
}
