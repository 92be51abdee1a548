// Package literal extracts literal byte sequences from compiled DFA
// programs.
//
// Matcher runtimes use the extracted set as a prefilter: every match of
// the compiled pattern must begin with one of the literals, so a fast
// multi-pattern scan can discard non-candidate input before the DFA runs.
package literal

import (
	"bytes"
	"sort"
)

// Literal is one byte sequence matches may begin with. Complete marks a
// literal that is an entire match on its own; incomplete literals are
// necessary prefixes only.
type Literal struct {
	Bytes    []byte
	Complete bool
}

// Len returns the literal's length in bytes.
func (l Literal) Len() int {
	return len(l.Bytes)
}

// String renders the literal for debugging.
func (l Literal) String() string {
	if l.Complete {
		return "literal{" + string(l.Bytes) + ", complete}"
	}
	return "literal{" + string(l.Bytes) + ", prefix}"
}

// Seq is a set of alternative literals extracted from one program. When
// Exact reports false the set is a lossy approximation: some matches may
// start with bytes outside the set, and the literals must not be used to
// rule input out.
type Seq struct {
	lits  []Literal
	exact bool
}

// NewSeq returns an empty, exact sequence.
func NewSeq() *Seq {
	return &Seq{exact: true}
}

// Add appends a literal.
func (s *Seq) Add(b []byte, complete bool) {
	s.lits = append(s.lits, Literal{Bytes: b, Complete: complete})
}

// SetInexact marks the sequence as a lossy approximation.
func (s *Seq) SetInexact() {
	s.exact = false
}

// Exact reports whether the literal set covers every possible match
// prefix.
func (s *Seq) Exact() bool {
	return s.exact
}

// Len returns the number of literals.
func (s *Seq) Len() int {
	return len(s.lits)
}

// IsEmpty reports whether the sequence holds no literals.
func (s *Seq) IsEmpty() bool {
	return len(s.lits) == 0
}

// Get returns the i-th literal.
func (s *Seq) Get(i int) Literal {
	return s.lits[i]
}

// Literals returns the underlying slice. It is shared and must not be
// modified.
func (s *Seq) Literals() []Literal {
	return s.lits
}

// MinLen returns the length of the shortest literal, or 0 for an empty
// sequence.
func (s *Seq) MinLen() int {
	if len(s.lits) == 0 {
		return 0
	}
	m := s.lits[0].Len()
	for _, l := range s.lits[1:] {
		if l.Len() < m {
			m = l.Len()
		}
	}
	return m
}

// Dedup sorts the literals and removes duplicates, keeping a complete
// literal over an incomplete twin.
func (s *Seq) Dedup() {
	if len(s.lits) < 2 {
		return
	}
	sort.SliceStable(s.lits, func(i, j int) bool {
		c := bytes.Compare(s.lits[i].Bytes, s.lits[j].Bytes)
		if c != 0 {
			return c < 0
		}
		return s.lits[i].Complete && !s.lits[j].Complete
	})
	out := s.lits[:1]
	for _, l := range s.lits[1:] {
		if bytes.Equal(l.Bytes, out[len(out)-1].Bytes) {
			continue
		}
		out = append(out, l)
	}
	s.lits = out
}

// LongestCommonPrefix returns the longest byte prefix shared by every
// literal in the sequence.
func (s *Seq) LongestCommonPrefix() []byte {
	if len(s.lits) == 0 {
		return nil
	}
	lcp := s.lits[0].Bytes
	for _, l := range s.lits[1:] {
		n := 0
		for n < len(lcp) && n < len(l.Bytes) && lcp[n] == l.Bytes[n] {
			n++
		}
		lcp = lcp[:n]
		if len(lcp) == 0 {
			break
		}
	}
	return lcp
}
