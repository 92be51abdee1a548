// Package prefilter builds fast prescan hints for compiled patterns.
//
// A prefilter answers "where could a match possibly start" much faster
// than the DFA answers "is there a match here". The Starts prefilter runs
// an Aho-Corasick automaton over the literal prefixes extracted from the
// compiled program; matcher runtimes probe it to skip ahead to candidate
// positions before stepping the DFA.
package prefilter

import (
	"errors"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/pattern/literal"
)

// ErrNoLiterals indicates the literal sequence is empty or contains an
// empty literal, so no useful prefilter can be built.
var ErrNoLiterals = errors.New("prefilter: no usable literals")

// Starts is a candidate-start prefilter over a set of literal prefixes.
type Starts struct {
	ac       *ahocorasick.Automaton
	exact    bool
	complete bool
	minLen   int
}

// FromSeq builds a Starts prefilter from an extracted literal sequence.
// It fails when the sequence holds no literals, or any literal is empty
// (the pattern matches the empty string, so every position is a
// candidate).
func FromSeq(seq *literal.Seq) (*Starts, error) {
	if seq == nil || seq.IsEmpty() || seq.MinLen() == 0 {
		return nil, ErrNoLiterals
	}
	builder := ahocorasick.NewBuilder()
	complete := true
	for i := 0; i < seq.Len(); i++ {
		lit := seq.Get(i)
		builder.AddPattern(lit.Bytes)
		if !lit.Complete {
			complete = false
		}
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &Starts{
		ac:       auto,
		exact:    seq.Exact(),
		complete: complete && seq.Exact(),
		minLen:   seq.MinLen(),
	}, nil
}

// Find returns the start offset of the next candidate at or after 'at',
// or ok=false when no literal occurs in the rest of the haystack. A false
// result rules out a match start only for an exact prefilter; callers
// must check Exact.
func (s *Starts) Find(haystack []byte, at int) (int, bool) {
	if at >= len(haystack) {
		return 0, false
	}
	m := s.ac.Find(haystack, at)
	if m == nil {
		return 0, false
	}
	return m.Start, true
}

// IsMatch reports whether the haystack contains any candidate start.
func (s *Starts) IsMatch(haystack []byte) bool {
	return s.ac.IsMatch(haystack)
}

// Exact reports whether every match of the pattern starts with one of the
// prefilter's literals. An inexact prefilter may only be used as a hint,
// never to rule input out.
func (s *Starts) Exact() bool {
	return s.exact
}

// Complete reports whether the literals are entire matches, so a
// prefilter hit is already a pattern match.
func (s *Starts) Complete() bool {
	return s.complete
}

// MinLen returns the length of the shortest literal.
func (s *Starts) MinLen() int {
	return s.minLen
}
