package pattern

import "testing"

// decodeT compiles and decodes a pattern, failing the test on any error.
func decodeT(t *testing.T, rex, options string) (*Pattern, []DecodedState) {
	t.Helper()
	p, err := CompileWithOptions(rex, options+"r")
	if err != nil {
		t.Fatalf("CompileWithOptions(%q, %q): %v", rex, options, err)
	}
	states, err := Decode(p.Program())
	if err != nil {
		t.Fatalf("Decode(%q): %v", rex, err)
	}
	return p, states
}

// stateByPC returns the decoded state starting at pc.
func stateByPC(t *testing.T, states []DecodedState, pc Index) *DecodedState {
	t.Helper()
	for i := range states {
		if states[i].PC == pc {
			return &states[i]
		}
	}
	t.Fatalf("no state at pc %d", pc)
	return nil
}

// liveTarget resolves the first-match transition for byte c, or IMAX.
func liveTarget(st *DecodedState, c Char) Index {
	for _, e := range st.Edges {
		if e.Lo <= c && c <= e.Hi {
			return e.Target
		}
	}
	return IMAX
}

func TestAlternativesAreRules(t *testing.T) {
	p, states := decodeT(t, "a|b", "")
	if p.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", p.Size())
	}
	if got := p.Subpattern(1); got != "a" {
		t.Errorf("Subpattern(1) = %q, want %q", got, "a")
	}
	if got := p.Subpattern(2); got != "b" {
		t.Errorf("Subpattern(2) = %q, want %q", got, "b")
	}
	if !p.Reachable(1) || !p.Reachable(2) {
		t.Errorf("Reachable = %v, %v, want both true", p.Reachable(1), p.Reachable(2))
	}
	if len(states) != 3 {
		t.Fatalf("got %d states, want 3", len(states))
	}
	start := stateByPC(t, states, 0)
	onA := stateByPC(t, states, liveTarget(start, 'a'))
	onB := stateByPC(t, states, liveTarget(start, 'b'))
	if onA.Accept != 1 {
		t.Errorf("state on 'a' accepts %d, want 1", onA.Accept)
	}
	if onB.Accept != 2 {
		t.Errorf("state on 'b' accepts %d, want 2", onB.Accept)
	}
	if got := liveTarget(start, 'c'); got != IMAX {
		t.Errorf("state on 'c' = %d, want HALT", got)
	}
}

func TestKleeneStarPrefix(t *testing.T) {
	_, states := decodeT(t, "a*b", "")
	start := stateByPC(t, states, 0)
	if start.Accept != 0 {
		t.Errorf("start accepts %d, want 0: nullable prefix must not accept", start.Accept)
	}
	if got := liveTarget(start, 'a'); got != 0 {
		t.Errorf("'a' loops to %d, want self loop to 0", got)
	}
	acc := stateByPC(t, states, liveTarget(start, 'b'))
	if acc.Accept != 1 {
		t.Errorf("'b' target accepts %d, want 1", acc.Accept)
	}
}

func TestLazyStarTrimsSelfLoop(t *testing.T) {
	_, states := decodeT(t, "(a|b)*?b", "")
	if len(states) != 3 {
		t.Fatalf("got %d states, want 3", len(states))
	}
	start := stateByPC(t, states, 0)
	// b leaves the lazy loop immediately: the target must accept
	onB := stateByPC(t, states, liveTarget(start, 'b'))
	if onB.Accept != 1 {
		t.Errorf("state on 'b' accepts %d, want 1", onB.Accept)
	}
	// a enters the loop state, which again exits on b
	loop := stateByPC(t, states, liveTarget(start, 'a'))
	if loop.Accept != 0 {
		t.Errorf("loop state accepts %d, want 0", loop.Accept)
	}
	if got := liveTarget(loop, 'a'); got != loop.PC {
		t.Errorf("loop on 'a' goes to %d, want self loop %d", got, loop.PC)
	}
	if got := stateByPC(t, states, liveTarget(loop, 'b')); got.Accept != 1 {
		t.Errorf("loop exit on 'b' accepts %d, want 1", got.Accept)
	}
}

func TestBoundedRepetitionUnrolls(t *testing.T) {
	_, states := decodeT(t, "a{2,3}", "")
	if len(states) != 4 {
		t.Fatalf("got %d states, want 4", len(states))
	}
	s0 := stateByPC(t, states, 0)
	s1 := stateByPC(t, states, liveTarget(s0, 'a'))
	s2 := stateByPC(t, states, liveTarget(s1, 'a'))
	s3 := stateByPC(t, states, liveTarget(s2, 'a'))
	if s0.Accept != 0 || s1.Accept != 0 {
		t.Errorf("one 'a' must not accept: %d, %d", s0.Accept, s1.Accept)
	}
	if s2.Accept != 1 || s3.Accept != 1 {
		t.Errorf("two and three 'a's accept %d, %d, want 1, 1", s2.Accept, s3.Accept)
	}
	if got := liveTarget(s3, 'a'); got != IMAX {
		t.Errorf("fourth 'a' goes to %d, want HALT", got)
	}
}

func TestTrailingContextMarks(t *testing.T) {
	p, states := decodeT(t, "foo/bar", "l")
	heads, tails := 0, 0
	for _, op := range p.Program() {
		if op.IsHead() {
			heads++
		}
		if op.IsTail() {
			tails++
		}
	}
	if heads != 1 || tails != 1 {
		t.Fatalf("got %d HEAD and %d TAIL opcodes, want 1 and 1", heads, tails)
	}
	for i := range states {
		st := &states[i]
		if len(st.Tails) > 0 && st.Accept != 1 {
			t.Errorf("TAIL deposited in a non-accepting state (pc %d)", st.PC)
		}
		if len(st.Heads) > 0 && st.Accept != 0 {
			t.Errorf("HEAD deposited in an accepting state (pc %d)", st.PC)
		}
	}
}

func TestIdentifierClasses(t *testing.T) {
	_, states := decodeT(t, "[A-Za-z_][A-Za-z0-9_]*", "")
	start := stateByPC(t, states, 0)
	next := liveTarget(start, 'q')
	for _, c := range []Char{'A', 'Z', 'a', 'z', '_'} {
		if got := liveTarget(start, c); got != next {
			t.Errorf("start on %c goes to %d, want %d", c, got, next)
		}
	}
	if got := liveTarget(start, '0'); got != IMAX {
		t.Errorf("start on '0' = %d, want HALT", got)
	}
	loop := stateByPC(t, states, next)
	if loop.Accept != 1 {
		t.Errorf("identifier state accepts %d, want 1", loop.Accept)
	}
	for _, c := range []Char{'A', 'z', '_', '0', '9'} {
		if got := liveTarget(loop, c); got != loop.PC {
			t.Errorf("loop on %c goes to %d, want self loop", c, got)
		}
	}
}

func TestCaseInsensitive(t *testing.T) {
	_, states := decodeT(t, "abc", "i")
	st := stateByPC(t, states, 0)
	for _, c := range "abc" {
		up := liveTarget(st, Char(c-0x20))
		lo := liveTarget(st, Char(c))
		if up != lo || lo == IMAX {
			t.Fatalf("on %c: upper goes to %d, lower to %d", c, up, lo)
		}
		st = stateByPC(t, states, lo)
	}
	if st.Accept != 1 {
		t.Errorf("final state accepts %d, want 1", st.Accept)
	}
}

func TestShadowedRuleUnreachable(t *testing.T) {
	p, _ := decodeT(t, "a|a", "")
	if !p.Reachable(1) {
		t.Errorf("rule 1 should be reachable")
	}
	if p.Reachable(2) {
		t.Errorf("rule 2 duplicates rule 1 and must be shadowed")
	}
}

func TestAnchorsCompileToMetaEdges(t *testing.T) {
	byDefault := func(rex, options string, want Char) {
		_, states := decodeT(t, rex, options)
		found := false
		for i := range states {
			for _, e := range states[i].Edges {
				if e.Lo == want && e.Target != IMAX {
					found = true
				}
			}
		}
		if !found {
			t.Errorf("%q with %q: no live meta edge on %s", rex, options, metaLabel[want-MetaMin])
		}
	}
	byDefault("^a", "", MetaBOB)
	byDefault("^a", "m", MetaBOL)
	byDefault("a$", "", MetaEOB)
	byDefault("a$", "m", MetaEOL)
	byDefault(`\ba`, "", MetaBWB)
	byDefault(`a\b`, "", MetaBWE)
	byDefault(`\<w`, "", MetaBWB)
	byDefault(`\ia`, "", MetaIND)
}

func TestNegativePatternRedo(t *testing.T) {
	p, states := decodeT(t, "(?^ab)", "")
	redo := false
	for _, op := range p.Program() {
		if op.IsRedo() {
			redo = true
		}
	}
	if !redo {
		t.Fatalf("no REDO opcode emitted for an ignored pattern")
	}
	for i := range states {
		if states[i].Redo && states[i].Accept != 0 {
			t.Errorf("decoded REDO state carries accept %d", states[i].Accept)
		}
	}
}

// The interaction of lazy quantifiers with repetition and double optional
// quantifiers is subtle; these inputs pin down that they compile cleanly
// and deterministically.
func TestTrickyLazyPatternsCompile(t *testing.T) {
	for _, rex := range []string{
		"((a|b)*?b){2}",
		"(a|b)??(a|b)??aa",
		"(a|b)*?a*b+",
		"a+?b",
		"a{2,}",
		"a{0,3}b",
		"(ab)+|c",
		"(?=ab)a",
	} {
		p, err := CompileWithOptions(rex, "r")
		if err != nil {
			t.Errorf("CompileWithOptions(%q): %v", rex, err)
			continue
		}
		if _, err := Decode(p.Program()); err != nil {
			t.Errorf("Decode(%q): %v", rex, err)
		}
	}
}

func TestQuotedLiteral(t *testing.T) {
	_, states := decodeT(t, `"a+"`, "q")
	st := stateByPC(t, states, 0)
	next := liveTarget(st, 'a')
	if next == IMAX {
		t.Fatalf("quoted 'a' must be literal")
	}
	plus := stateByPC(t, states, next)
	if got := liveTarget(plus, '+'); got == IMAX {
		t.Fatalf("quoted '+' must be a literal transition, got HALT")
	}
	if got := liveTarget(plus, 'a'); got != IMAX {
		t.Errorf("'+' must not quantify inside quotes")
	}
}

func TestEmptyPatternAcceptsImmediately(t *testing.T) {
	_, states := decodeT(t, "", "")
	start := stateByPC(t, states, 0)
	if start.Accept != 1 {
		t.Errorf("empty pattern start accepts %d, want 1", start.Accept)
	}
}

func TestSubpatternBounds(t *testing.T) {
	p, _ := decodeT(t, "foo|bar|baz", "")
	if p.Subpattern(0) != "foo|bar|baz" {
		t.Errorf("Subpattern(0) = %q", p.Subpattern(0))
	}
	want := []string{"foo", "bar", "baz"}
	for i, w := range want {
		if got := p.Subpattern(i + 1); got != w {
			t.Errorf("Subpattern(%d) = %q, want %q", i+1, got, w)
		}
	}
	if p.Subpattern(4) != "" {
		t.Errorf("Subpattern(4) = %q, want empty", p.Subpattern(4))
	}
}
