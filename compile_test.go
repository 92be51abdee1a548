package pattern

import "testing"

// buildStates runs the pipeline up to subset construction and returns the
// builder with its state arena intact.
func buildStates(t *testing.T, rex, options string) *builder {
	t.Helper()
	p := &Pattern{rex: rex, opt: parseOptions(options + "r")}
	ctx := &parseCtx{follow: Follow{}, mods: modMap{}, look: lookMap{}}
	startpos, err := p.parse(ctx)
	if err != nil {
		t.Fatalf("parse(%q): %v", rex, err)
	}
	b := &builder{p: p, ctx: ctx}
	if err := b.build(startpos); err != nil {
		t.Fatalf("build(%q): %v", rex, err)
	}
	return b
}

func TestAcceptMinimality(t *testing.T) {
	for _, rex := range []string{"a|b", "a|a", "ab|a|abc", "a*|b*|a*b"} {
		b := buildStates(t, rex, "")
		for si := range b.sts {
			st := &b.sts[si]
			want := Index(0)
			for _, k := range st.positions {
				if k.isAccept() && k.accepts() > 0 {
					if want == 0 || k.accepts() < want {
						want = k.accepts()
					}
				}
			}
			if st.accept != want {
				t.Errorf("%q state %d: accept = %d, want min nonzero rule %d", rex, si, st.accept, want)
			}
		}
	}
}

func TestStateUniqueness(t *testing.T) {
	for _, rex := range []string{"(a|b)*abb", "a{2,4}|b{1,3}", "[a-z]+([0-9][a-z]+)*"} {
		b := buildStates(t, rex, "")
		for i := range b.sts {
			for j := i + 1; j < len(b.sts); j++ {
				if b.sts[i].positions.equal(b.sts[j].positions) {
					t.Errorf("%q: states %d and %d share a position set", rex, i, j)
				}
			}
		}
	}
}

func TestTransitionDisjointChars(t *testing.T) {
	var moves []move
	ab := Chars{}
	ab.insertRange('a', 'b')
	bc := Chars{}
	bc.insertRange('b', 'c')
	f1 := Positions{newPos(1)}
	f2 := Positions{newPos(2)}
	transition(&moves, ab, f1)
	transition(&moves, bc, f2)
	if len(moves) != 3 {
		t.Fatalf("got %d moves, want 3 (a, b, c split)", len(moves))
	}
	for i := range moves {
		for j := i + 1; j < len(moves); j++ {
			if moves[i].chars.intersects(&moves[j].chars) {
				t.Errorf("moves %d and %d overlap", i, j)
			}
		}
	}
	// the intersection must carry the union of both follow sets
	found := false
	for _, m := range moves {
		if m.chars.contains('b') {
			found = true
			if !m.follow.contains(newPos(1)) || !m.follow.contains(newPos(2)) {
				t.Errorf("move on 'b' has follow %v, want union of both", m.follow)
			}
		}
	}
	if !found {
		t.Fatalf("no move covers 'b'")
	}
}

func TestTransitionPoolsEqualFollows(t *testing.T) {
	var moves []move
	a := Chars{}
	a.insert('a')
	z := Chars{}
	z.insert('z')
	f := Positions{newPos(7)}
	transition(&moves, a, f)
	transition(&moves, z, f.clone())
	if len(moves) != 1 {
		t.Fatalf("got %d moves, want 1: equal follows must pool chars", len(moves))
	}
	if !moves[0].chars.contains('a') || !moves[0].chars.contains('z') {
		t.Errorf("pooled move misses chars: %+v", moves[0].chars)
	}
}

func TestLookaheadIDNumbering(t *testing.T) {
	// two rules with one lookahead each: IDs must number them in rule order
	p, err := CompileWithOptions("a/b|c/d", "lr")
	if err != nil {
		t.Fatal(err)
	}
	ids := map[Index]bool{}
	for _, op := range p.Program() {
		if op.IsHead() || op.IsTail() {
			ids[op.Target()] = true
		}
	}
	if !ids[0] || !ids[1] || len(ids) != 2 {
		t.Errorf("lookahead IDs = %v, want exactly {0, 1}", ids)
	}
}
