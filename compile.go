package pattern

import "sort"

// invalidIndex is the arena sentinel for "no state": the root of an empty
// subtree, the end of the creation-order list, and the target of a dead
// transition.
const invalidIndex uint32 = 0xFFFFFFFF

// edge is one DFA transition on the closed label range [lo,hi]. A target
// of invalidIndex routes to HALT.
type edge struct {
	lo, hi Char
	target uint32
}

// state is a DFA node. States live in the builder's arena and refer to one
// another by index: next links states in creation order, left and right
// form the search tree that uniques states by their position sets.
type state struct {
	positions Positions
	edges     []edge // ordered by lo
	next      uint32
	left      uint32
	right     uint32
	accept    Index // lowest nonzero accepted rule, 0 when none
	redo      bool  // an ignored-match position is present
	heads     []Index
	tails     []Index
	index     Index // program counter assigned by the encoder
}

// move pairs a transition label set with the positions reached on it.
type move struct {
	chars  Chars
	follow Positions
}

// builder runs the subset construction over the parsed position sets.
type builder struct {
	p    *Pattern
	ctx  *parseCtx
	sts  []state
	back uint32 // last state in creation order
}

// build runs the subset construction: starting from the trimmed start
// position set it computes the moves of every reachable state, uniques the
// target sets through the search tree, and installs range edges.
func (b *builder) build(startpos Positions) error {
	b.p.acc = make([]bool, len(b.p.end))
	trimLazy(&startpos)
	b.sts = append(b.sts, state{
		positions: startpos.clone(),
		next:      invalidIndex,
		left:      invalidIndex,
		right:     invalidIndex,
	})
	b.back = 0
	for si := uint32(0); si != invalidIndex; si = b.sts[si].next {
		moves, err := b.compileTransition(si)
		if err != nil {
			return err
		}
		for mi := range moves {
			pos := &moves[mi].follow
			trimLazy(pos)
			if len(*pos) == 0 {
				continue
			}
			ti := b.lookup(*pos)
			for _, r := range moves[mi].chars.r {
				b.insertEdge(si, r.lo, r.hi, ti)
				b.p.eno += int(r.hi) - int(r.lo) + 1
			}
		}
		st := &b.sts[si]
		if st.accept > 0 && int(st.accept) <= len(b.p.end) {
			b.p.acc[st.accept-1] = true
		}
		b.p.vno++
	}
	return nil
}

// lookup finds the state whose position set equals pos, allocating and
// linking a new state on a miss.
func (b *builder) lookup(pos Positions) uint32 {
	ti := uint32(0)
	parent := invalidIndex
	goLeft := false
	for ti != invalidIndex {
		cmp := pos.compare(b.sts[ti].positions)
		if cmp == 0 {
			return ti
		}
		parent = ti
		goLeft = cmp < 0
		if goLeft {
			ti = b.sts[ti].left
		} else {
			ti = b.sts[ti].right
		}
	}
	ni := uint32(len(b.sts))
	b.sts = append(b.sts, state{
		positions: pos.clone(),
		next:      invalidIndex,
		left:      invalidIndex,
		right:     invalidIndex,
	})
	if goLeft {
		b.sts[parent].left = ni
	} else {
		b.sts[parent].right = ni
	}
	b.sts[b.back].next = ni
	b.back = ni
	return ni
}

// insertEdge installs the transition [lo,hi] -> target, keeping the edge
// list ordered by lo.
func (b *builder) insertEdge(si uint32, lo, hi Char, target uint32) {
	e := b.sts[si].edges
	i := sort.Search(len(e), func(i int) bool { return e[i].lo >= lo })
	if i < len(e) && e[i].lo == lo {
		e[i] = edge{lo, hi, target}
		return
	}
	e = append(e, edge{})
	copy(e[i+1:], e[i:])
	e[i] = edge{lo, hi, target}
	b.sts[si].edges = e
}

// compileTransition classifies every position of the state: accept
// positions set the state's accept rule (or its redo marker), lookahead
// markers deposit head and tail IDs, and every other leaf contributes a
// (chars, follow) move. Lazy positions get a memoized lazy-adjusted follow
// set in which every non-ticked successor inherits the lazy marker.
func (b *builder) compileTransition(si uint32) ([]move, error) {
	var moves []move
	st := &b.sts[si]
	for _, k := range st.positions {
		if k.isAccept() {
			a := k.accepts()
			if a > 0 && (st.accept == 0 || a < st.accept) {
				st.accept = a
			}
			if a == 0 {
				st.redo = true
			}
			continue
		}
		loc := k.loc()
		c := b.p.at(loc)
		literal := b.ctx.mods.isModified('q', loc)
		switch {
		case c == '/' && b.p.opt.l && !literal:
			b.markLookahead(st, loc, !k.isTicked(), k.isTicked())
		case c == '(' && !literal:
			b.markLookahead(st, loc, true, false)
		case c == ')' && !literal:
			b.markLookahead(st, loc, false, true)
		default:
			base, ok := b.ctx.follow[k.base()]
			if !ok {
				continue
			}
			follow := *base
			if k.lazyLoc() != 0 {
				if k.isGreedy() {
					continue
				}
				if memo, hit := b.ctx.follow[k]; hit {
					follow = *memo
				} else {
					// memoize the lazy-adjusted follow set; lookahead
					// stops keep their tick instead of going lazy
					lazied := &Positions{}
					for _, q := range *base {
						if q.isTicked() {
							lazied.insert(q)
						} else {
							lazied.insert(q.lazy(k.lazyLoc()))
						}
					}
					b.ctx.follow[k] = lazied
					follow = *lazied
				}
			}
			chars, err := b.leafChars(k, loc, c, literal)
			if err != nil {
				return nil, err
			}
			transition(&moves, chars, follow)
		}
	}
	return moves, nil
}

// markLookahead deposits the lookahead ID of the interval containing loc
// into the state's head and/or tail sets. IDs number the lookahead
// intervals across rules in rule order.
func (b *builder) markLookahead(st *state, loc Loc, head, tail bool) {
	n := Index(0)
	for choice := Index(1); int(choice) <= len(b.p.end); choice++ {
		rng, ok := b.ctx.look[choice]
		if !ok {
			continue
		}
		if j := rng.find(loc); j >= 0 {
			id := n + Index(j)
			if head {
				st.heads = insertIndex(st.heads, id)
			}
			if tail {
				st.tails = insertIndex(st.tails, id)
			}
		}
		n += Index(rng.size())
	}
}

// insertIndex adds id to a small ordered index set.
func insertIndex(s []Index, id Index) []Index {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= id })
	if i < len(s) && s[i] == id {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = id
	return s
}

// leafChars compiles the byte set accepted by the leaf at loc.
func (b *builder) leafChars(k Pos, loc Loc, c Char, literal bool) (Chars, error) {
	var chars Chars
	if literal {
		chars.insert(c)
		return chars, nil
	}
	switch c {
	case '.':
		if b.p.opt.s || b.ctx.mods.isModified('s', loc) {
			chars.insertRange(0, 0xFF)
		} else {
			chars.insertRange(0, 9)
			chars.insertRange(11, 0xFF)
		}
	case '^':
		if b.p.opt.m || b.ctx.mods.isModified('m', loc) {
			chars.insert(MetaBOL)
		} else {
			chars.insert(MetaBOB)
		}
	case '$':
		if b.p.opt.m || b.ctx.mods.isModified('m', loc) {
			chars.insert(MetaEOL)
		} else {
			chars.insert(MetaEOB)
		}
	default:
		if c == '[' && b.p.escsAt(loc, "AZBb<>ij") == 0 {
			if err := b.compileList(loc+1, &chars); err != nil {
				return chars, err
			}
			break
		}
		switch b.p.escAt(loc) {
		case 'i':
			chars.insert(MetaIND)
		case 'j':
			chars.insert(MetaDED)
		case 'A':
			chars.insert(MetaBOB)
		case 'Z':
			chars.insert(MetaEOB)
		case 'B':
			if k.isAnchor() {
				chars.insert(MetaNWB)
			} else {
				chars.insert(MetaNWE)
			}
		case 'b':
			if k.isAnchor() {
				chars.insertRange(MetaBWB, MetaEWB)
			} else {
				chars.insertRange(MetaBWE, MetaEWE)
			}
		case '<':
			if k.isAnchor() {
				chars.insert(MetaBWB)
			} else {
				chars.insert(MetaBWE)
			}
		case '>':
			if k.isAnchor() {
				chars.insert(MetaEWB)
			} else {
				chars.insert(MetaEWE)
			}
		case 0: // not an escape, a plain character
			if isAlphaChar(c) && (b.p.opt.i || b.ctx.mods.isModified('i', loc)) {
				chars.insert(toUpperChar(c))
				chars.insert(toLowerChar(c))
			} else {
				chars.insert(c)
			}
		default:
			if _, err := b.compileEsc(loc+1, &chars); err != nil {
				return chars, err
			}
		}
	}
	return chars, nil
}

// transition merges a new (chars -> follow) move into the move list while
// keeping all chars sets pairwise disjoint. Moves with equal follow sets
// pool their chars; overlapping moves are split so the intersection gets
// the union of both follow sets.
func transition(moves *[]move, chars Chars, follow Positions) {
	rest := chars.clone()
	i := 0
	for i < len(*moves) {
		m := &(*moves)[i]
		if m.follow.equal(follow) {
			rest.or(&m.chars)
			*moves = append((*moves)[:i], (*moves)[i+1:]...)
			continue
		}
		if chars.intersects(&m.chars) {
			common := intersect(&chars, &m.chars)
			if isSubset(follow, m.follow) {
				rest.sub(&common)
				i++
			} else if m.chars.equal(&common) && isSubset(m.follow, follow) {
				*moves = append((*moves)[:i], (*moves)[i+1:]...)
			} else {
				rest.sub(&common)
				m.chars.sub(&common)
				if m.chars.any() {
					nf := m.follow.clone()
					nf.union(follow)
					*moves = append(*moves, move{chars: common, follow: nf})
				} else {
					m.chars = common
					m.follow.union(follow)
				}
				i++
			}
		} else {
			i++
		}
	}
	if rest.any() {
		*moves = append(*moves, move{chars: rest, follow: follow.clone()})
	}
}

// compileEsc compiles one escape sequence starting at loc (just past the
// escape character) into chars. It returns the single code point the
// escape denotes, or a meta sentinel when the escape expanded to a class.
func (b *builder) compileEsc(loc Loc, chars *Chars) (Char, error) {
	c := b.p.at(loc)
	switch {
	case c == '0':
		v := 0
		for i := Loc(1); i <= 3; i++ {
			d := b.p.at(loc + i)
			if d < '0' || d > '7' {
				break
			}
			v = v*8 + int(d-'0')
		}
		c = Char(v & 0xFFFF)
	case (c == 'x' || c == 'u') && b.p.at(loc+1) == '{':
		v := 0
		for i := Loc(2); isXdigitChar(b.p.at(loc + i)); i++ {
			v = v*16 + hexVal(b.p.at(loc+i))
			if v > 0xFFFF {
				v = 0xFFFF
			}
		}
		c = Char(v)
	case c == 'x' && isXdigitChar(b.p.at(loc+1)):
		v := hexVal(b.p.at(loc + 1))
		if isXdigitChar(b.p.at(loc + 2)) {
			v = v*16 + hexVal(b.p.at(loc+2))
		}
		c = Char(v)
	case c == 'c':
		c = b.p.at(loc+1) % 32
	case c == 'e':
		c = 0x1B
	case c == '_':
		posix(6, chars) // \_ matches [[:alpha:]]
	case c == 'p' && b.p.at(loc+1) == '{':
		found := -1
		for i := range posixClass {
			if b.p.eqAt(loc+2, posixClass[i]) {
				found = i
				break
			}
		}
		if found < 0 {
			return MetaEOL, b.p.fail(RegexSyntax, "unrecognized character class", loc)
		}
		posix(found, chars)
		return MetaEOL, nil
	default:
		if i := escIndex("abtnvfr", c); i >= 0 {
			c = Char(i) + '\a'
		} else if i := escIndex(escapeClasses, c); i >= 0 {
			var class Chars
			posix(i/2, &class)
			if i%2 == 1 {
				class.flip()
			}
			chars.or(&class)
			return MetaEOL, nil
		}
	}
	if c <= 0xFF {
		chars.insert(c)
	}
	return c, nil
}

// escapeClasses maps escape letters to POSIX table slots: the letter at
// index 2k selects table entry k, its uppercase neighbor complements it.
const escapeClasses = "__sSxX________hHdD__lL__uUwW"

func hexVal(c Char) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}

// escIndex is IndexByte over a Char, excluding the '_'
// padding and non-ASCII values.
func escIndex(s string, c Char) int {
	if c == '_' || c >= 0x80 {
		return -1
	}
	for i := 0; i < len(s); i++ {
		if s[i] == byte(c) {
			return i
		}
	}
	return -1
}

// compileList compiles a bracketed character list starting at loc (just
// past the opening bracket) into chars.
func (b *builder) compileList(loc Loc, chars *Chars) error {
	complement := b.p.at(loc) == '^'
	if complement {
		loc++
	}
	prev := MetaBOL // sentinel: no previous character yet
	lo := MetaEOL   // sentinel: no pending range start
	c := b.p.at(loc)
	for c != 0 && (c != ']' || prev == MetaBOL) {
		if c == '-' && !isMeta(prev) && isMeta(lo) {
			lo = prev
		} else {
			if c == '[' && b.p.at(loc+1) == ':' {
				if cLoc, ok := b.p.findAt(loc+2, ':'); ok && b.p.at(cLoc+1) == ']' {
					if cLoc == loc+3 {
						var err error
						if c, err = b.compileEsc(loc+2, chars); err != nil {
							return err
						}
					} else {
						found := -1
						for i := range posixClass {
							// the first letter is skipped so either case matches
							if b.p.eqAt(loc+3, posixClass[i][1:]) {
								found = i
								break
							}
						}
						if found < 0 {
							if err := b.p.fail(RegexSyntax, "unrecognized POSIX character class", loc); err != nil {
								return err
							}
						} else {
							posix(found, chars)
						}
						c = MetaEOL
					}
					loc = cLoc + 1
				}
			} else if c == Char(b.p.opt.e) && b.p.opt.e != 0 && !b.p.opt.b {
				var err error
				if c, err = b.compileEsc(loc+1, chars); err != nil {
					return err
				}
				if err = b.p.parseEsc(&loc); err != nil {
					return err
				}
				loc--
			}
			if !isMeta(c) {
				if !isMeta(lo) {
					if lo <= c {
						chars.insertRange(lo, c)
					} else if err := b.p.fail(RegexList, "inverted character range in list", loc); err != nil {
						return err
					}
					if b.p.opt.i || b.ctx.mods.isModified('i', loc) {
						for a := lo; a <= c && a <= 0xFF; a++ {
							if isUpperChar(a) {
								chars.insert(toLowerChar(a))
							} else if isLowerChar(a) {
								chars.insert(toUpperChar(a))
							}
						}
					}
					c = MetaEOL
				} else if isAlphaChar(c) && (b.p.opt.i || b.ctx.mods.isModified('i', loc)) {
					chars.insert(toUpperChar(c))
					chars.insert(toLowerChar(c))
				} else {
					chars.insert(c)
				}
			}
			prev = c
			lo = MetaEOL
		}
		loc++
		c = b.p.at(loc)
	}
	if !isMeta(lo) {
		chars.insert('-') // trailing dash is literal
	}
	if complement {
		chars.flip()
	}
	return nil
}
