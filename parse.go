package pattern

import "strings"

// parseCtx carries the followpos map, the modifier ranges and the per-rule
// lookahead intervals built up during parsing and consumed by the DFA
// builder.
type parseCtx struct {
	follow Follow
	mods   modMap
	look   lookMap
}

// frag describes a parsed subexpression: the positions that can match its
// first and last byte, whether it matches the empty string, the pending
// lazy quantifier markers, and the current repetition-unrolling multiplier.
type frag struct {
	first    Positions
	last     Positions
	nullable bool
	lazyset  Positions
	iter     Index
}

// at returns the source byte at loc, or 0 past the end.
func (p *Pattern) at(loc Loc) Char {
	if int(loc) < len(p.rex) {
		return Char(p.rex[loc])
	}
	return 0
}

// escAt returns the character escaped at loc, or 0 when loc does not hold
// the escape character.
func (p *Pattern) escAt(loc Loc) Char {
	if p.opt.e != 0 && p.at(loc) == Char(p.opt.e) {
		return p.at(loc + 1)
	}
	return 0
}

// escsAt returns the character escaped at loc if it is one of set, else 0.
func (p *Pattern) escsAt(loc Loc, set string) Char {
	c := p.escAt(loc)
	if c != 0 && c < 0x80 && strings.IndexByte(set, byte(c)) >= 0 {
		return c
	}
	return 0
}

// eqAt reports whether the source matches s starting at loc.
func (p *Pattern) eqAt(loc Loc, s string) bool {
	if int(loc) > len(p.rex) {
		return false
	}
	return strings.HasPrefix(p.rex[loc:], s)
}

// findAt locates the next occurrence of c at or after loc.
func (p *Pattern) findAt(loc Loc, c byte) (Loc, bool) {
	if int(loc) >= len(p.rex) {
		return 0, false
	}
	i := strings.IndexByte(p.rex[loc:], c)
	if i < 0 {
		return 0, false
	}
	return loc + Loc(i), true
}

func isSpaceChar(c Char) bool {
	return c == ' ' || (c >= '\t' && c <= '\r')
}

func isDigitChar(c Char) bool {
	return c >= '0' && c <= '9'
}

func isXdigitChar(c Char) bool {
	return isDigitChar(c) || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func isAlnumChar(c Char) bool {
	return isDigitChar(c) || isAlphaChar(c)
}

func isAlphaChar(c Char) bool {
	return isUpperChar(c) || isLowerChar(c)
}

func isUpperChar(c Char) bool { return c >= 'A' && c <= 'Z' }
func isLowerChar(c Char) bool { return c >= 'a' && c <= 'z' }

func toUpperChar(c Char) Char {
	if isLowerChar(c) {
		return c - 0x20
	}
	return c
}

func toLowerChar(c Char) Char {
	if isUpperChar(c) {
		return c + 0x20
	}
	return c
}

// lazyOver inserts into out every position of pos rewritten to carry each
// lazy marker of lazyset.
func lazyOver(lazyset, pos Positions, out *Positions) {
	for _, p := range pos {
		for _, q := range lazyset {
			out.insert(p.lazy(q.loc()))
		}
	}
}

// lazify rewrites pos in place to carry the markers of lazyset.
func lazify(lazyset Positions, pos *Positions) {
	if len(lazyset) == 0 {
		return
	}
	var out Positions
	lazyOver(lazyset, *pos, &out)
	*pos = out
}

// greedify marks every position greedy and clears its lazy marker.
func greedify(pos *Positions) {
	var out Positions
	for _, p := range *pos {
		out.insert(p.lazy(0).greedy(true))
	}
	*pos = out
}

// trimLazy prunes a position set from the back: lazy accept or anchor
// positions are rewritten to their non-lazy form while the rest of their
// lazy group is removed, and greedy lazy positions gain a non-lazy twin.
// The scan stops at the first lazy non-accept position without the greedy
// bit, which is kept along with everything below it.
// The operation is idempotent.
func trimLazy(pos *Positions) {
	j := len(*pos) - 1
	for j >= 0 {
		q := (*pos)[j]
		l := q.lazyLoc()
		if l == 0 {
			break
		}
		if q.isAccept() || q.isAnchor() {
			pos.eraseAt(j)
			j--
			if pos.insert(q.lazy(0)) {
				j++
			}
			for j >= 0 && (*pos)[j].lazyLoc() == l {
				pos.eraseAt(j)
				j--
			}
		} else {
			if !q.isGreedy() {
				break
			}
			if !pos.insert(q.lazy(0)) {
				j--
			}
			// an actual insert lands below the lazy tail, shifting the
			// next unprocessed element back to index j
		}
	}
}

// parse compiles the top-level alternation: each '|'-separated alternative
// becomes one rule with its own accept index and lookahead interval set.
// It returns the start position set of the whole pattern.
func (p *Pattern) parse(ctx *parseCtx) (Positions, error) {
	var startpos Positions
	loc := Loc(0)
	choice := Index(1)
	for {
		var f frag
		la := ctx.look.at(choice)
		if err := p.parse2(ctx, true, &loc, &f, la); err != nil {
			return nil, err
		}
		p.end = append(p.end, loc)
		startpos.union(f.first)
		if f.nullable {
			if len(f.lazyset) == 0 {
				startpos.insert(acceptPos(choice))
			} else {
				for _, q := range f.lazyset {
					startpos.insert(acceptPos(choice).lazy(q.loc()))
				}
			}
		}
		for _, k := range f.last {
			dst := ctx.follow.at(k.base())
			if len(f.lazyset) == 0 {
				dst.insert(acceptPos(choice))
			} else {
				for _, q := range f.lazyset {
					dst.insert(acceptPos(choice).lazy(q.loc()))
				}
			}
		}
		choice++
		if p.at(loc) != '|' {
			break
		}
		loc++
	}
	return startpos, nil
}

// parse1 parses an alternation within a group.
func (p *Pattern) parse1(ctx *parseCtx, begin bool, loc *Loc, f *frag, la *ranges) error {
	if err := p.parse2(ctx, begin, loc, f, la); err != nil {
		return err
	}
	for p.at(*loc) == '|' {
		*loc++
		var f1 frag
		if err := p.parse2(ctx, begin, loc, &f1, la); err != nil {
			return err
		}
		f.first.union(f1.first)
		f.last.union(f1.last)
		f.lazyset.union(f1.lazyset)
		if f1.nullable {
			f.nullable = true
		}
		if f1.iter > f.iter {
			f.iter = f1.iter
		}
	}
	return nil
}

// parse2 parses a concatenation with an optional anchor prefix and, when
// the l option is on, a trailing-context '/' separator.
func (p *Pattern) parse2(ctx *parseCtx, begin bool, loc *Loc, f *frag, la *ranges) error {
	var aPos Positions
	if begin {
		for {
			if p.opt.x {
				for isSpaceChar(p.at(*loc)) {
					*loc++
				}
			}
			if p.at(*loc) == '^' {
				aPos.insert(newPos(*loc))
				*loc++
			} else if p.escsAt(*loc, "ABb<>") != 0 {
				aPos.insert(newPos(*loc))
				*loc += 2
			} else {
				if p.escsAt(*loc, "ij") != 0 {
					begin = false
				}
				break
			}
		}
	}
	if err := p.parse3(ctx, begin, loc, f, la); err != nil {
		return err
	}
	lPos := NPos
	for {
		c := p.at(*loc)
		if c == 0 || c == '|' || c == ')' {
			break
		}
		if c == '/' && lPos == NPos && p.opt.l && (!p.opt.x || p.at(*loc+1) != '*') {
			lPos = newPos(*loc)
			*loc++
		}
		var f1 frag
		if err := p.parse3(ctx, false, loc, &f1, la); err != nil {
			return err
		}
		if c == '/' && lPos != NPos {
			f1.first.insert(lPos)
		}
		if len(f.lazyset) > 0 {
			// distribute pending laziness over the next fragment
			var f2 Positions
			lazyOver(f.lazyset, f1.first, &f2)
			f1.first.union(f2)
		}
		if f.nullable {
			f.first.union(f1.first)
		}
		for _, k := range f.last {
			ctx.follow.at(k.base()).union(f1.first)
		}
		if f1.nullable {
			f.last.union(f1.last)
		} else {
			f.last = f1.last
			f.nullable = false
		}
		f.lazyset.union(f1.lazyset)
		if f1.iter > f.iter {
			f.iter = f1.iter
		}
	}
	for _, a := range aPos {
		for _, k := range f.last {
			if (p.at(k.loc()) == ')' || (p.opt.l && p.at(k.loc()) == '/')) && la.find(k.loc()) >= 0 {
				ctx.follow.at(a.base()).insert(k)
			}
		}
		for _, k := range f.last {
			ctx.follow.at(k.base()).insert(a.anchor(!f.nullable || k.base() != a.base()))
		}
		f.last = Positions{}
		f.last.insert(a)
		if f.nullable {
			f.first.insert(a)
			f.nullable = false
		}
	}
	if lPos != NPos {
		stop := lPos.ticked(true)
		for _, k := range f.last {
			ctx.follow.at(k.base()).insert(stop)
		}
		f.last.insert(stop)
		la.insert(lPos.loc(), lPos.loc())
	}
	return nil
}

// parse3 parses an atom followed by an optional postfix quantifier.
func (p *Pattern) parse3(ctx *parseCtx, begin bool, loc *Loc, f *frag, la *ranges) error {
	bPos := newPos(*loc)
	if err := p.parse4(ctx, begin, loc, f, la); err != nil {
		return err
	}
	c := p.at(*loc)
	if p.opt.x {
		for isSpaceChar(c) {
			*loc++
			c = p.at(*loc)
		}
	}
	if c == '*' || c == '+' || c == '?' {
		if c == '*' || c == '?' {
			f.nullable = true
		}
		*loc++
		if p.at(*loc) == '?' {
			f.lazyset.insert(newPos(*loc))
			if f.nullable {
				lazify(f.lazyset, &f.first)
			}
			*loc++
		} else {
			greedify(&f.first)
		}
		if c == '+' && !f.nullable && len(f.lazyset) > 0 {
			var f1 Positions
			lazyOver(f.lazyset, f.first, &f1)
			for _, k := range f.last {
				ctx.follow.at(k.base()).union(f1)
			}
			f.first.union(f1)
		} else if c == '*' || c == '+' {
			for _, k := range f.last {
				ctx.follow.at(k.base()).union(f.first)
			}
		}
	} else if c == '{' { // {n,m} repeats the atom n to m times
		k := 0
		for i := 0; i < 7; i++ {
			*loc++
			c = p.at(*loc)
			if !isDigitChar(c) {
				break
			}
			k = 10*k + int(c-'0')
		}
		if k > int(IMAX) {
			if err := p.fail(RegexRange, "{min,max} range overflow", *loc); err != nil {
				return err
			}
			k = int(IMAX)
		}
		n := Index(k)
		m := n
		unlimited := false
		if p.at(*loc) == ',' {
			if isDigitChar(p.at(*loc + 1)) {
				mk := 0
				for i := 0; i < 7; i++ {
					*loc++
					c = p.at(*loc)
					if !isDigitChar(c) {
						break
					}
					mk = 10*mk + int(c-'0')
				}
				if mk > int(IMAX) {
					if err := p.fail(RegexRange, "{min,max} range overflow", *loc); err != nil {
						return err
					}
					mk = int(IMAX)
				}
				m = Index(mk)
			} else {
				unlimited = true
				*loc++
			}
		}
		if p.at(*loc) != '}' {
			return p.fail(RegexSyntax, "malformed range {min,max}", *loc)
		}
		nullable1 := f.nullable
		if n == 0 {
			f.nullable = true
		}
		if n > m {
			if err := p.fail(RegexRange, "min > max in range {min,max}", *loc); err != nil {
				return err
			}
			m = n
		}
		*loc++
		if p.at(*loc) == '?' {
			f.lazyset.insert(newPos(*loc))
			if f.nullable {
				lazify(f.lazyset, &f.first)
			}
			*loc++
		} else if n < m && len(f.lazyset) == 0 {
			greedify(&f.first)
		}
		var firstpos1 Positions
		pfirst := &f.first
		if !f.nullable && len(f.lazyset) > 0 {
			lazyOver(f.lazyset, f.first, &firstpos1)
			pfirst = &firstpos1
		}
		if f.nullable && unlimited { // {0,} == *
			for _, k := range f.last {
				ctx.follow.at(k.base()).union(*pfirst)
			}
		} else if m > 0 {
			if int(f.iter)*int(m) >= int(IMAX) {
				if err := p.fail(RegexRange, "{min,max} range overflow", *loc); err != nil {
					return err
				}
				return nil
			}
			// virtually unroll the atom by replicating its followpos
			// entries m-1 times with shifted iteration indexes
			extra := Follow{}
			for _, key := range ctx.follow.sortedKeys() {
				if key >= bPos {
					src := *ctx.follow[key]
					for i := Index(1); i < m; i++ {
						dst := extra.at(key.iterAdd(f.iter * i))
						for _, q := range src {
							dst.insert(q.iterAdd(f.iter * i))
						}
					}
				}
			}
			for _, key := range extra.sortedKeys() {
				ctx.follow.at(key).union(*extra[key])
			}
			// concatenate consecutive copies: lastpos of copy i feeds
			// firstpos of copy i+1
			for i := Index(0); i+1 < m; i++ {
				for _, k := range f.last {
					dst := ctx.follow.at(k.base().iterAdd(f.iter * i))
					for _, j := range *pfirst {
						dst.insert(j.iterAdd(f.iter*i + f.iter))
					}
				}
			}
			if unlimited {
				for _, k := range f.last {
					dst := ctx.follow.at(k.base().iterAdd(f.iter*m - f.iter))
					for _, j := range *pfirst {
						dst.insert(j.iterAdd(f.iter*m - f.iter))
					}
				}
			}
			if nullable1 {
				// a nullable atom extends firstpos into every copy
				fp1 := (*pfirst).clone()
				for i := Index(1); i+1 <= m; i++ {
					for _, k := range fp1 {
						f.first.insert(k.iterAdd(f.iter * i))
					}
				}
			}
			// copies n..m-1 are optional: their lastpos all end the match
			var last1 Positions
			iStart := Index(0)
			if !f.nullable {
				iStart = n - 1
			}
			for i := iStart; i+1 <= m; i++ {
				for _, k := range f.last {
					last1.insert(k.iterAdd(f.iter * i))
				}
			}
			f.last = last1
			f.iter *= m
		} else { // zero repetition {0}
			f.first = nil
			f.last = nil
			f.lazyset = nil
		}
	} else if c == '}' {
		err := p.fail(RegexSyntax, "missing {", *loc)
		*loc++
		if err != nil {
			return err
		}
	}
	return nil
}

// parse4 parses one atom: a group, a character list, a quoted literal, a
// free-spacing comment, or a single (possibly escaped) character.
func (p *Pattern) parse4(ctx *parseCtx, begin bool, loc *Loc, f *frag, la *ranges) error {
	f.first = nil
	f.last = nil
	f.nullable = true
	f.lazyset = nil
	f.iter = 1
	c := p.at(*loc)
	switch {
	case c == '(':
		*loc++
		if p.at(*loc) == '?' {
			*loc++
			c = p.at(*loc)
			switch {
			case c == '#': // (?# comment
				for {
					*loc++
					c = p.at(*loc)
					if c == 0 || c == ')' {
						break
					}
				}
				if c == ')' {
					*loc++
				}
			case c == '^': // (?^ negative pattern, matches are ignored
				*loc++
				if err := p.parse1(ctx, begin, loc, f, la); err != nil {
					return err
				}
				for _, k := range f.last {
					ctx.follow.at(k.base()).insert(acceptPos(0))
				}
			case c == '=': // (?= lookahead
				lPos := newPos(*loc - 2) // lookahead starts at the (
				*loc++
				if err := p.parse1(ctx, begin, loc, f, la); err != nil {
					return err
				}
				f.first.insert(lPos)
				if f.nullable {
					f.last.insert(lPos)
				}
				if !la.overlaps(lPos.loc(), *loc) { // no nested lookaheads
					la.insert(lPos.loc(), *loc)
				}
				stop := newPos(*loc).ticked(true) // lookstop at the )
				for _, k := range f.last {
					ctx.follow.at(k.base()).insert(stop)
				}
				f.last.insert(stop)
				if f.nullable {
					f.first.insert(stop)
					f.last.insert(lPos)
				}
			case c == ':':
				*loc++
				if err := p.parse1(ctx, begin, loc, f, la); err != nil {
					return err
				}
			default:
				// inline modifiers (?imqsx:...) or global (?imqsx)
				mLoc := *loc
				oi, oq, om, os, ox := p.opt.i, p.opt.q, p.opt.m, p.opt.s, p.opt.x
				for {
					switch c {
					case 'i':
						p.opt.i = true
					case 'l':
						p.opt.l = true
					case 'm':
						p.opt.m = true
					case 'q':
						p.opt.q = true
					case 's':
						p.opt.s = true
					case 'x':
						p.opt.x = true
					default:
						if err := p.fail(RegexSyntax, "unrecognized modifier", *loc); err != nil {
							return err
						}
					}
					*loc++
					c = p.at(*loc)
					if c == 0 || c == ':' || c == ')' {
						break
					}
				}
				if c != 0 {
					*loc++
				}
				if mLoc == 2 && c == ')' {
					// (?imqsx) at the very start applies globally
					if err := p.parse2(ctx, begin, loc, f, la); err != nil {
						return err
					}
				} else {
					if err := p.parse1(ctx, begin, loc, f, la); err != nil {
						return err
					}
					for l2 := mLoc; ; {
						c2 := p.at(l2)
						l2++
						if c2 != 0 && c2 != 'q' && c2 != 'x' && c2 != ':' && c2 != ')' && c2 < 0x80 {
							ctx.mods.mark(byte(c2), l2, *loc)
						}
						if c2 == 0 || c2 == ':' || c2 == ')' {
							break
						}
					}
					p.opt.i, p.opt.q, p.opt.m, p.opt.s, p.opt.x = oi, oq, om, os, ox
				}
			}
		} else {
			if err := p.parse1(ctx, begin, loc, f, la); err != nil {
				return err
			}
		}
		if c != ')' {
			if p.at(*loc) == ')' {
				*loc++
			} else if err := p.fail(RegexSyntax, "missing )", *loc); err != nil {
				return err
			}
		}
	case c == '[':
		f.first.insert(newPos(*loc))
		f.last.insert(newPos(*loc))
		f.nullable = false
		*loc++
		c = p.at(*loc)
		if c == '^' {
			*loc++
			c = p.at(*loc)
		}
		for c != 0 {
			if c == '[' && p.at(*loc+1) == ':' {
				if cLoc, ok := p.findAt(*loc+2, ':'); ok && p.at(cLoc+1) == ']' {
					*loc = cLoc + 1
				}
			}
			*loc++
			c = p.at(*loc)
			if c == ']' {
				*loc++
				break
			}
		}
		if c == 0 {
			return p.fail(RegexSyntax, "missing ]", *loc)
		}
	case (c == '"' && p.opt.q) || p.escAt(*loc) == 'Q':
		quoted := c == '"'
		if !quoted {
			*loc++
		}
		qLoc := *loc
		*loc++
		c = p.at(*loc)
		if c != 0 && (!quoted || c != '"') && (quoted || c != Char(p.opt.e) || p.at(*loc+1) != 'E') {
			f.first.insert(newPos(*loc))
			prev := NPos
			for {
				if c == '\\' && quoted && p.at(*loc+1) == '"' {
					*loc++
				}
				if prev != NPos {
					ctx.follow.at(prev).insert(newPos(*loc))
				}
				prev = newPos(*loc)
				*loc++
				c = p.at(*loc)
				if c == 0 || (quoted && c == '"') || (!quoted && c == Char(p.opt.e) && p.at(*loc+1) == 'E') {
					break
				}
			}
			f.last.insert(prev)
			f.nullable = false
		}
		ctx.mods.mark('q', qLoc, *loc)
		if c != 0 {
			if !quoted {
				*loc++
			}
			if p.at(*loc) != 0 {
				*loc++
			}
		} else {
			msg := "missing \\E"
			if quoted {
				msg = `missing "`
			}
			return p.fail(RegexSyntax, msg, *loc)
		}
	case c == '#' && p.opt.x: // line comment
		*loc++
		for {
			c = p.at(*loc)
			if c == 0 || c == '\n' {
				break
			}
			*loc++
		}
		if c == '\n' {
			*loc++
		}
	case c == '/' && p.opt.l && p.opt.x && p.at(*loc+1) == '*': // block comment
		*loc += 2
		for {
			c = p.at(*loc)
			if c == 0 || (c == '*' && p.at(*loc+1) == '/') {
				break
			}
			*loc++
		}
		if c == 0 {
			return p.fail(RegexSyntax, "missing */", *loc)
		}
		*loc += 2
	case isSpaceChar(c) && p.opt.x:
		*loc++
	case c == '*' || c == '+' || c == '?':
		return p.fail(RegexRepeat, "nothing to repeat", *loc)
	case c != 0 && c != '|' && c != ')':
		if begin && (c == '$' || p.escsAt(*loc, "AZBb<>ij") != 0) {
			if err := p.fail(RegexSyntax, "empty pattern", *loc+1); err != nil {
				return err
			}
		}
		if c == '{' && isDigitChar(p.at(*loc+1)) {
			if err := p.fail(RegexRepeat, "nothing to repeat", *loc); err != nil {
				return err
			}
		}
		f.first.insert(newPos(*loc))
		f.last.insert(newPos(*loc))
		f.nullable = false
		if err := p.parseEsc(loc); err != nil {
			return err
		}
	case !begin || c != 0: // empty subpatterns are not permitted
		return p.fail(RegexSyntax, "empty pattern", *loc)
	}
	return nil
}

// parseEsc scans past one atom character, following the shape of an escape
// sequence when one starts at loc.
func (p *Pattern) parseEsc(loc *Loc) error {
	c := p.at(*loc)
	*loc++
	if c != Char(p.opt.e) || p.opt.e == 0 {
		return nil
	}
	c = p.at(*loc)
	if c == 0 {
		return nil
	}
	switch {
	case c == '0':
		*loc++
		for i := 0; i < 3 && isDigitChar(p.at(*loc)); i++ {
			*loc++
		}
	case c == 'p' && p.at(*loc+1) == '{':
		*loc++
		for {
			*loc++
			if !isAlnumChar(p.at(*loc)) {
				break
			}
		}
		if p.at(*loc) != '}' {
			return p.fail(RegexSyntax, "malformed \\p{}", *loc)
		}
		*loc++
	case (c == 'u' || c == 'x') && p.at(*loc+1) == '{':
		*loc++
		for {
			*loc++
			if !isXdigitChar(p.at(*loc)) {
				break
			}
		}
		if p.at(*loc) != '}' {
			msg := "malformed \\x{}"
			if c == 'u' {
				msg = "malformed \\u{}"
			}
			return p.fail(RegexSyntax, msg, *loc)
		}
		*loc++
	case c == 'x':
		*loc++
		for i := 0; i < 2 && isXdigitChar(p.at(*loc)); i++ {
			*loc++
		}
	default:
		if c == 'c' {
			*loc++
		}
		if p.at(*loc) == 0 {
			return p.fail(RegexSyntax, "malformed \\c", *loc)
		}
		*loc++
	}
	return nil
}
