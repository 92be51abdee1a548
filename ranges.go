package pattern

import "sort"

// span is a closed interval of source offsets.
type span struct {
	lo, hi Loc
}

// ranges is a set of disjoint source-offset intervals ordered by lower
// bound. It records where inline modifiers are active and where lookahead
// groups open and close.
type ranges struct {
	spans []span
}

// insert adds the interval [lo,hi], merging any overlapping intervals.
func (r *ranges) insert(lo, hi Loc) {
	s := r.spans
	i := sort.Search(len(s), func(i int) bool { return s[i].lo >= lo })
	// absorb an overlapping predecessor
	if i > 0 && s[i-1].hi >= lo {
		i--
		lo = s[i].lo
	}
	j := i
	for j < len(s) && s[j].lo <= hi {
		if s[j].hi > hi {
			hi = s[j].hi
		}
		j++
	}
	merged := append(s[:i:i], span{lo, hi})
	r.spans = append(merged, s[j:]...)
}

// find returns the index of the interval containing loc, or -1.
func (r *ranges) find(loc Loc) int {
	s := r.spans
	i := sort.Search(len(s), func(i int) bool { return s[i].hi >= loc })
	if i < len(s) && s[i].lo <= loc {
		return i
	}
	return -1
}

// overlaps reports whether [lo,hi] intersects any interval in the set.
func (r *ranges) overlaps(lo, hi Loc) bool {
	s := r.spans
	i := sort.Search(len(s), func(i int) bool { return s[i].hi >= lo })
	return i < len(s) && s[i].lo <= hi
}

// size returns the number of disjoint intervals.
func (r *ranges) size() int {
	return len(r.spans)
}

// modMap records, per modifier letter, the source ranges over which that
// modifier is locally active.
type modMap map[byte]*ranges

// mark records [lo,hi] as modified by mode.
func (m modMap) mark(mode byte, lo, hi Loc) {
	r, ok := m[mode]
	if !ok {
		r = &ranges{}
		m[mode] = r
	}
	r.insert(lo, hi)
}

// isModified reports whether modifier mode is active at loc.
func (m modMap) isModified(mode byte, loc Loc) bool {
	r, ok := m[mode]
	return ok && r.find(loc) >= 0
}

// lookMap records, per top-level alternative, the intervals spanned by its
// lookahead groups. Lookahead IDs number the intervals in rule order.
type lookMap map[Index]*ranges

// at returns the interval set of the given rule, creating it on first use.
func (l lookMap) at(choice Index) *ranges {
	r, ok := l[choice]
	if !ok {
		r = &ranges{}
		l[choice] = r
	}
	return r
}
