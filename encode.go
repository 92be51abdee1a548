package pattern

import "github.com/coregx/pattern/internal/conv"

// compact merges consecutive byte edges that share a target. Windows of
// adjacent edges are scanned so that ranges separated only by edges to a
// different target still pool; the matcher resolves the resulting overlap
// by first-match order. Meta edges are never touched.
func (b *builder) compact() {
	for si := range b.sts {
		e := b.sts[si].edges
		for i := 0; i < len(e); i++ {
			hi := e[i].hi
			if hi >= 0xFF {
				break
			}
			j := i + 1
			for j < len(e) && e[j].lo <= hi+1 {
				hi = e[j].hi
				if e[j].target == e[i].target {
					e[i].hi = hi
					e = append(e[:j], e[j+1:]...)
				} else {
					j++
				}
			}
		}
		b.sts[si].edges = e
	}
}

// encode linearizes the DFA into the opcode program. The first pass
// assigns every state its program counter, adds the dead-edge fallback
// where byte coverage is incomplete, and checks the program fits the
// 16-bit counter space; the second pass emits the opcodes.
func (p *Pattern) encode(b *builder) error {
	nop := 0
	for si := range b.sts {
		st := &b.sts[si]
		st.index = conv.IntToUint16(nop)
		hi := Char(0)
		for _, e := range st.edges {
			if e.lo == hi {
				hi = e.hi + 1
			}
			nop++
			if isMeta(e.lo) {
				nop += int(e.hi) - int(e.lo)
			}
		}
		if hi <= 0xFF {
			// dead fallback for the uncovered bytes
			b.insertEdge(uint32(si), hi, 0xFF, invalidIndex)
			nop++
		}
		nop += len(st.heads) + len(st.tails)
		if st.accept > 0 || st.redo {
			nop++
		}
		if nop > int(IMAX) {
			return p.fail(CodeOverflow, "out of code memory", 0)
		}
	}
	opc := make([]Opcode, 0, nop)
	for si := range b.sts {
		st := &b.sts[si]
		if st.redo {
			opc = append(opc, opcodeRedo())
		} else if st.accept > 0 {
			opc = append(opc, opcodeTake(st.accept))
		}
		for _, id := range st.tails {
			opc = append(opc, opcodeTail(id))
		}
		for _, id := range st.heads {
			opc = append(opc, opcodeHead(id))
		}
		// highest range first; the dead fallback is placed by its lo like
		// any other edge, so live edges below it still come after it
		for i := len(st.edges) - 1; i >= 0; i-- {
			e := st.edges[i]
			target := IMAX
			if e.target != invalidIndex {
				target = b.sts[e.target].index
			}
			if !isMeta(e.lo) {
				opc = append(opc, opcodeGoto(e.lo, e.hi, target))
			} else {
				for m := e.lo; m <= e.hi; m++ {
					opc = append(opc, opcodeGoto(m, m, target))
				}
			}
		}
	}
	p.opc = opc
	p.nop = conv.IntToUint16(len(opc))
	return nil
}

// assemble finishes compilation: compact the DFA, encode the opcode
// program, tear down the state graph, and run the requested exports over
// the encoded form.
func (p *Pattern) assemble(b *builder) error {
	b.compact()
	if err := p.encode(b); err != nil {
		return err
	}
	b.sts = nil
	p.export()
	return nil
}
