package pattern

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dave/jennifer/jen"
)

// export writes the files requested with the f option. The format follows
// the file suffix: .gv gets a Graphviz dump of the DFA, .h/.hpp/.cc/.cpp a
// C++ opcode array, .go a generated Go source file. A path starting with
// "stdout." writes to standard output, one starting with "+" appends.
// Unwritable paths are skipped; exports are side effects and never fail
// compilation.
func (p *Pattern) export() {
	for _, path := range p.opt.f {
		var write func(io.Writer) error
		switch {
		case strings.HasSuffix(path, ".gv"):
			write = p.ExportDot
		case strings.HasSuffix(path, ".h"), strings.HasSuffix(path, ".hpp"),
			strings.HasSuffix(path, ".cc"), strings.HasSuffix(path, ".cpp"):
			write = p.ExportCode
		case strings.HasSuffix(path, ".go"):
			write = func(w io.Writer) error { return p.ExportGo(w, "fsm") }
		default:
			continue
		}
		w, closer, ok := openExport(path)
		if !ok {
			continue
		}
		_ = write(w)
		if closer != nil {
			closer.Close()
		}
	}
}

// openExport resolves an export path: "stdout." prefixed paths write to
// stdout, "+" prefixed paths append to the named file.
func openExport(path string) (io.Writer, io.Closer, bool) {
	if strings.HasPrefix(path, "stdout.") {
		return os.Stdout, nil, true
	}
	var (
		f   *os.File
		err error
	)
	if strings.HasPrefix(path, "+") {
		f, err = os.OpenFile(path[1:], os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	} else {
		f, err = os.Create(path)
	}
	if err != nil {
		return nil, nil, false
	}
	return f, f, true
}

// fsmName returns the name set with the n option, defaulting to "FSM".
func (p *Pattern) fsmName() string {
	if p.opt.n != "" {
		return p.opt.n
	}
	return "FSM"
}

// ExportDot writes a Graphviz DOT rendering of the compiled DFA. Nodes
// are labeled with their accept rule and lookahead markers; edges with
// their byte ranges, meta transitions dashed. Dead transitions are
// omitted.
func (p *Pattern) ExportDot(w io.Writer) error {
	states, err := Decode(p.opc)
	if err != nil {
		return err
	}
	name := p.fsmName()
	fmt.Fprintf(w, "digraph %s {\n\t\trankdir=LR;\n\t\tconcentrate=true;\n\t\tnode [fontname=\"ArialNarrow\"];\n\t\tedge [fontname=\"Courier\"];\n\n\t\tinit [root=true,peripheries=0,label=%q,fontname=\"Courier\"];\n\t\tinit -> N0;\n", name, p.opt.n)
	for i := range states {
		st := &states[i]
		switch {
		case st.PC == 0:
			fmt.Fprintf(w, "\n/*START*/\t")
		case st.Redo:
			fmt.Fprintf(w, "\n/*REDO*/\t")
		case st.Accept > 0:
			fmt.Fprintf(w, "\n/*ACCEPT %d*/\t", st.Accept)
		default:
			fmt.Fprintf(w, "\n/*STATE*/\t")
		}
		for _, id := range st.Heads {
			fmt.Fprintf(w, "\n/*HEAD %d*/\t", id)
		}
		for _, id := range st.Tails {
			fmt.Fprintf(w, "\n/*TAIL %d*/\t", id)
		}
		fmt.Fprintf(w, "N%d [label=\"", st.PC)
		if st.Accept > 0 && !st.Redo {
			fmt.Fprintf(w, "[%d]", st.Accept)
		}
		for _, id := range st.Tails {
			fmt.Fprintf(w, "%d>", id)
		}
		for _, id := range st.Heads {
			fmt.Fprintf(w, "<%d", id)
		}
		switch {
		case st.Redo:
			fmt.Fprintf(w, "\",style=dashed,peripheries=1];\n")
		case st.Accept > 0:
			fmt.Fprintf(w, "\",peripheries=2];\n")
		case len(st.Heads) > 0:
			fmt.Fprintf(w, "\",style=dashed,peripheries=2];\n")
		default:
			fmt.Fprintf(w, "\"];\n")
		}
		for _, e := range st.Edges {
			if e.Target == IMAX {
				continue
			}
			if isMeta(e.Lo) {
				fmt.Fprintf(w, "\t\tN%d -> N%d [label=\"%s\",style=\"dashed\"];\n", st.PC, e.Target, metaLabel[e.Lo-MetaMin])
				continue
			}
			label := dotCharLabel(e.Lo)
			if e.Lo != e.Hi {
				label += "-" + dotCharLabel(e.Hi)
			}
			fmt.Fprintf(w, "\t\tN%d -> N%d [label=\"%s\"];\n", st.PC, e.Target, label)
		}
		if st.Redo {
			fmt.Fprintf(w, "\t\tN%d -> R%d;\n\t\tR%d [peripheries=0,label=\"redo\"];\n", st.PC, st.PC, st.PC)
		}
	}
	fmt.Fprintf(w, "}\n")
	return nil
}

// dotCharLabel renders a byte for a DOT edge label.
func dotCharLabel(c Char) string {
	switch {
	case c >= '\a' && c <= '\r':
		return `\\` + string("abtnvfr"[c-'\a'])
	case c == '"':
		return `\"`
	case c == '\\':
		return `\\`
	case c > 0x20 && c < 0x7F:
		return string(rune(c))
	case c < 8:
		return fmt.Sprintf(`\\%d`, c)
	default:
		return fmt.Sprintf(`\\x%02x`, c)
	}
}

// ExportCode writes the opcode program as a C++ array declaration with a
// per-opcode disassembly comment, compatible with matcher runtimes that
// include the table directly.
func (p *Pattern) ExportCode(w io.Writer) error {
	if p.nop == 0 {
		return nil
	}
	name := p.fsmName()
	if _, err := fmt.Fprintf(w, "#ifndef PATTERN_CODE_DECL\n#define PATTERN_CODE_DECL const unsigned int\n#endif\n\nPATTERN_CODE_DECL pattern_code_%s[%d] =\n{\n", name, p.nop); err != nil {
		return err
	}
	for i, op := range p.opc {
		if _, err := fmt.Fprintf(w, "  0x%08X, // %d: %s\n", uint32(op), i, op.Disasm()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "};\n\n")
	return err
}

// ExportGo writes the opcode program as a generated Go source file in the
// given package, declaring the table as a [N]uint32 with the disassembly
// in the declaration's doc comment.
func (p *Pattern) ExportGo(w io.Writer, pkg string) error {
	if p.nop == 0 {
		return nil
	}
	name := p.fsmName()
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by pattern. DO NOT EDIT.")
	f.Comment(fmt.Sprintf("Code%s is the compiled DFA program for %q.", name, p.rex))
	f.Comment("Disassembly:")
	for i, op := range p.opc {
		f.Comment(fmt.Sprintf("\t%4d: %s", i, op.Disasm()))
	}
	f.Var().Id("Code" + name).Op("=").Index(jen.Lit(int(p.nop))).Uint32().ValuesFunc(func(g *jen.Group) {
		for _, op := range p.opc {
			g.Id(fmt.Sprintf("0x%08X", uint32(op)))
		}
	})
	return f.Render(w)
}
