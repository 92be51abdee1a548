// Package pattern compiles regular expressions into compact byte-oriented
// DFA programs: flat arrays of fixed-width opcodes ready to be executed by
// a matcher runtime.
//
// The compiler follows the position-set construction of Aho, Sethi and
// Ullman (the followpos algorithm), extended with lazy quantifiers,
// anchors, trailing-context lookahead and bounded repetition unrolling.
// Top-level alternatives are separate rules with their own accept indexes,
// so one compiled pattern can drive a tokenizer:
//
//	p, err := pattern.Compile(`\d+|[A-Za-z_][A-Za-z0-9_]*`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	prog := p.Program() // rule 1 accepts numbers, rule 2 identifiers
//
// Compilation is a single-threaded batch pipeline; the returned program is
// immutable and safe to share across matcher threads. For a given source
// and options the emitted opcode stream is identical across runs.
package pattern

import "os"

// Pattern is a compiled regular expression: the opcode program, the
// per-rule accept table, and the source it was compiled from.
type Pattern struct {
	rex string
	opt opts

	end []Loc    // end offset of each top-level alternative
	acc []bool   // whether an accept state of rule i+1 is reachable
	opc []Opcode // the encoded program
	nop Index    // program length in opcodes
	vno int      // number of DFA states
	eno int      // number of DFA edges, counted per byte
}

// Compile compiles a regular expression with default options in strict
// mode: any syntax error aborts compilation and is returned.
//
// Example:
//
//	p, err := pattern.Compile(`a(b|c)*`)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(rex string) (*Pattern, error) {
	p := &Pattern{rex: rex, opt: defaultOpts()}
	p.opt.r = true
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

// CompileWithOptions compiles a regular expression controlled by an option
// string: for example "i" for case-insensitive matching, "l" to enable
// X/Y trailing context, "f=fsm.gv" to export a Graphviz dump. Unless "r"
// is given, recoverable errors do not abort compilation; CODE_OVERFLOW
// always does.
//
// Example:
//
//	p, err := pattern.CompileWithOptions(`foo/bar`, "lr")
func CompileWithOptions(rex, options string) (*Pattern, error) {
	p := &Pattern{rex: rex, opt: parseOptions(options)}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

// MustCompile is like Compile but panics on error. Use for patterns known
// to be valid at compile time.
func MustCompile(rex string) *Pattern {
	p, err := Compile(rex)
	if err != nil {
		panic("pattern: Compile(`" + rex + "`): " + err.Error())
	}
	return p
}

// compile runs the full pipeline: parse, subset-construct, assemble.
func (p *Pattern) compile() error {
	ctx := &parseCtx{
		follow: Follow{},
		mods:   modMap{},
		look:   lookMap{},
	}
	startpos, err := p.parse(ctx)
	if err != nil {
		return err
	}
	b := &builder{p: p, ctx: ctx}
	if err := b.build(startpos); err != nil {
		return err
	}
	return p.assemble(b)
}

// fail reports a compilation error. With the w option set a caret
// diagnostic is printed; the error aborts compilation only in strict mode
// or when it is a CODE_OVERFLOW, which is always fatal.
func (p *Pattern) fail(code ErrorCode, msg string, loc Loc) error {
	e := &Error{Code: code, Message: msg, Loc: loc, Pattern: p.rex}
	if p.opt.w {
		e.Display(os.Stderr)
	}
	if p.opt.r || code == CodeOverflow {
		return e
	}
	return nil
}

// String returns the regex source the pattern was compiled from.
func (p *Pattern) String() string {
	return p.rex
}

// Size returns the number of top-level alternatives (rules).
func (p *Pattern) Size() int {
	return len(p.end)
}

// Subpattern returns the source text of rule choice (1-based). Choice 0
// returns the entire pattern.
func (p *Pattern) Subpattern(choice int) string {
	if choice == 0 {
		return p.rex
	}
	if choice < 1 || choice > len(p.end) {
		return ""
	}
	loc := p.end[choice-1]
	prev := Loc(0)
	if choice >= 2 {
		prev = p.end[choice-2] + 1
	}
	return p.rex[prev:loc]
}

// Reachable reports whether an accept state of rule choice (1-based) is
// reachable in the compiled DFA. An unreachable rule is shadowed by
// earlier rules.
func (p *Pattern) Reachable(choice int) bool {
	return choice >= 1 && choice <= len(p.acc) && p.acc[choice-1]
}

// Program returns the encoded opcode program. The slice is shared and
// must not be modified.
func (p *Pattern) Program() []Opcode {
	return p.opc
}

// Length returns the number of opcodes in the program.
func (p *Pattern) Length() int {
	return int(p.nop)
}

// Nodes returns the number of DFA states.
func (p *Pattern) Nodes() int {
	return p.vno
}

// Edges returns the number of DFA transitions, counted per byte.
func (p *Pattern) Edges() int {
	return p.eno
}

// Name returns the FSM name set with the n option, or the empty string.
func (p *Pattern) Name() string {
	return p.opt.n
}
