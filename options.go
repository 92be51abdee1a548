package pattern

import "strings"

// opts holds the compilation options parsed from an option string (see
// parseOptions for the accepted syntax).
type opts struct {
	b bool // disable escapes inside character lists
	i bool // case-insensitive matching
	l bool // enable X/Y trailing-context lookahead
	m bool // multiline: ^ and $ match begin/end of line
	q bool // "..." quotes literal content
	r bool // raise errors instead of continuing
	s bool // . matches newline
	w bool // display warnings
	x bool // free-spacing mode with # comments

	e byte // escape character, 0 when disabled

	n string   // name of the emitted FSM
	f []string // export file paths
}

// defaultOpts returns the option defaults: backslash escapes, everything
// else off.
func defaultOpts() opts {
	return opts{e: '\\'}
}

// parseOptions scans an option string. Tokens are single letters from
// "b e i l m q r s w x"; "e=C" sets the escape character ("e=;" disables
// escapes); "f=path1,path2" and "n=NAME" collect export targets and the FSM
// name (a token without a dot names the FSM, one with a dot is a file path).
// Unknown letters and malformed tokens are ignored.
func parseOptions(s string) opts {
	o := defaultOpts()
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'b':
			o.b = true
		case 'i':
			o.i = true
		case 'l':
			o.l = true
		case 'm':
			o.m = true
		case 'q':
			o.q = true
		case 'r':
			o.r = true
		case 's':
			o.s = true
		case 'w':
			o.w = true
		case 'x':
			o.x = true
		case 'e':
			if i+1 < len(s) && s[i+1] == '=' {
				i++
			}
			i++
			if i < len(s) && s[i] != ';' {
				o.e = s[i]
			} else {
				o.e = 0
			}
		case 'f', 'n':
			if i+1 < len(s) && s[i+1] == '=' {
				i++
			}
			start := i + 1
			t := start
			for {
				if t >= len(s) || s[t] == ',' || s[t] == ';' || isOptSpace(s[t]) {
					if t > start {
						name := s[start:t]
						if strings.Contains(name, ".") {
							o.f = append(o.f, name)
						} else {
							o.n = name
						}
					}
					if t >= len(s) || s[t] == ';' {
						break
					}
					start = t + 1
				}
				t++
			}
			i = t
		}
	}
	return o
}

func isOptSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}
