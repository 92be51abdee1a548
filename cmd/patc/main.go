// Command patc compiles regular expressions into DFA opcode programs.
//
// Each REGEX argument becomes one rule of the compiled pattern, in the
// order given. The program disassembly is printed to stdout; export files
// requested with --export are written as a side effect of compilation.
//
//	patc --options il --export fsm.gv --export fsm.go 'foo/bar' '[a-z]+'
package main

import (
	goflag "flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coregx/pattern"
	"github.com/coregx/pattern/literal"
	"github.com/coregx/pattern/prefilter"
)

var (
	flagOptions  string
	flagName     string
	flagExports  []string
	flagStrict   bool
	flagLiterals bool
)

var rootCmd = &cobra.Command{
	Use:   "patc [flags] REGEX...",
	Short: "compile regular expressions into a DFA opcode program",
	Long: `patc compiles one or more regular expressions into a compact byte-oriented
DFA program and prints its disassembly. Every REGEX argument is one rule;
rule numbers follow the argument order.`,
	Args:         cobra.MinimumNArgs(1),
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	registerFlags(rootCmd.Flags())
}

// registerFlags binds patc's flags, plus glog's -v, -logtostderr and
// friends, onto the command's pflag set.
func registerFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagOptions, "options", "", "option string passed to the compiler (e.g. \"ilm\")")
	fs.StringVar(&flagName, "name", "", "name of the emitted FSM")
	fs.StringArrayVar(&flagExports, "export", nil, "export file path (.gv, .h, .cpp or .go); repeatable")
	fs.BoolVar(&flagStrict, "strict", true, "abort on the first recoverable error")
	fs.BoolVar(&flagLiterals, "literals", false, "print the extracted literal prefixes and prefilter stats")
	fs.AddGoFlagSet(goflag.CommandLine)
}

func run(cmd *cobra.Command, args []string) error {
	defer glog.Flush()
	rex := strings.Join(args, "|")
	opts := flagOptions
	if flagStrict && !strings.Contains(opts, "r") {
		opts += "r"
	}
	if flagName != "" {
		opts += ";n=" + flagName + ";"
	}
	for _, f := range flagExports {
		opts += ";f=" + f + ";"
	}
	glog.V(1).Infof("compiling %q with options %q", rex, opts)
	p, err := pattern.CompileWithOptions(rex, opts)
	if err != nil {
		return err
	}
	glog.V(1).Infof("compiled: %d rules, %d states, %d edges, %d opcodes",
		p.Size(), p.Nodes(), p.Edges(), p.Length())
	for i := 1; i <= p.Size(); i++ {
		reach := ""
		if !p.Reachable(i) {
			reach = " (shadowed)"
		}
		fmt.Printf("// rule %d: %s%s\n", i, p.Subpattern(i), reach)
	}
	for i, op := range p.Program() {
		fmt.Printf("%5d: 0x%08X  %s\n", i, uint32(op), op.Disasm())
	}
	if flagLiterals {
		printLiterals(p)
	}
	return nil
}

func printLiterals(p *pattern.Pattern) {
	seq := literal.Extract(p.Program(), literal.DefaultConfig())
	fmt.Printf("// literals: %d, exact=%v\n", seq.Len(), seq.Exact())
	for _, l := range seq.Literals() {
		fmt.Printf("//   %s\n", l)
	}
	pf, err := prefilter.FromSeq(seq)
	if err != nil {
		glog.V(1).Infof("no prefilter: %v", err)
		return
	}
	fmt.Printf("// prefilter: exact=%v complete=%v minlen=%d\n",
		pf.Exact(), pf.Complete(), pf.MinLen())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "patc:", err)
		os.Exit(1)
	}
}
