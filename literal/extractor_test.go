package literal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/pattern"
	"github.com/coregx/pattern/literal"
)

func compileT(t *testing.T, rex, options string) *pattern.Pattern {
	t.Helper()
	p, err := pattern.CompileWithOptions(rex, options+"r")
	require.NoError(t, err)
	return p
}

func literalStrings(seq *literal.Seq) map[string]bool {
	out := map[string]bool{}
	for _, l := range seq.Literals() {
		out[string(l.Bytes)] = l.Complete
	}
	return out
}

func TestExtractExactLiteral(t *testing.T) {
	p := compileT(t, "foo", "")
	seq := literal.Extract(p.Program(), literal.DefaultConfig())
	require.Equal(t, 1, seq.Len())
	assert.True(t, seq.Exact())
	lit := seq.Get(0)
	assert.Equal(t, "foo", string(lit.Bytes))
	assert.True(t, lit.Complete)
}

func TestExtractAlternation(t *testing.T) {
	p := compileT(t, "foo|bar", "")
	seq := literal.Extract(p.Program(), literal.DefaultConfig())
	assert.True(t, seq.Exact())
	lits := literalStrings(seq)
	assert.Equal(t, map[string]bool{"foo": true, "bar": true}, lits)
	assert.Equal(t, 3, seq.MinLen())
}

func TestExtractClassExpansion(t *testing.T) {
	p := compileT(t, "[ab]c", "")
	seq := literal.Extract(p.Program(), literal.DefaultConfig())
	assert.True(t, seq.Exact())
	lits := literalStrings(seq)
	assert.Equal(t, map[string]bool{"ac": true, "bc": true}, lits)
}

func TestExtractRepetitionIsInexact(t *testing.T) {
	p := compileT(t, "fo+", "")
	seq := literal.Extract(p.Program(), literal.DefaultConfig())
	assert.False(t, seq.Exact())
	lits := literalStrings(seq)
	complete, ok := lits["fo"]
	require.True(t, ok, "shortest match must be collected: %v", lits)
	assert.True(t, complete)
}

func TestExtractLeadingLoopIsInexact(t *testing.T) {
	p := compileT(t, "a*b", "")
	seq := literal.Extract(p.Program(), literal.DefaultConfig())
	assert.False(t, seq.Exact())
	lits := literalStrings(seq)
	assert.Contains(t, lits, "b")
	assert.True(t, lits["b"])
}

func TestExtractAnchoredIsInexact(t *testing.T) {
	p := compileT(t, "^foo", "")
	seq := literal.Extract(p.Program(), literal.DefaultConfig())
	assert.False(t, seq.Exact())
}

func TestExtractCapsLiterals(t *testing.T) {
	p := compileT(t, "[0-9][0-9]", "")
	seq := literal.Extract(p.Program(), literal.ExtractorConfig{
		MaxLiterals:   10,
		MaxLiteralLen: 8,
	})
	assert.False(t, seq.Exact())
	assert.LessOrEqual(t, seq.Len(), 10)
}

func TestSeqOps(t *testing.T) {
	seq := literal.NewSeq()
	assert.True(t, seq.IsEmpty())
	assert.Equal(t, 0, seq.MinLen())
	seq.Add([]byte("abc"), false)
	seq.Add([]byte("abd"), true)
	seq.Add([]byte("abc"), true)
	seq.Dedup()
	assert.Equal(t, 2, seq.Len())
	lits := literalStrings(seq)
	assert.True(t, lits["abc"], "complete wins over prefix duplicate")
	assert.Equal(t, []byte("ab"), seq.LongestCommonPrefix())
}
