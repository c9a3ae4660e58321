package clause_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kip-lang/kip/clause"
)

func TestRenderRoundTripsSimpleForms(t *testing.T) {
	require.Equal(t, `"a"`, clause.Render(clause.Value("a")))
	require.Equal(t, ".", clause.Render(clause.Any(1)))
	require.Equal(t, "..", clause.Render(clause.Any(2)))
	require.Equal(t, "[a-z]", clause.Render(clause.Range("a", "z")))
	require.Equal(t, "num", clause.Render(clause.Reference("num")))
}

func TestRenderParenthesizesLowerPrecedenceChildren(t *testing.T) {
	choice := clause.Choice(clause.Value("a"), clause.Value("b"))
	seq := clause.Sequence(choice, clause.Value("c"))
	require.Equal(t, `("a" / "b") "c"`, clause.Render(seq))
}

func TestRenderCaptureAndTransform(t *testing.T) {
	c := clause.Capture(clause.Reference("num"), "n", false)
	require.Equal(t, "n=num", clause.Render(c))

	tr := clause.Transform(c, "n + 1")
	require.Equal(t, "n=num { n + 1 }", clause.Render(tr))
}
