package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kip-lang/kip/clause"
	"github.com/kip-lang/kip/grammar"
)

func TestNewRejectsUnresolvedReference(t *testing.T) {
	_, err := grammar.New("top", clause.Rule("top", clause.Reference("missing")))
	require.Error(t, err)
}

func TestNewRejectsDuplicateRuleName(t *testing.T) {
	_, err := grammar.New("top",
		clause.Rule("top", clause.Value("a")),
		clause.Rule("top", clause.Value("b")),
	)
	require.Error(t, err)
}

func TestNewRejectsMissingEntry(t *testing.T) {
	_, err := grammar.New("top", clause.Rule("other", clause.Value("a")))
	require.Error(t, err)
}

func TestNewRejectsNonRuleClause(t *testing.T) {
	_, err := grammar.New("top", clause.Value("a"))
	require.Error(t, err)
}

func TestNullableComputesFixedPoint(t *testing.T) {
	// top <- maybe "x"
	// maybe <- "y" / ""
	g, err := grammar.New("top",
		clause.Rule("top", clause.Sequence(clause.Reference("maybe"), clause.Value("x"))),
		clause.Rule("maybe", clause.Choice(clause.Value("y"), clause.Empty())),
	)
	require.NoError(t, err)
	require.True(t, g.Nullable("maybe"))
	require.False(t, g.Nullable("top"))
}

func TestLeftRecursiveDetectsCycle(t *testing.T) {
	// as <- as "a" / "a"
	g, err := grammar.New("as",
		clause.Rule("as", clause.Choice(
			clause.Sequence(clause.Reference("as"), clause.Value("a")),
			clause.Value("a"),
		)),
	)
	require.NoError(t, err)
	require.True(t, g.LeftRecursive("as"))
}

func TestEqualToComparesStructureNotIdentity(t *testing.T) {
	build := func() *grammar.Grammar {
		g, err := grammar.New("top", clause.Rule("top", clause.Value("x")))
		require.NoError(t, err)
		return g
	}
	a, b := build(), build()
	require.True(t, a.EqualTo(b))

	c, err := grammar.New("top", clause.Rule("top", clause.Value("y")))
	require.NoError(t, err)
	require.False(t, a.EqualTo(c))
}

func TestResolveAndArena(t *testing.T) {
	g, err := grammar.New("top", clause.Rule("top", clause.Sequence(clause.Value("a"), clause.Value("b"))))
	require.NoError(t, err)

	body, err := g.Resolve("top")
	require.NoError(t, err)
	require.True(t, clause.Equal(clause.Sequence(clause.Value("a"), clause.Value("b")), body))

	_, err = g.Resolve("nope")
	require.Error(t, err)

	idx, ok := g.Arena().IndexOf(body)
	require.True(t, ok)
	require.True(t, clause.Equal(body, g.Arena().Get(idx)))
}
