package clause_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kip-lang/kip/clause"
)

func TestNullable(t *testing.T) {
	nullable := map[string]bool{"maybeEmpty": true, "neverEmpty": false}

	require.True(t, clause.Nullable(clause.Empty(), nullable))
	require.False(t, clause.Nullable(clause.Value("x"), nullable))
	require.True(t, clause.Nullable(clause.Not(clause.Value("x")), nullable))
	require.True(t, clause.Nullable(clause.And(clause.Value("x")), nullable))
	require.True(t, clause.Nullable(clause.Reference("maybeEmpty"), nullable))
	require.False(t, clause.Nullable(clause.Reference("neverEmpty"), nullable))

	require.True(t, clause.Nullable(clause.Sequence(clause.Empty(), clause.Reference("maybeEmpty")), nullable))
	require.False(t, clause.Nullable(clause.Sequence(clause.Empty(), clause.Reference("neverEmpty")), nullable))

	require.True(t, clause.Nullable(clause.Choice(clause.Reference("neverEmpty"), clause.Empty()), nullable))
	require.False(t, clause.Nullable(clause.Choice(clause.Reference("neverEmpty"), clause.Value("x")), nullable))
}

func TestSeedsDetectsLeftRecursion(t *testing.T) {
	// as <- as "a" / "a"   -- classic left-recursive rule
	nullable := map[string]bool{"as": false}
	body := clause.Choice(
		clause.Sequence(clause.Reference("as"), clause.Value("a")),
		clause.Value("a"),
	)
	closure := map[string][]string{
		"as": clause.LeftmostRefs(body, nullable),
	}
	require.True(t, clause.Seeds("as", closure))
}

func TestSeedsFalseWithoutACycle(t *testing.T) {
	nullable := map[string]bool{"a": false, "b": false}
	closure := map[string][]string{
		"a": clause.LeftmostRefs(clause.Reference("b"), nullable),
		"b": clause.LeftmostRefs(clause.Value("x"), nullable),
	}
	require.False(t, clause.Seeds("a", closure))
}

func TestLeftmostRefsStopsAtNonNullablePrefix(t *testing.T) {
	nullable := map[string]bool{"a": false, "b": false}
	body := clause.Sequence(clause.Reference("a"), clause.Reference("b"))
	require.Equal(t, []string{"a"}, clause.LeftmostRefs(body, nullable))
}
