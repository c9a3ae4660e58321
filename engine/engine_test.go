package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kip-lang/kip/clause"
	"github.com/kip-lang/kip/engine"
	"github.com/kip-lang/kip/grammar"
)

func mustGrammar(t *testing.T, entry string, rules ...clause.Clause) *grammar.Grammar {
	t.Helper()
	g, err := grammar.New(entry, rules...)
	require.NoError(t, err)
	return g
}

func TestParseLiteralAndSequence(t *testing.T) {
	g := mustGrammar(t, "top", clause.Rule("top", clause.Sequence(clause.Value("ab"), clause.Value("c"))))
	m, err := engine.Parse(context.Background(), g, "abc", 0)
	require.NoError(t, err)
	require.Equal(t, 0, m.Span.Start)
	require.Equal(t, 3, m.Span.End)
}

func TestParseFailsOnMismatch(t *testing.T) {
	g := mustGrammar(t, "top", clause.Rule("top", clause.Value("ab")))
	_, err := engine.Parse(context.Background(), g, "xy", 0)
	require.Error(t, err)
	var pe *engine.ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 0, pe.Failure.Position)
}

func TestParseFailsOnTrailingInput(t *testing.T) {
	g := mustGrammar(t, "top", clause.Rule("top", clause.Value("ab")))
	_, err := engine.Parse(context.Background(), g, "abc", 0)
	require.Error(t, err)
}

// digits <- [0-9]+
func TestParseGreedyRepeat(t *testing.T) {
	g := mustGrammar(t, "digits", clause.Rule("digits", clause.Repeat(clause.Range("0", "9"))))
	m, err := engine.Parse(context.Background(), g, "12345", 0)
	require.NoError(t, err)
	require.Equal(t, 5, m.Span.End)
	require.Len(t, m.Children, 5)
}

// top <- "a" / "ab"   -- ordered choice: first alternative wins even
// though the second would consume more input.
func TestOrderedChoiceDoesNotPreferLongerMatch(t *testing.T) {
	g := mustGrammar(t, "top", clause.Rule("top", clause.Choice(clause.Value("a"), clause.Value("ab"))))
	m, err := engine.Parse(context.Background(), g, "a", 0)
	require.NoError(t, err)
	require.Equal(t, 1, m.Span.End)
}

// top <- "(" ~ digit ")"   -- Entail commits: once "(" matched, a missing
// digit must not let a sibling Choice branch in the caller recover.
func TestEntailProducesCommittedFailure(t *testing.T) {
	inner := clause.Sequence(clause.Value("("), clause.Entail(clause.Sequence(clause.Range("0", "9"), clause.Value(")"))))
	g := mustGrammar(t, "top", clause.Rule("top", clause.Choice(inner, clause.Value("()"))))
	_, err := engine.Parse(context.Background(), g, "()", 0)
	require.Error(t, err)
	var pe *engine.ParseError
	require.ErrorAs(t, err, &pe)
	require.True(t, pe.Failure.Committed)
}

// as <- as "a" / "a"   -- left recursion via the grow-the-seed protocol.
func TestLeftRecursionGrowsTheSeed(t *testing.T) {
	body := clause.Choice(
		clause.Sequence(clause.Reference("as"), clause.Value("a")),
		clause.Value("a"),
	)
	g := mustGrammar(t, "as", clause.Rule("as", body))
	m, err := engine.Parse(context.Background(), g, "aaaa", 0)
	require.NoError(t, err)
	require.Equal(t, 4, m.Span.End)
}

func TestAndAndNotAreZeroWidth(t *testing.T) {
	g := mustGrammar(t, "top", clause.Rule("top", clause.Sequence(
		clause.And(clause.Value("a")),
		clause.Not(clause.Value("b")),
		clause.Value("a"),
	)))
	m, err := engine.Parse(context.Background(), g, "a", 0)
	require.NoError(t, err)
	require.Equal(t, 1, m.Span.End)
}

func TestMaxInputGuardRejectsOversizedInput(t *testing.T) {
	g := mustGrammar(t, "top", clause.Rule("top", clause.Repeat(clause.Any(1))))
	_, err := engine.Parse(context.Background(), g, "abcdef", 3)
	require.Error(t, err)
}
