package action_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kip-lang/kip/action"
	"github.com/kip-lang/kip/clause"
	"github.com/kip-lang/kip/engine"
	"github.com/kip-lang/kip/grammar"
)

func parseAndEval(t *testing.T, g *grammar.Grammar, input string, host action.Host) any {
	t.Helper()
	m, err := engine.Parse(context.Background(), g, input, 0)
	require.NoError(t, err)
	value, err := action.Run(m, input, host)
	require.NoError(t, err)
	return value
}

// top <- digit=[0-9] { atoi(digit) }  -- a single-digit integer action.
func TestSingleDigitIntegerAction(t *testing.T) {
	body := clause.Transform(clause.Capture(clause.Range("0", "9"), "digit", false), "atoi(digit)")
	g, err := grammar.New("top", clause.Rule("top", body))
	require.NoError(t, err)

	value := parseAndEval(t, g, "7", action.NewExprHost())
	require.EqualValues(t, 7, value)
}

// sum <- a=digit "+" b=digit { a + b }
func TestArithmeticActionOverTwoCaptures(t *testing.T) {
	digit := clause.Transform(clause.Capture(clause.Range("0", "9"), "d", false), "atoi(d)")
	body := clause.Sequence(
		clause.Capture(digit, "a", false),
		clause.Value("+"),
		clause.Capture(digit, "b", false),
	)
	g, err := grammar.New("top", clause.Rule("top", clause.Transform(body, "a + b")))
	require.NoError(t, err)

	value := parseAndEval(t, g, "3+4", action.NewExprHost())
	require.EqualValues(t, 7, value)
}

// A precedence-climbing arithmetic grammar, encoding "*" binding tighter
// than "+" directly in the left-recursive shape of each rule:
//
//	digit  <- d=[0-9] { atoi(d) }
//	factor <- digit
//	term   <- a=term "*" b=factor { a * b } / factor
//	expr   <- a=expr "+" b=term { a + b } / term
//
// term nested inside expr's Sequence is exactly the shape review comment 1
// flagged: growing expr must keep re-evaluating a Sequence that itself
// contains a left-recursive Reference to a different rule, not just the
// same rule as the one being grown.
func precedenceGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	digit := clause.Transform(clause.Capture(clause.Range("0", "9"), "d", false), "atoi(d)")
	factor := clause.Reference("digit")
	term := clause.Choice(
		clause.Transform(
			clause.Sequence(
				clause.Capture(clause.Reference("term"), "a", false),
				clause.Value("*"),
				clause.Capture(clause.Reference("factor"), "b", false),
			),
			"a * b",
		),
		clause.Reference("factor"),
	)
	expr := clause.Choice(
		clause.Transform(
			clause.Sequence(
				clause.Capture(clause.Reference("expr"), "a", false),
				clause.Value("+"),
				clause.Capture(clause.Reference("term"), "b", false),
			),
			"a + b",
		),
		clause.Reference("term"),
	)
	g, err := grammar.New("expr",
		clause.Rule("digit", digit),
		clause.Rule("factor", factor),
		clause.Rule("term", term),
		clause.Rule("expr", expr),
	)
	require.NoError(t, err)
	return g
}

func TestPrecedenceClimbBindsMultiplicationTighterThanAddition(t *testing.T) {
	g := precedenceGrammar(t)
	value := parseAndEval(t, g, "1+2*3", action.NewExprHost())
	require.EqualValues(t, 7, value)
}

func TestNonVariadicCaptureArityError(t *testing.T) {
	// two Transforms directly under one non-variadic Capture: two results.
	inner := clause.Sequence(
		clause.Transform(clause.Value("a"), `"x"`),
		clause.Transform(clause.Value("b"), `"y"`),
	)
	body := clause.Capture(inner, "both", false)
	g, err := grammar.New("top", clause.Rule("top", body))
	require.NoError(t, err)

	m, err := engine.Parse(context.Background(), g, "ab", 0)
	require.NoError(t, err)
	_, err = action.Evaluate(m, "ab", action.NewExprHost())
	require.Error(t, err)
}

func TestVariadicCaptureContributesNoPositionalResult(t *testing.T) {
	digit := clause.Transform(clause.Range("0", "9"), "atoi(digit_text)")
	// Rebuild with an explicit capture so the Transform has a scope name.
	digit = clause.Transform(clause.Capture(clause.Range("0", "9"), "digit_text", false), "atoi(digit_text)")
	body := clause.Capture(clause.Repeat(digit), "digits", true)
	g, err := grammar.New("top", clause.Rule("top", body))
	require.NoError(t, err)

	m, err := engine.Parse(context.Background(), g, "123", 0)
	require.NoError(t, err)
	values, err := action.Evaluate(m, "123", action.NewExprHost())
	require.NoError(t, err)
	require.Nil(t, values) // Capture contributes no positional result upward
}

func TestNotDiscardsCapturesInsideIt(t *testing.T) {
	captured := clause.Capture(clause.Value("a"), "x", false)
	body := clause.Sequence(clause.Not(captured), clause.Any(1))
	g, err := grammar.New("top", clause.Rule("top", body))
	require.NoError(t, err)

	m, err := engine.Parse(context.Background(), g, "b", 0)
	require.NoError(t, err)
	require.Empty(t, m.Children[0].Children) // Not recorded no matched child
	require.Equal(t, "Not", m.Children[0].Clause.Kind.String())
}

// top <- &x=a "a" { x }  -- a capture made inside an And lookahead stays
// visible to the enclosing Transform, since And never consumes input.
func TestAndPreservesCapturesInsideIt(t *testing.T) {
	captured := clause.Capture(clause.Value("a"), "x", false)
	body := clause.Sequence(clause.And(captured), clause.Value("a"))
	g, err := grammar.New("top", clause.Rule("top", clause.Transform(body, "x")))
	require.NoError(t, err)

	value := parseAndEval(t, g, "a", action.NewExprHost())
	require.Equal(t, "a", value)
}

func TestExprHostBuiltinsConcatAndJoin(t *testing.T) {
	host := action.NewExprHost()
	v, err := host.Eval(`concat("a", "b")`, action.Scope{})
	require.NoError(t, err)
	require.Equal(t, "ab", v)

	v, err = host.Eval(`join(items, ",")`, action.Scope{"items": []any{"a", "b", "c"}})
	require.NoError(t, err)
	require.Equal(t, "a,b,c", v)
}

func TestExprHostRejectsUndefinedCapture(t *testing.T) {
	host := action.NewExprHost()
	_, err := host.Eval("missing", action.Scope{})
	require.Error(t, err)
}
