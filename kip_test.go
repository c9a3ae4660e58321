package kip_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kip-lang/kip"
	"github.com/kip-lang/kip/action"
)

func TestCompileAndEvalArithmetic(t *testing.T) {
	g, err := kip.Compile("top <- a=[0-9] \"+\" b=[0-9] { atoi(a) + atoi(b) }\n")
	require.NoError(t, err)

	value, err := g.Eval(context.Background(), "3+4", action.NewExprHost())
	require.NoError(t, err)
	require.EqualValues(t, 7, value)
}

func TestCompileRejectsUnreadableSource(t *testing.T) {
	_, err := kip.Compile("not a grammar at all")
	require.Error(t, err)
}

func TestParseReturnsStructuralMatchWithoutHost(t *testing.T) {
	g, err := kip.Compile(`top <- "a" "b"` + "\n")
	require.NoError(t, err)

	m, err := g.Parse(context.Background(), "ab")
	require.NoError(t, err)
	require.Equal(t, 2, m.Span.End)
}
