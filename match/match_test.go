package match_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kip-lang/kip/clause"
	"github.com/kip-lang/kip/match"
)

func TestSpanConcatJoinsAdjacentSpans(t *testing.T) {
	a := match.Span{Start: 0, End: 3}
	b := match.Span{Start: 3, End: 7}
	require.Equal(t, match.Span{Start: 0, End: 7}, a.Concat(b))
}

func TestSpanConcatPanicsOnGap(t *testing.T) {
	a := match.Span{Start: 0, End: 3}
	b := match.Span{Start: 4, End: 7}
	require.Panics(t, func() { a.Concat(b) })
}

func TestMatchTextSlicesSource(t *testing.T) {
	m := match.Match{Clause: clause.Value("ell"), Span: match.Span{Start: 1, End: 4}}
	require.Equal(t, "ell", m.Text("hello"))
}

func TestMergePrefersFartherPosition(t *testing.T) {
	near := match.Failure{Position: 2}
	far := match.Failure{Position: 5}
	require.Equal(t, far, match.Merge(near, far))
	require.Equal(t, far, match.Merge(far, near))
}

func TestMergeCombinesAtSamePosition(t *testing.T) {
	a := match.Failure{Position: 3, Expected: []clause.Clause{clause.Value("a")}}
	b := match.Failure{Position: 3, Expected: []clause.Clause{clause.Value("b")}, Committed: true}
	merged := match.Merge(a, b)
	require.Equal(t, 3, merged.Position)
	require.True(t, merged.Committed)
	require.Len(t, merged.Expected, 2)
}
