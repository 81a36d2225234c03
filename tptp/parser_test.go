package tptp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleProblem(t *testing.T) {
	input := `
% two constants, one predicate
cnf(ax1, axiom, p(a)).
cnf(ax2, axiom, ~p(b)).
cnf(ax3, axiom, (p(X) | ~q(X, f(X)))).
`
	prob, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, prob.Clauses, 3)
	assert.Equal(t, []string{"ax1", "ax2", "ax3"}, prob.Names)

	// a, b, f registered as functions; p, q as predicates.
	assert.Equal(t, 3, prob.Sig.Funcs())
	assert.Equal(t, 3, prob.Sig.Preds()) // equality, p, q

	c3 := prob.Clauses[2]
	require.Equal(t, 2, c3.Len())
	assert.True(t, c3.Lit(0).Positive())
	assert.False(t, c3.Lit(1).Positive())
	assert.Equal(t, 1, c3.VarCnt()) // X is shared between the literals
}

func TestParseEquality(t *testing.T) {
	input := `
cnf(e1, axiom, a = b).
cnf(e2, axiom, X != f(X)).
cnf(e3, axiom, f(a) = X).
`
	prob, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, prob.Clauses, 3)

	e1 := prob.Clauses[0].Lit(0)
	assert.True(t, e1.IsEquality())
	assert.True(t, e1.Positive())

	e2 := prob.Clauses[1].Lit(0)
	assert.True(t, e2.IsEquality())
	assert.False(t, e2.Positive())
}

func TestParseEmptyClause(t *testing.T) {
	prob, err := Parse(strings.NewReader("cnf(goal, negated_conjecture, $false)."))
	require.NoError(t, err)
	require.Len(t, prob.Clauses, 1)
	assert.True(t, prob.Clauses[0].IsEmpty())
}

func TestParseVariablesScopedPerClause(t *testing.T) {
	input := `
cnf(c1, axiom, p(X)).
cnf(c2, axiom, q(X)).
`
	prob, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	// Each clause numbers its variables from zero.
	assert.Equal(t, 0, prob.Clauses[0].Lit(0).Arg(0).VarIdx())
	assert.Equal(t, 0, prob.Clauses[1].Lit(0).Arg(0).VarIdx())
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"fof(a, axiom, p).",
		"cnf(a, axiom, p(X)",
		"cnf(a, axiom, X).",
		"cnf(a axiom, p).",
	}
	for _, input := range cases {
		_, err := Parse(strings.NewReader(input))
		assert.Error(t, err, "input %q must fail", input)
	}
}
