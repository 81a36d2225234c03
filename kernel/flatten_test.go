package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenMakesArgumentsVariables(t *testing.T) {
	sig := NewSignature()
	a := sig.AddFunc("a", 0)
	f := sig.AddFunc("f", 1)
	p := sig.AddPred("p", 2)

	// p(f(a), X0)
	c := NewClause(NewLiteral(p, true, App(f, Const(a)), Var(0)))
	flat := Flatten(c)
	assert.True(t, IsFlat(flat), "flattened clause %v must be flat", flat)
	// One literal per extracted term is added.
	assert.Equal(t, 3, flat.Len())
}

func TestFlattenEqualityBothSidesLifted(t *testing.T) {
	sig := NewSignature()
	f := sig.AddFunc("f", 1)
	g := sig.AddFunc("g", 1)

	// f(X0) = g(X0)
	c := NewClause(Eq(App(f, Var(0)), App(g, Var(0))))
	flat := Flatten(c)
	assert.True(t, IsFlat(flat))
	require.Equal(t, 2, flat.Len())
	// First literal keeps the original polarity, the lifted one is a
	// disequality.
	assert.True(t, flat.Lit(0).Positive())
	assert.False(t, flat.Lit(1).Positive())
}

func TestFlattenOrientsEquality(t *testing.T) {
	sig := NewSignature()
	f := sig.AddFunc("f", 1)

	// X1 = f(X0) must come out as f(X0) = X1.
	c := NewClause(Eq(Var(1), App(f, Var(0))))
	flat := Flatten(c)
	require.Equal(t, 1, flat.Len())
	l := flat.Lit(0)
	assert.False(t, l.Arg(0).IsVar())
	assert.True(t, l.Arg(1).IsVar())
}

func TestFlattenIdempotent(t *testing.T) {
	sig := NewSignature()
	a := sig.AddFunc("a", 0)
	f := sig.AddFunc("f", 2)
	p := sig.AddPred("p", 1)
	q := sig.AddPred("q", 1)

	cases := []*Clause{
		NewClause(NewLiteral(p, true, App(f, Const(a), Var(0)))),
		NewClause(Eq(App(f, Var(0), Var(1)), Var(2)), NewLiteral(q, false, Var(0))),
		NewClause(Eq(Var(0), Var(1))),
		NewClause(),
	}
	for _, c := range cases {
		once := Normalize(Flatten(c))
		twice := Normalize(Flatten(once))
		assert.Equal(t, once.String(), twice.String())
	}
}

func TestFlattenEmptyClauseStaysEmpty(t *testing.T) {
	assert.True(t, Flatten(NewClause()).IsEmpty())
}

func TestFlattenSharedSubtermGetsOneVariable(t *testing.T) {
	sig := NewSignature()
	a := sig.AddFunc("a", 0)
	p := sig.AddPred("p", 2)

	// p(a, a): both occurrences of a share one extraction variable and
	// a single disequality.
	c := NewClause(NewLiteral(p, true, Const(a), Const(a)))
	flat := Flatten(c)
	require.Equal(t, 2, flat.Len())
	l := flat.Lit(0)
	assert.Equal(t, l.Arg(0).VarIdx(), l.Arg(1).VarIdx())
}

func TestNormalizeRenamesLeftToRight(t *testing.T) {
	p := 1
	c1 := NewClause(NewLiteral(p, true, Var(7), Var(3)), NewLiteral(p, false, Var(3)))
	c2 := NewClause(NewLiteral(p, true, Var(2), Var(9)), NewLiteral(p, false, Var(9)))
	n1 := Normalize(c1)
	n2 := Normalize(c2)
	assert.Equal(t, n1.String(), n2.String())
	assert.Equal(t, 2, n1.VarCnt())
	assert.Equal(t, 0, n1.Lit(0).Arg(0).VarIdx())
	assert.Equal(t, 1, n1.Lit(0).Arg(1).VarIdx())
}
