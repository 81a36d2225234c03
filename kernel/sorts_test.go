package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferSortsCollapsiblePredicateSort(t *testing.T) {
	sig := NewSignature()
	p := sig.AddPred("p", 1)
	q := sig.AddPred("q", 1)

	// p(X) | q(X): the sort of X is touched by no equality and no
	// function, so both argument positions collapse to bound 1.
	c := NewClause(NewLiteral(p, true, Var(0)), NewLiteral(q, true, Var(0)))
	ss := InferSorts([]*Clause{c}, sig)
	require.Len(t, ss.PredicateBounds[p], 1)
	assert.Equal(t, 1, ss.PredicateBounds[p][0])
	assert.Equal(t, 1, ss.PredicateBounds[q][0])
}

func TestInferSortsEqualityMakesUnbounded(t *testing.T) {
	sig := NewSignature()
	p := sig.AddPred("p", 1)

	// p(X) | X = Y: equality ranges over the sort of X.
	c := NewClause(NewLiteral(p, true, Var(0)), Eq(Var(0), Var(1)))
	ss := InferSorts([]*Clause{c}, sig)
	assert.Equal(t, Unbounded, ss.PredicateBounds[p][0])
}

func TestInferSortsFunctionResultUnbounded(t *testing.T) {
	sig := NewSignature()
	a := sig.AddFunc("a", 0)
	f := sig.AddFunc("f", 1)
	p := sig.AddPred("p", 1)

	// Flattened p(f(a)): p(X0) | ~(f(X1) = X0) | ~(a = X1).
	c := Flatten(NewClause(NewLiteral(p, true, App(f, Const(a)))))
	ss := InferSorts([]*Clause{c}, sig)
	assert.Equal(t, Unbounded, ss.FunctionBounds[f][0])
	assert.Equal(t, Unbounded, ss.FunctionBounds[a][0])
	// p's argument shares the sort of f's result.
	assert.Equal(t, Unbounded, ss.PredicateBounds[p][0])
}

func TestInferSortsBoundsAreAtLeastOne(t *testing.T) {
	sig := NewSignature()
	f := sig.AddFunc("f", 2)
	p := sig.AddPred("p", 3)

	ss := InferSorts(nil, sig)
	for _, b := range ss.FunctionBounds[f] {
		assert.GreaterOrEqual(t, b, 1)
	}
	for _, b := range ss.PredicateBounds[p] {
		assert.GreaterOrEqual(t, b, 1)
	}
}
