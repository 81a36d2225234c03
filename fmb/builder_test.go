package fmb

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtzWill/vampire/kernel"
	"github.com/dtzWill/vampire/sat"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Engine = sat.EngineInternal
	opts.Mode = ModeSpider
	return opts
}

func TestTwoConstantsOnePredicate(t *testing.T) {
	// {p(a)}, {~p(b)}: satisfiable at size 2 with a = fmb1, b = fmb2,
	// p(fmb1), ~p(fmb2) forced by the symmetry ordering.
	sig := kernel.NewSignature()
	a := sig.AddFunc("a", 0)
	bc := sig.AddFunc("b", 0)
	p := sig.AddPred("p", 1)

	clauses := []*kernel.Clause{
		kernel.NewClause(kernel.NewLiteral(p, true, kernel.Const(a))),
		kernel.NewClause(kernel.NewLiteral(p, false, kernel.Const(bc))),
	}
	b := New(sig, clauses, testOptions())
	require.Equal(t, ResultSatisfiable, b.Run(context.Background()))
	assert.Equal(t, 2, b.ModelSize())

	model := b.Model()
	assert.Contains(t, model, "fof(constant_a,functors,a = fmb1).")
	assert.Contains(t, model, "fof(constant_b,functors,b = fmb2).")
	assert.Contains(t, model, "p(fmb1)")
	assert.Contains(t, model, "~p(fmb2)")
	assert.Contains(t, model, "fof(domain,interpretation_domain,")
	assert.Contains(t, model, "fmb1 != fmb2")
}

func TestEqualAndDistinctConstantsRefuted(t *testing.T) {
	// {a = b}, {a != b} has no model of any size.
	sig := kernel.NewSignature()
	a := sig.AddFunc("a", 0)
	bc := sig.AddFunc("b", 0)

	clauses := []*kernel.Clause{
		kernel.NewClause(kernel.Eq(kernel.Const(a), kernel.Const(bc))),
		kernel.NewClause(kernel.Neq(kernel.Const(a), kernel.Const(bc))),
	}
	b := New(sig, clauses, testOptions())
	assert.Equal(t, ResultRefutation, b.Run(context.Background()))
}

func TestTautologySatAtSizeOne(t *testing.T) {
	// {p(X) | ~p(X)} is trivially satisfiable with a single element.
	sig := kernel.NewSignature()
	p := sig.AddPred("p", 1)

	c := kernel.NewClause(
		kernel.NewLiteral(p, true, kernel.Var(0)),
		kernel.NewLiteral(p, false, kernel.Var(0)))
	b := New(sig, []*kernel.Clause{c}, testOptions())
	require.Equal(t, ResultSatisfiable, b.Run(context.Background()))
	assert.Equal(t, 1, b.ModelSize())
	// A one-element model prints no distinctness axiom.
	assert.NotContains(t, b.Model(), "distinct_domain")
}

func TestTwoVarEqualityBoundsModelSize(t *testing.T) {
	// {X = Y} collapses the domain: the bound drops to at most the
	// variable count and the one-element model satisfies it.
	sig := kernel.NewSignature()
	c := kernel.NewClause(kernel.Eq(kernel.Var(0), kernel.Var(1)))
	b := New(sig, []*kernel.Clause{c}, testOptions())
	require.Equal(t, ResultSatisfiable, b.Run(context.Background()))
	assert.Equal(t, 1, b.ModelSize())
	assert.LessOrEqual(t, b.MaxModelSize(), 2)
	assert.Greater(t, b.MaxModelSize(), 0)
}

func TestEmptyClauseRefutesImmediately(t *testing.T) {
	sig := kernel.NewSignature()
	b := New(sig, []*kernel.Clause{kernel.NewClause()}, testOptions())
	assert.Equal(t, ResultRefutation, b.Run(context.Background()))
}

func TestIncompleteProblemUnknown(t *testing.T) {
	sig := kernel.NewSignature()
	p := sig.AddPred("p", 1)
	c := kernel.NewClause(kernel.NewLiteral(p, true, kernel.Var(0)))

	opts := testOptions()
	opts.Complete = func(*kernel.Signature, []*kernel.Clause) bool { return false }
	b := New(sig, []*kernel.Clause{c}, opts)
	assert.Equal(t, ResultUnknown, b.Run(context.Background()))
}

func TestDeadlineReturnsTimeLimit(t *testing.T) {
	sig := kernel.NewSignature()
	p := sig.AddPred("p", 1)
	c := kernel.NewClause(kernel.NewLiteral(p, true, kernel.Var(0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := New(sig, []*kernel.Clause{c}, testOptions())
	assert.Equal(t, ResultTimeLimit, b.Run(ctx))
}

func TestFunctionTotalityAndFunctionality(t *testing.T) {
	// {f(X) != X} forces a model where f has no fixpoint; size 2 is the
	// smallest and f must be the total fixpoint-free swap there.
	sig := kernel.NewSignature()
	f := sig.AddFunc("f", 1)

	c := kernel.NewClause(kernel.Neq(kernel.App(f, kernel.Var(0)), kernel.Var(0)))
	b := New(sig, []*kernel.Clause{c}, testOptions())
	require.Equal(t, ResultSatisfiable, b.Run(context.Background()))
	require.Equal(t, 2, b.ModelSize())

	model := b.Model()
	assert.Contains(t, model, "f(fmb1) = fmb2")
	assert.Contains(t, model, "f(fmb2) = fmb1")
}

func TestOffsetOverflowGivesUnknown(t *testing.T) {
	// A 40-ary predicate cannot be numbered at size 2 inside 32 bits;
	// once size 1 is refuted the attempt is abandoned.
	sig := kernel.NewSignature()
	a := sig.AddFunc("a", 0)
	bc := sig.AddFunc("b", 0)
	wide := sig.AddPred("q", 40)

	wideArgs := make([]*kernel.Term, 40)
	for i := range wideArgs {
		wideArgs[i] = kernel.Var(0)
	}
	clauses := []*kernel.Clause{
		kernel.NewClause(kernel.Neq(kernel.Const(a), kernel.Const(bc))),
		kernel.NewClause(kernel.NewLiteral(wide, true, wideArgs...)),
	}
	b := New(sig, clauses, testOptions())
	assert.Equal(t, ResultUnknown, b.Run(context.Background()))
}

func TestGroundPropositionalClauses(t *testing.T) {
	// Nullary predicates stay ground after flattening and are passed
	// through directly.
	sig := kernel.NewSignature()
	p := sig.AddPred("p", 0)
	q := sig.AddPred("q", 0)

	clauses := []*kernel.Clause{
		kernel.NewClause(kernel.NewLiteral(p, true)),
		kernel.NewClause(kernel.NewLiteral(p, false), kernel.NewLiteral(q, true)),
	}
	b := New(sig, clauses, testOptions())
	require.Equal(t, ResultSatisfiable, b.Run(context.Background()))
	assert.Equal(t, 1, b.ModelSize())
	model := b.Model()
	assert.Contains(t, model, "fof(predicate_p,predicates,p).")
	assert.Contains(t, model, "fof(predicate_q,predicates,q).")
}

func TestDimacsEmission(t *testing.T) {
	sig := kernel.NewSignature()
	p := sig.AddPred("p", 0)
	clauses := []*kernel.Clause{kernel.NewClause(kernel.NewLiteral(p, true))}

	var sb strings.Builder
	opts := testOptions()
	opts.DimacsOut = &sb
	b := New(sig, clauses, opts)
	require.Equal(t, ResultSatisfiable, b.Run(context.Background()))
	assert.True(t, strings.HasPrefix(sb.String(), "p cnf "))
	assert.Contains(t, sb.String(), " 0\n")
}

func TestRunWithoutPreSolver(t *testing.T) {
	sig := kernel.NewSignature()
	a := sig.AddFunc("a", 0)
	bc := sig.AddFunc("b", 0)
	p := sig.AddPred("p", 1)

	clauses := []*kernel.Clause{
		kernel.NewClause(kernel.NewLiteral(p, true, kernel.Const(a))),
		kernel.NewClause(kernel.NewLiteral(p, false, kernel.Const(bc))),
	}
	opts := testOptions()
	opts.PreSolver = false
	b := New(sig, clauses, opts)
	require.Equal(t, ResultSatisfiable, b.Run(context.Background()))
	assert.Equal(t, 2, b.ModelSize())
}
