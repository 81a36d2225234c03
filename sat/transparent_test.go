package sat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSolver wraps an inner solver and records the clause and
// assumption traffic that actually reaches it.
type recordingSolver struct {
	Solver
	clauses     []Clause
	assumptions []Lit
}

func newRecording() *recordingSolver {
	return &recordingSolver{Solver: newMiniSolver()}
}

func (r *recordingSolver) AddClauses(clauses []Clause, onlyPropagate bool) {
	r.clauses = append(r.clauses, clauses...)
	r.Solver.AddClauses(clauses, onlyPropagate)
}

func (r *recordingSolver) AddAssumption(l Lit, onlyPropagate bool) {
	r.assumptions = append(r.assumptions, l)
	r.Solver.AddAssumption(l, onlyPropagate)
}

func TestTransparentWatchesPureClauses(t *testing.T) {
	inner := newRecording()
	s := NewTransparent(inner)
	s.EnsureVarCount(3)

	// Both clauses contain a pure literal, so the inner solver sees
	// nothing.
	s.AddClauses([]Clause{clause(1, 2)}, false)
	s.AddClauses([]Clause{clause(1, -3)}, false)
	assert.Empty(t, inner.clauses)

	// The pure polarity decides the assignment.
	assert.Equal(t, True, s.Assignment(FromDimacs(1).Var()))
}

func TestTransparentUnitHandling(t *testing.T) {
	inner := newRecording()
	s := NewTransparent(inner)
	s.EnsureVarCount(2)

	s.AddClauses([]Clause{clause(1)}, false)
	require.Len(t, inner.clauses, 1)
	// A duplicate unit is subsumed.
	s.AddClauses([]Clause{clause(1)}, false)
	assert.Len(t, inner.clauses, 1)
	// A clause subsumed by the unit is dropped entirely.
	s.AddClauses([]Clause{clause(1, 2)}, false)
	assert.Len(t, inner.clauses, 1)
	// A contradicting unit is forwarded for refutation.
	s.AddClauses([]Clause{clause(-1)}, false)
	assert.Len(t, inner.clauses, 2)
	assert.Equal(t, Unsat, s.Solve())
}

func TestTransparentImpurityForwardsAll(t *testing.T) {
	// The clause set {A}, {~A, B}, {~B}: the first unit fixes A, the
	// second clause is watched on pure B, the third forces B impure,
	// re-queues the watched clause and the inner solver refutes.
	inner := newRecording()
	s := NewTransparent(inner)
	s.EnsureVarCount(2)

	s.AddClauses([]Clause{clause(1)}, false)
	s.AddClauses([]Clause{clause(-1, 2)}, false)
	require.Len(t, inner.clauses, 1, "clause watched on pure B must be withheld")
	s.AddClauses([]Clause{clause(-2)}, false)
	assert.Len(t, inner.clauses, 3)
	assert.Equal(t, Unsat, s.Solve())
}

func TestTransparentAssumptionIdempotent(t *testing.T) {
	inner := newRecording()
	s := NewTransparent(inner)
	s.EnsureVarCount(2)
	s.AddClauses([]Clause{clause(1, 2)}, false)

	s.AddAssumption(FromDimacs(-1), false)
	n := len(inner.assumptions)
	s.AddAssumption(FromDimacs(-1), false)
	assert.Equal(t, n, len(inner.assumptions), "duplicate assumption must be dropped")
	assert.True(t, s.HasAssumptions())
}

func TestTransparentAssumptionMatchingPureIsNoop(t *testing.T) {
	inner := newRecording()
	s := NewTransparent(inner)
	s.EnsureVarCount(2)
	s.AddClauses([]Clause{clause(1, 2)}, false)

	// 1 is pure positive; assuming it costs nothing.
	s.AddAssumption(FromDimacs(1), false)
	assert.Empty(t, inner.assumptions)
	assert.Equal(t, True, s.Assignment(FromDimacs(1).Var()))
}

func TestTransparentSweepBackToUnseen(t *testing.T) {
	inner := newRecording()
	s := NewTransparent(inner)
	s.EnsureVarCount(2)

	// {A, B} is watched on A. Assuming ~A sweeps the clause onto B and
	// sends A back to unseen, so no clause reaches the inner solver; only
	// the assumption is forwarded.
	s.AddClauses([]Clause{clause(1, 2)}, false)
	s.AddAssumption(FromDimacs(-1), false)
	assert.Empty(t, inner.clauses)
	assert.Equal(t, False, s.Assignment(FromDimacs(1).Var()))
	assert.Equal(t, True, s.Assignment(FromDimacs(2).Var()))

	// Assuming ~B as well leaves nowhere to sweep: the clause is
	// flushed, assumptions are replayed, and the state is unsat.
	s.AddAssumption(FromDimacs(-2), false)
	assert.Len(t, inner.clauses, 1)
	assert.Equal(t, Unsat, s.Solve())

	// Retracting restores satisfiability of the permanent clauses.
	s.RetractAllAssumptions()
	assert.False(t, s.HasAssumptions())
	assert.Equal(t, Sat, s.Solve())
}

func TestTransparentContradictoryAssumptionsUnsat(t *testing.T) {
	inner := newRecording()
	s := NewTransparent(inner)
	s.EnsureVarCount(1)

	s.AddAssumption(FromDimacs(1), false)
	s.AddAssumption(FromDimacs(-1), false)
	assert.Equal(t, Unsat, s.Status())
}

func TestTransparentSoundness(t *testing.T) {
	// The transparent wrapper and a bare solver must agree on
	// satisfiability for clause sets without pure-literal shortcuts.
	sets := [][]Clause{
		{clause(1, 2), clause(-1, 2), clause(1, -2), clause(-1, -2)},
		{clause(1, 2), clause(-1, 2), clause(-2, 3), clause(-3)},
		{clause(1), clause(-1, 2), clause(-2)},
	}
	for _, set := range sets {
		bare := newMiniSolver()
		bare.AddClauses(set, false)
		wrapped := NewTransparent(newMiniSolver())
		for _, c := range set {
			wrapped.AddClauses([]Clause{c}, false)
		}
		assert.Equal(t, bare.Solve(), wrapped.Solve())
	}
}
