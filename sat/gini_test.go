package sat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGiniSolveSat(t *testing.T) {
	s := New(EngineGini)
	s.EnsureVarCount(2)
	s.AddClauses([]Clause{clause(1, 2), clause(-1)}, false)
	require.Equal(t, Sat, s.Solve())
	assert.Equal(t, False, s.Assignment(FromDimacs(1).Var()))
	assert.Equal(t, True, s.Assignment(FromDimacs(2).Var()))
}

func TestGiniSolveUnsat(t *testing.T) {
	s := New(EngineGini)
	s.AddClauses([]Clause{clause(1), clause(-1)}, false)
	assert.Equal(t, Unsat, s.Solve())
}

func TestGiniAssumptionsRetract(t *testing.T) {
	s := New(EngineGini)
	s.AddClauses([]Clause{clause(1, 2)}, false)
	s.AddAssumption(FromDimacs(-1), false)
	s.AddAssumption(FromDimacs(-2), false)
	require.Equal(t, Unsat, s.Solve())
	s.RetractAllAssumptions()
	assert.Equal(t, Sat, s.Solve())
}
