package sat

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// giniSolver adapts the gini CDCL engine to the Solver contract.
// Assumptions are kept locally and re-issued before every Solve, since
// gini consumes untested assumptions; retracting therefore never
// touches solver-internal state.
type giniSolver struct {
	g           *gini.Gini
	nbVars      int
	maxAdded    Var
	assumptions []Lit
	status      Status
	permUnsat   bool
}

func newGiniSolver() *giniSolver {
	return &giniSolver{g: gini.New()}
}

func toZ(l Lit) z.Lit {
	v := z.Var(l.Var() + 1)
	if l.Pos() {
		return v.Pos()
	}
	return v.Neg()
}

func (s *giniSolver) EnsureVarCount(n int) {
	if n > s.nbVars {
		s.nbVars = n
	}
}

func (s *giniSolver) AddClauses(clauses []Clause, onlyPropagate bool) {
	// gini exposes no propagate-only entry; onlyPropagate degrades to a
	// plain load and the status stays Unknown until the next Solve.
	_ = onlyPropagate
	for _, c := range clauses {
		if len(c) == 0 {
			s.permUnsat = true
		}
		for _, l := range c {
			if l.Var() > s.maxAdded {
				s.maxAdded = l.Var()
			}
			s.g.Add(toZ(l))
		}
		s.g.Add(0)
	}
	if s.permUnsat {
		s.status = Unsat
	} else {
		s.status = Unknown
	}
}

func (s *giniSolver) Solve() Status {
	if s.permUnsat {
		s.status = Unsat
		return Unsat
	}
	if len(s.assumptions) > 0 {
		ms := make([]z.Lit, len(s.assumptions))
		for i, a := range s.assumptions {
			ms[i] = toZ(a)
		}
		s.g.Assume(ms...)
	}
	switch s.g.Solve() {
	case 1:
		s.status = Sat
	case -1:
		s.status = Unsat
	default:
		s.status = Unknown
	}
	return s.status
}

func (s *giniSolver) Assignment(v Var) MaybeBool {
	if s.status != Sat {
		return DontCare
	}
	// gini sizes its value array by the largest variable it has seen.
	if v > s.maxAdded {
		return DontCare
	}
	if s.g.Value(toZ(MkLit(v, true))) {
		return True
	}
	return False
}

func (s *giniSolver) AddAssumption(l Lit, onlyPropagate bool) {
	_ = onlyPropagate
	for _, a := range s.assumptions {
		if a == l {
			return
		}
		if a == l.Not() {
			// Contradictory assumptions: the next Solve cannot succeed.
			s.status = Unsat
		}
	}
	s.assumptions = append(s.assumptions, l)
	if s.status == Sat {
		s.status = Unknown
	}
}

func (s *giniSolver) RetractAllAssumptions() {
	s.assumptions = s.assumptions[:0]
	if s.permUnsat {
		s.status = Unsat
	} else {
		s.status = Unknown
	}
}

func (s *giniSolver) HasAssumptions() bool { return len(s.assumptions) > 0 }

func (s *giniSolver) Status() Status { return s.status }
