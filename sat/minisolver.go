package sat

import "github.com/bits-and-blooms/bitset"

// miniSolver is the built-in engine: unit propagation plus a
// chronological decide-and-backtrack search, recomputed from scratch at
// every Solve. It trades the machinery of an industrial CDCL solver for
// exactly what the transparent wrapper and the FMB loop need: fresh
// instances are cheap, clause addition can run propagation only, and
// retracting assumptions leaves no residue.
type miniSolver struct {
	nbVars      int
	clauses     []Clause
	occurring   *bitset.BitSet
	assumptions []Lit
	status      Status
	permUnsat   bool
	model       []MaybeBool
}

func newMiniSolver() *miniSolver {
	return &miniSolver{occurring: bitset.New(64)}
}

func (s *miniSolver) EnsureVarCount(n int) {
	if n > s.nbVars {
		s.nbVars = n
	}
}

func (s *miniSolver) AddClauses(clauses []Clause, onlyPropagate bool) {
	for _, c := range clauses {
		if len(c) == 0 {
			s.permUnsat = true
		}
		for _, l := range c {
			if int(l.Var()) >= s.nbVars {
				s.nbVars = int(l.Var()) + 1
			}
			s.occurring.Set(uint(l.Var()))
		}
		s.clauses = append(s.clauses, c)
	}
	s.status = Unknown
	if s.permUnsat {
		s.status = Unsat
		return
	}
	if onlyPropagate {
		if !s.rootPropagate() {
			s.status = Unsat
		}
	}
}

// rootPropagate runs unit propagation over assumptions and clauses on a
// throwaway assignment, reporting consistency.
func (s *miniSolver) rootPropagate() bool {
	assign := make([]int8, s.nbVars)
	for _, a := range s.assumptions {
		if !assignLit(assign, a) {
			return false
		}
	}
	return propagate(assign, s.clauses)
}

func (s *miniSolver) Solve() Status {
	if s.permUnsat {
		s.status = Unsat
		return Unsat
	}
	assign := make([]int8, s.nbVars)
	for _, a := range s.assumptions {
		if !assignLit(assign, a) {
			s.status = Unsat
			return Unsat
		}
	}
	if !propagate(assign, s.clauses) {
		s.status = Unsat
		return Unsat
	}

	type frame struct {
		saved []int8
		v     Var
		flip  bool
	}
	var stack []frame
	for {
		v, open := s.firstUnassigned(assign)
		if !open {
			s.model = make([]MaybeBool, s.nbVars)
			for i, a := range assign {
				switch a {
				case 1:
					s.model[i] = True
				case -1:
					s.model[i] = False
				default:
					s.model[i] = DontCare
				}
			}
			s.status = Sat
			return Sat
		}
		saved := make([]int8, len(assign))
		copy(saved, assign)
		stack = append(stack, frame{saved: saved, v: v})
		assign[v] = 1
		for !propagate(assign, s.clauses) {
			backtracked := false
			for len(stack) > 0 {
				f := &stack[len(stack)-1]
				if !f.flip {
					f.flip = true
					copy(assign, f.saved)
					assign[f.v] = -1
					backtracked = true
					break
				}
				stack = stack[:len(stack)-1]
			}
			if !backtracked {
				s.status = Unsat
				return Unsat
			}
		}
	}
}

func (s *miniSolver) firstUnassigned(assign []int8) (Var, bool) {
	for v, ok := s.occurring.NextSet(0); ok; v, ok = s.occurring.NextSet(v + 1) {
		if int(v) < len(assign) && assign[v] == 0 {
			return Var(v), true
		}
	}
	return 0, false
}

func (s *miniSolver) Assignment(v Var) MaybeBool {
	if s.status != Sat || int(v) >= len(s.model) {
		return DontCare
	}
	return s.model[v]
}

func (s *miniSolver) AddAssumption(l Lit, onlyPropagate bool) {
	for _, a := range s.assumptions {
		if a == l {
			return
		}
	}
	if int(l.Var()) >= s.nbVars {
		s.nbVars = int(l.Var()) + 1
	}
	s.assumptions = append(s.assumptions, l)
	s.status = Unknown
	if s.permUnsat {
		s.status = Unsat
		return
	}
	if onlyPropagate && !s.rootPropagate() {
		s.status = Unsat
	}
}

func (s *miniSolver) RetractAllAssumptions() {
	s.assumptions = s.assumptions[:0]
	if s.permUnsat {
		s.status = Unsat
	} else {
		s.status = Unknown
	}
}

func (s *miniSolver) HasAssumptions() bool { return len(s.assumptions) > 0 }

func (s *miniSolver) Status() Status { return s.status }

// assignLit forces l, reporting false on conflict with the current
// assignment.
func assignLit(assign []int8, l Lit) bool {
	want := int8(1)
	if !l.Pos() {
		want = -1
	}
	cur := assign[l.Var()]
	if cur == 0 {
		assign[l.Var()] = want
		return true
	}
	return cur == want
}

// litValue is 1, -1 or 0 for true, false or unassigned.
func litValue(assign []int8, l Lit) int8 {
	a := assign[l.Var()]
	if a == 0 {
		return 0
	}
	if (a == 1) == l.Pos() {
		return 1
	}
	return -1
}

// propagate runs unit propagation to fixpoint, reporting false on
// conflict.
func propagate(assign []int8, clauses []Clause) bool {
	for changed := true; changed; {
		changed = false
		for _, c := range clauses {
			sat := false
			unassigned := -1
			nbOpen := 0
			for i, l := range c {
				switch litValue(assign, l) {
				case 1:
					sat = true
				case 0:
					nbOpen++
					unassigned = i
				}
				if sat {
					break
				}
			}
			if sat {
				continue
			}
			if nbOpen == 0 {
				return false
			}
			if nbOpen == 1 {
				if !assignLit(assign, c[unassigned]) {
					return false
				}
				changed = true
			}
		}
	}
	return true
}
