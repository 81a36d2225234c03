package sat

// varInfo is the pure-literal bookkeeping kept per variable.
type varInfo struct {
	// unseen is true until some clause touches the variable; while it
	// holds, pure and purePositive are not yet initialised.
	unseen       bool
	pure         bool
	purePositive bool
	// unit holds the unit clause fixing the variable, if any.
	unit Clause
	// watched holds clauses parked on this variable. Empty unless pure.
	watched         []Clause
	hasAssumption   bool
	assumedPolarity bool
}

// noForbiddenVar disables the forbidden-variable filter of
// tryWatchOrSubsume.
const noForbiddenVar = Var(-1)

// Transparent wraps an inner solver and keeps clauses containing a pure
// literal away from it: such clauses are watched on the pure variable
// and satisfied by assigning its polarity, without the inner solver
// ever seeing them. Units subsume watched clauses, and assumptions that
// contradict a pure polarity force the variable impure, re-queueing its
// watched clauses.
type Transparent struct {
	inner       Solver
	vars        []varInfo
	unprocessed []Clause
	toBeAdded   []Clause
	assumptions []Lit
}

// NewTransparent wraps inner. The wrapper owns all clause traffic;
// callers must not add clauses to inner directly.
func NewTransparent(inner Solver) *Transparent {
	return &Transparent{inner: inner}
}

func (t *Transparent) EnsureVarCount(n int) {
	t.inner.EnsureVarCount(n)
	for len(t.vars) < n {
		t.vars = append(t.vars, varInfo{unseen: true})
	}
}

func (t *Transparent) info(v Var) *varInfo {
	if int(v) >= len(t.vars) {
		t.EnsureVarCount(int(v) + 1)
	}
	return &t.vars[v]
}

func (t *Transparent) AddClauses(clauses []Clause, onlyPropagate bool) {
	if len(t.assumptions) > 0 {
		panic("clauses may not be added while assumptions are active")
	}
	t.unprocessed = append(t.unprocessed, clauses...)
	t.processUnprocessed()
	t.flushClausesToInner(onlyPropagate)
}

func (t *Transparent) flushClausesToInner(onlyPropagate bool) {
	t.inner.AddClauses(t.toBeAdded, onlyPropagate)
	t.toBeAdded = nil
}

func (t *Transparent) processUnprocessed() {
	for len(t.unprocessed) > 0 {
		cl := t.unprocessed[len(t.unprocessed)-1]
		t.unprocessed = t.unprocessed[:len(t.unprocessed)-1]

		if len(cl) == 1 {
			t.processUnit(cl)
			continue
		}
		if t.tryWatchOrSubsume(cl, noForbiddenVar) {
			continue
		}

		// The clause kills the purity of every literal it contains.
		// Try to sweep the watched clauses away from one of its pure
		// variables first; failing that, all of them become impure and
		// their watched clauses are re-queued.
		var toUnpure []Var
		fixed := false
		for _, lit := range cl {
			v := lit.Var()
			// A variable swept back to unseen keeps a stale pure flag
			// and an empty watch list; there is nothing to sweep there.
			if t.vars[v].unseen || !t.vars[v].pure {
				continue
			}
			if t.tryToSweepPure(v, false) {
				if !t.tryWatchOrSubsume(cl, noForbiddenVar) {
					panic("clause must be watchable after a successful sweep")
				}
				fixed = true
				break
			}
			toUnpure = append(toUnpure, v)
		}
		if fixed {
			continue
		}
		t.toBeAdded = append(t.toBeAdded, cl)
		for _, v := range toUnpure {
			t.makeVarNonPure(v)
		}
	}
}

func (t *Transparent) processUnit(cl Clause) {
	lit := cl[0]
	vi := t.info(lit.Var())

	if vi.unit != nil {
		if vi.unit[0].Pos() == lit.Pos() {
			// Subsumed by the known unit.
			return
		}
		// Contradicting units: fall through and forward for refutation.
	} else {
		vi.unit = cl
		if !vi.unseen && vi.pure {
			if vi.purePositive == lit.Pos() {
				// The unit subsumes every watched clause.
				vi.watched = nil
			} else if !t.tryToSweepPure(lit.Var(), false) {
				t.makeVarNonPure(lit.Var())
			}
		}
		if vi.unseen {
			vi.unseen = false
			vi.pure = true
			vi.purePositive = lit.Pos()
		}
	}

	t.toBeAdded = append(t.toBeAdded, cl)
}

func (t *Transparent) makeVarNonPure(v Var) {
	vi := &t.vars[v]
	if vi.unseen || !vi.pure {
		panic("makeVarNonPure on a non-pure variable")
	}
	// Move away as many watched clauses as possible; the rest are
	// re-queued.
	if t.tryToSweepPure(v, true) {
		panic("eager sweep may not fully succeed while making a variable impure")
	}
	t.unprocessed = append(t.unprocessed, vi.watched...)
	vi.watched = nil
	vi.pure = false
}

// tryToSweepPure re-homes the clauses watched on v onto other pure
// variables. With eager set it moves as many as it can; otherwise it
// gives up on the first clause that cannot move. When the watch list
// empties and no unit fixes v, the variable returns to unseen.
func (t *Transparent) tryToSweepPure(v Var, eager bool) bool {
	vi := &t.vars[v]
	if !vi.pure {
		panic("sweeping a non-pure variable")
	}
	if !eager && vi.unit != nil {
		return false
	}
	for i := 0; i < len(vi.watched); {
		cl := vi.watched[i]
		if t.tryWatchOrSubsume(cl, v) {
			vi.watched[i] = vi.watched[len(vi.watched)-1]
			vi.watched = vi.watched[:len(vi.watched)-1]
		} else if !eager {
			return false
		} else {
			i++
		}
	}
	if len(vi.watched) == 0 && vi.unit == nil {
		vi.unseen = true
		return true
	}
	return false
}

// tryWatchOrSubsume parks cl on some pure variable or detects that a
// known unit subsumes it. Clauses being swept away from forbidden must
// not be re-watched there.
func (t *Transparent) tryWatchOrSubsume(cl Clause, forbidden Var) bool {
	for _, lit := range cl {
		v := lit.Var()
		if v == forbidden {
			continue
		}
		vi := t.info(v)
		if vi.unit != nil {
			if lit.Pos() == vi.unit[0].Pos() {
				// Subsumed by the unit.
				return true
			}
			continue
		}
		if vi.hasAssumption && vi.assumedPolarity != lit.Pos() {
			continue
		}
		if vi.unseen {
			vi.unseen = false
			vi.pure = true
			vi.purePositive = lit.Pos()
		}
		if vi.pure && vi.purePositive == lit.Pos() {
			vi.watched = append(vi.watched, cl)
			return true
		}
	}
	return false
}

func (t *Transparent) Solve() Status { return t.inner.Solve() }

func (t *Transparent) Assignment(v Var) MaybeBool {
	vi := t.info(v)
	if vi.hasAssumption {
		if vi.assumedPolarity {
			return True
		}
		return False
	}
	if !vi.unseen && vi.pure {
		if vi.purePositive {
			return True
		}
		return False
	}
	return t.inner.Assignment(v)
}

func (t *Transparent) AddAssumption(lit Lit, onlyPropagate bool) {
	vi := t.info(lit.Var())

	if vi.hasAssumption {
		if vi.assumedPolarity == lit.Pos() {
			// Duplicate assumption.
			return
		}
		// Contradicting assumptions: drive the inner solver into an
		// unsatisfiable state.
		t.inner.AddAssumption(lit.Not(), true)
		t.inner.AddAssumption(lit, true)
		return
	}

	t.assumptions = append(t.assumptions, lit)
	vi.hasAssumption = true
	vi.assumedPolarity = lit.Pos()

	if t.inner.Status() == Unsat {
		return
	}
	if vi.unit != nil || vi.unseen || !vi.pure {
		t.inner.AddAssumption(lit, onlyPropagate)
		return
	}
	if vi.purePositive == lit.Pos() {
		// The pure polarity already satisfies the assumption.
		return
	}
	if t.tryToSweepPure(lit.Var(), false) {
		t.inner.AddAssumption(lit, onlyPropagate)
		return
	}

	// Assuming against the pure polarity: the variable is no longer
	// pure. Re-queue its clauses, flush and replay every assumption.
	t.makeVarNonPure(lit.Var())
	t.processUnprocessed()
	t.inner.RetractAllAssumptions()
	t.flushClausesToInner(true)
	for i, a := range t.assumptions {
		last := i == len(t.assumptions)-1
		t.inner.AddAssumption(a, onlyPropagate || !last)
	}
}

func (t *Transparent) RetractAllAssumptions() {
	t.inner.RetractAllAssumptions()
	for _, lit := range t.assumptions {
		vi := &t.vars[lit.Var()]
		if !vi.hasAssumption || vi.assumedPolarity != lit.Pos() {
			panic("assumption records out of sync")
		}
		vi.hasAssumption = false
	}
	t.assumptions = t.assumptions[:0]
}

func (t *Transparent) HasAssumptions() bool { return len(t.assumptions) > 0 }

func (t *Transparent) Status() Status { return t.inner.Status() }
