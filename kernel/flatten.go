package kernel

// Flatten rewrites c into an equivalent clause in which every argument
// position of every non-equality literal is a variable and every
// equality literal has the shape t = x with t a variable-argumented
// term, or x = y. Nested terms are pulled out through fresh variables,
// adding a disequality for each extraction. Flattening a flat clause
// returns an equal clause.
func Flatten(c *Clause) *Clause {
	f := &flattener{
		nextVar: c.VarCnt(),
		memo:    map[string]int{},
	}
	pending := make([]*Literal, len(c.lits))
	copy(pending, c.lits)
	var out []*Literal
	for len(pending) > 0 {
		lit := pending[0]
		pending = pending[1:]
		var extra []*Literal
		lit, extra = f.flattenLiteral(lit)
		out = append(out, lit)
		pending = append(pending, extra...)
	}
	return NewClause(out...)
}

type flattener struct {
	nextVar int
	memo    map[string]int
}

// varFor returns the variable standing for t, minting one per distinct
// extracted term so that re-flattening is stable. fresh is true the
// first time t is seen; only that occurrence emits the disequality.
func (f *flattener) varFor(t *Term) (v int, fresh bool) {
	key := t.Key()
	if v, ok := f.memo[key]; ok {
		return v, false
	}
	v = f.nextVar
	f.nextVar++
	f.memo[key] = v
	return v, true
}

// flattenArgs replaces every non-variable argument by a variable,
// emitting the defining disequality for each replacement.
func (f *flattener) flattenArgs(args []*Term) ([]*Term, []*Literal) {
	var extra []*Literal
	flat := make([]*Term, len(args))
	changed := false
	for i, a := range args {
		if a.IsVar() {
			flat[i] = a
			continue
		}
		v, fresh := f.varFor(a)
		flat[i] = Var(v)
		if fresh {
			extra = append(extra, Neq(a, Var(v)))
		}
		changed = true
	}
	if !changed {
		return args, nil
	}
	return flat, extra
}

func (f *flattener) flattenLiteral(lit *Literal) (*Literal, []*Literal) {
	if !lit.IsEquality() {
		flat, extra := f.flattenArgs(lit.Args())
		if extra == nil {
			return lit, nil
		}
		return NewLiteral(lit.Pred(), lit.Positive(), flat...), extra
	}

	a0, a1 := lit.Arg(0), lit.Arg(1)
	if a0.IsVar() && a1.IsVar() {
		return lit, nil
	}
	// Orient with the functional side on the left.
	if a0.IsVar() {
		a0, a1 = a1, a0
	}
	var extra []*Literal
	if !a1.IsVar() {
		// t1 = t2 becomes t1 = x with t2 lifted out.
		v, fresh := f.varFor(a1)
		if fresh {
			extra = append(extra, Neq(a1, Var(v)))
		}
		a1 = Var(v)
	}
	flat, more := f.flattenArgs(a0.Args())
	extra = append(extra, more...)
	if len(extra) == 0 && a0 == lit.Arg(0) && a1 == lit.Arg(1) {
		return lit, nil
	}
	return NewLiteral(EqPred, lit.Positive(), App(a0.Fn(), flat...), a1), extra
}

// Normalize renames the variables of c so that they are numbered from
// zero in left-to-right order of first occurrence. Two clauses that
// differ only in variable names normalise to equal clauses.
func Normalize(c *Clause) *Clause {
	r := renaming{m: map[int]int{}}
	lits := make([]*Literal, len(c.lits))
	for i, l := range c.lits {
		args := make([]*Term, len(l.args))
		for j, a := range l.args {
			args[j] = r.apply(a)
		}
		lits[i] = NewLiteral(l.pred, l.pos, args...)
	}
	return NewClause(lits...)
}

type renaming struct {
	m map[int]int
}

func (r *renaming) apply(t *Term) *Term {
	if t.IsVar() {
		v, ok := r.m[t.VarIdx()]
		if !ok {
			v = len(r.m)
			r.m[t.VarIdx()] = v
		}
		return Var(v)
	}
	args := make([]*Term, len(t.args))
	for i, a := range t.args {
		args[i] = r.apply(a)
	}
	return App(t.fn, args...)
}

// IsFlat reports whether c already satisfies the flat-clause invariant.
func IsFlat(c *Clause) bool {
	for _, l := range c.lits {
		if !l.IsEquality() {
			for _, a := range l.args {
				if !a.IsVar() {
					return false
				}
			}
			continue
		}
		if l.IsTwoVarEquality() {
			continue
		}
		if l.Arg(0).IsVar() || !l.Arg(1).IsVar() {
			return false
		}
		for _, a := range l.Arg(0).Args() {
			if !a.IsVar() {
				return false
			}
		}
	}
	return true
}
