package kernel

// A Substitution maps variable indices to terms.
type Substitution map[int]*Term

// Apply substitutes through t. Unbound variables stay in place.
func (s Substitution) Apply(t *Term) *Term {
	if t.IsVar() {
		if b, ok := s[t.VarIdx()]; ok {
			return b
		}
		return t
	}
	args := make([]*Term, len(t.args))
	for i, a := range t.args {
		args[i] = s.Apply(a)
	}
	return App(t.fn, args...)
}

// ApplyLiteral substitutes through l.
func (s Substitution) ApplyLiteral(l *Literal) *Literal {
	args := make([]*Term, len(l.args))
	for i, a := range l.args {
		args[i] = s.Apply(a)
	}
	return NewLiteral(l.pred, l.pos, args...)
}

// MatchTerm extends sub so that pattern under sub equals instance,
// binding only pattern variables. Returns false when no such extension
// exists; sub may then hold partial bindings.
func MatchTerm(pattern, instance *Term, sub Substitution) bool {
	if pattern.IsVar() {
		if b, ok := sub[pattern.VarIdx()]; ok {
			return b.Equal(instance)
		}
		sub[pattern.VarIdx()] = instance
		return true
	}
	if instance.IsVar() || pattern.fn != instance.fn {
		return false
	}
	for i, a := range pattern.args {
		if !MatchTerm(a, instance.args[i], sub) {
			return false
		}
	}
	return true
}

// MatchLiteral matches pattern against instance, predicate and polarity
// included. On success the returned substitution maps pattern variables
// to instance subterms.
func MatchLiteral(pattern, instance *Literal) (Substitution, bool) {
	if pattern.pred != instance.pred || pattern.pos != instance.pos {
		return nil, false
	}
	sub := Substitution{}
	for i, a := range pattern.args {
		if !MatchTerm(a, instance.args[i], sub) {
			return nil, false
		}
	}
	return sub, true
}

// RenameVars shifts every variable of l by offset.
func RenameVars(l *Literal, offset int) *Literal {
	sub := Substitution{}
	occ := map[int]struct{}{}
	l.CollectVars(occ)
	for v := range occ {
		sub[v] = Var(v + offset)
	}
	return sub.ApplyLiteral(l)
}

// Unifiable reports whether l1 and l2 have a common instance once their
// variables are renamed apart.
func Unifiable(l1, l2 *Literal) bool {
	if l1.pred != l2.pred || l1.pos != l2.pos {
		return false
	}
	occ := map[int]struct{}{}
	l1.CollectVars(occ)
	max := 0
	for v := range occ {
		if v+1 > max {
			max = v + 1
		}
	}
	l2 = RenameVars(l2, max)
	sub := Substitution{}
	for i, a := range l1.args {
		if !unify(a, l2.args[i], sub) {
			return false
		}
	}
	return true
}

func unify(t1, t2 *Term, sub Substitution) bool {
	t1 = deref(t1, sub)
	t2 = deref(t2, sub)
	if t1.IsVar() {
		if t2.IsVar() && t1.VarIdx() == t2.VarIdx() {
			return true
		}
		if occurs(t1.VarIdx(), t2, sub) {
			return false
		}
		sub[t1.VarIdx()] = t2
		return true
	}
	if t2.IsVar() {
		return unify(t2, t1, sub)
	}
	if t1.fn != t2.fn || len(t1.args) != len(t2.args) {
		return false
	}
	for i, a := range t1.args {
		if !unify(a, t2.args[i], sub) {
			return false
		}
	}
	return true
}

func deref(t *Term, sub Substitution) *Term {
	for t.IsVar() {
		b, ok := sub[t.VarIdx()]
		if !ok {
			return t
		}
		t = b
	}
	return t
}

func occurs(v int, t *Term, sub Substitution) bool {
	t = deref(t, sub)
	if t.IsVar() {
		return t.VarIdx() == v
	}
	for _, a := range t.args {
		if occurs(v, a, sub) {
			return true
		}
	}
	return false
}

// IsDefinitionHead is true for an unprotected atom whose arguments are
// pairwise distinct variables.
func IsDefinitionHead(l *Literal, sig *Signature) bool {
	if l.IsEquality() || sig.PredProtected(l.pred) {
		return false
	}
	seen := map[int]struct{}{}
	for _, a := range l.args {
		if !a.IsVar() {
			return false
		}
		if _, dup := seen[a.VarIdx()]; dup {
			return false
		}
		seen[a.VarIdx()] = struct{}{}
	}
	return true
}
