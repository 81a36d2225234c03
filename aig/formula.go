package aig

import "github.com/dtzWill/vampire/kernel"

// A Sharer converts between formula trees and dag references.
type Sharer struct {
	d *Dag
}

// NewSharer builds a sharer over d.
func NewSharer(d *Dag) *Sharer { return &Sharer{d: d} }

// Dag returns the underlying dag.
func (s *Sharer) Dag() *Dag { return s.d }

// FormulaRef converts f into a dag reference.
func (s *Sharer) FormulaRef(f *kernel.Formula) Ref {
	switch f.Conn() {
	case kernel.TrueConn:
		return True
	case kernel.FalseConn:
		return False
	case kernel.LitConn:
		return s.d.Atom(f.Lit())
	case kernel.NotConn:
		return s.FormulaRef(f.Sub(0)).Neg()
	case kernel.AndConn:
		r := True
		for _, sub := range f.Subs() {
			r = s.d.Conj(r, s.FormulaRef(sub))
		}
		return r
	case kernel.OrConn:
		r := False
		for _, sub := range f.Subs() {
			r = s.d.Disj(r, s.FormulaRef(sub))
		}
		return r
	case kernel.ImpConn:
		return s.d.Disj(s.FormulaRef(f.Sub(0)).Neg(), s.FormulaRef(f.Sub(1)))
	case kernel.IffConn:
		a := s.FormulaRef(f.Sub(0))
		b := s.FormulaRef(f.Sub(1))
		return s.d.Conj(s.d.Disj(a.Neg(), b), s.d.Disj(a, b.Neg()))
	case kernel.XorConn:
		a := s.FormulaRef(f.Sub(0))
		b := s.FormulaRef(f.Sub(1))
		return s.d.Conj(s.d.Disj(a.Neg(), b), s.d.Disj(a, b.Neg())).Neg()
	case kernel.ForallConn:
		return s.d.Forall(f.QVars(), s.FormulaRef(f.Sub(0)))
	case kernel.ExistsConn:
		return s.d.Exists(f.QVars(), s.FormulaRef(f.Sub(0)))
	}
	panic("invalid connective")
}

// ClauseRef converts a clause into the disjunction of its literals,
// free variables implicitly universal.
func (s *Sharer) ClauseRef(c *kernel.Clause) Ref {
	r := False
	for _, l := range c.Lits() {
		r = s.d.Disj(r, s.d.Atom(l))
	}
	return r
}

// FormulaOf reconstructs a formula tree from a dag reference. The
// reconstruction expands sharing, so it may grow on heavily shared
// dags.
func (s *Sharer) FormulaOf(r Ref) *kernel.Formula {
	d := s.d
	n := d.node(r)
	if r.Polarity() {
		switch n.kind {
		case kindConst:
			return kernel.TrueFormula()
		case kindAtom:
			return kernel.Atom(n.atom)
		case kindConj:
			return kernel.And(s.conjuncts(r)...)
		case kindQuant:
			return kernel.Exists(n.qvars, s.FormulaOf(n.sub))
		}
	} else {
		switch n.kind {
		case kindConst:
			return kernel.FalseFormula()
		case kindAtom:
			return kernel.Atom(n.atom.Negation())
		case kindConj:
			return kernel.Or(s.disjuncts(r)...)
		case kindQuant:
			return kernel.Forall(n.qvars, s.FormulaOf(n.sub.Neg()))
		}
	}
	panic("invalid aig node")
}

// conjuncts flattens nested positive conjunctions.
func (s *Sharer) conjuncts(r Ref) []*kernel.Formula {
	n := s.d.node(r)
	var out []*kernel.Formula
	for _, c := range []Ref{n.l, n.r} {
		if c.Polarity() && s.d.IsConj(c) {
			out = append(out, s.conjuncts(c)...)
		} else {
			out = append(out, s.FormulaOf(c))
		}
	}
	return out
}

// disjuncts flattens a negated conjunction into its disjuncts.
func (s *Sharer) disjuncts(r Ref) []*kernel.Formula {
	n := s.d.node(r)
	var out []*kernel.Formula
	for _, c := range []Ref{n.l.Neg(), n.r.Neg()} {
		if !c.Polarity() && s.d.IsConj(c) {
			out = append(out, s.disjuncts(c.Neg())...)
		} else {
			out = append(out, s.FormulaOf(c))
		}
	}
	return out
}
