package aig

import (
	"sort"

	"github.com/dtzWill/vampire/kernel"
)

// An EquivInfo is one predicate definition usable for inlining: an
// unquantified atom lhs, an arbitrary rhs and the unit it came from.
// ActiveRhs is the compressed rhs dag with the lhs polarity folded in.
type EquivInfo struct {
	Lhs       *kernel.Literal
	PosLhs    *kernel.Literal
	Rhs       *kernel.Formula
	Unit      *kernel.FormulaUnit
	ActiveRhs Ref
}

// litIsLess orders literals for lhs selection: protected symbols lose,
// then larger predicate numbers lose, ties break on the canonical key.
func litIsLess(l1, l2 *kernel.Literal, sig *kernel.Signature) bool {
	p1 := sig.PredProtected(l1.Pred())
	p2 := sig.PredProtected(l2.Pred())
	if p1 != p2 {
		return p1
	}
	if l1.Pred() != l2.Pred() {
		return l1.Pred() > l2.Pred()
	}
	return l1.Key() < l2.Key()
}

// tryGetEquiv attempts to read fu as an equivalence with an atom on the
// lhs. A bare atom defines the atom as true. When both sides of an
// equivalence could become lhs, the definition head wins, then the
// smaller predicate.
func tryGetEquiv(fu *kernel.FormulaUnit, sig *kernel.Signature) *EquivInfo {
	f := fu.Form
	var qvars []int
	if f.Conn() == kernel.ForallConn {
		qvars = f.QVars()
		f = f.Sub(0)
	}

	if f.Conn() == kernel.LitConn {
		lhs := f.Lit()
		if lhs.IsEquality() || sig.PredProtected(lhs.Pred()) {
			return nil
		}
		return newEquivInfo(lhs, kernel.TrueFormula(), fu)
	}
	if f.Conn() != kernel.IffConn {
		return nil
	}
	c1, c2 := f.Sub(0), f.Sub(1)
	if c1.Conn() != kernel.LitConn {
		c1, c2 = c2, c1
	} else if c2.Conn() == kernel.LitConn {
		l1, l2 := c1.Lit(), c2.Lit()
		l1DH := kernel.IsDefinitionHead(l1, sig)
		l2DH := kernel.IsDefinitionHead(l2, sig)
		switch {
		case l1DH == l2DH:
			if l1.Pred() == l2.Pred() {
				if l1.Equal(l2) || l1.Equal(l2.Negation()) {
					return nil
				}
			}
			if litIsLess(l1, l2, sig) {
				c1, c2 = c2, c1
			}
		case l2DH:
			c1, c2 = c2, c1
		}
	}

	if c1.Conn() != kernel.LitConn {
		return nil
	}
	lhs := c1.Lit()
	if lhs.IsEquality() || sig.PredProtected(lhs.Pred()) {
		return nil
	}

	// The quantified variables must be exactly the lhs variables.
	occ := map[int]struct{}{}
	lhs.CollectVars(occ)
	lhsVars := make([]int, 0, len(occ))
	for v := range occ {
		lhsVars = append(lhsVars, v)
	}
	sort.Ints(lhsVars)
	qsorted := append([]int(nil), qvars...)
	sort.Ints(qsorted)
	if !equalInts(qsorted, lhsVars) {
		return nil
	}

	return newEquivInfo(lhs, c2, fu)
}

func newEquivInfo(lhs *kernel.Literal, rhs *kernel.Formula, fu *kernel.FormulaUnit) *EquivInfo {
	return &EquivInfo{
		Lhs:    lhs,
		PosLhs: lhs.PositiveLiteral(),
		Rhs:    rhs,
		Unit:   fu,
	}
}

// An Inliner rewrites atoms through their definitions, saturating the
// rewrite so that renamed atoms inside definitions resolve too.
type Inliner struct {
	d     *Dag
	sh    *Sharer
	tr    *Transformer
	compr Compressor
	sig   *kernel.Signature

	infos    []*EquivInfo
	byPred   map[int][]*EquivInfo
	unitDefs map[*kernel.FormulaUnit]*EquivInfo

	inlMap   RefMap
	simplMap RefMap
}

// NewInliner builds an inliner over d for the given signature. compr
// may be nil; the default compressor is used then.
func NewInliner(d *Dag, sig *kernel.Signature, compr Compressor) *Inliner {
	if compr == nil {
		compr = NewCompressor(d)
	}
	return &Inliner{
		d:        d,
		sh:       NewSharer(d),
		tr:       NewTransformer(d),
		compr:    compr,
		sig:      sig,
		byPred:   map[int][]*EquivInfo{},
		unitDefs: map[*kernel.FormulaUnit]*EquivInfo{},
		inlMap:   RefMap{},
		simplMap: RefMap{},
	}
}

// addInfo registers a definition unless its lhs unifies with a stored
// one: there is one inlining rule per atom.
func (in *Inliner) addInfo(inf *EquivInfo) bool {
	for _, other := range in.byPred[inf.PosLhs.Pred()] {
		if kernel.Unifiable(other.PosLhs, inf.PosLhs) {
			return false
		}
	}
	rhsAig := in.sh.FormulaRef(inf.Rhs)
	if !inf.Lhs.Positive() {
		rhsAig = rhsAig.Neg()
	}
	inf.ActiveRhs = in.compr.Compress(rhsAig)

	in.infos = append(in.infos, inf)
	in.byPred[inf.PosLhs.Pred()] = append(in.byPred[inf.PosLhs.Pred()], inf)
	in.unitDefs[inf.Unit] = inf
	return true
}

// collectDefinitions extracts definitions from units and returns the
// dag of every unit and clause, rhs only for recognised definitions.
func (in *Inliner) collectDefinitions(units []*kernel.FormulaUnit, clauses []*kernel.Clause) []Ref {
	var relevant []Ref
	for _, fu := range units {
		if inf := tryGetEquiv(fu, in.sig); inf != nil && in.addInfo(inf) {
			relevant = append(relevant, in.sh.FormulaRef(inf.Rhs))
			continue
		}
		relevant = append(relevant, in.sh.FormulaRef(fu.Form))
	}
	for _, c := range clauses {
		relevant = append(relevant, in.sh.ClauseRef(c))
	}
	return relevant
}

// tryExpandAtom matches a positive atom against the indexed lhs set and
// instantiates the corresponding active rhs.
func (in *Inliner) tryExpandAtom(atom Ref) (Ref, bool) {
	lit := in.d.PositiveAtom(atom)
	for _, inf := range in.byPred[lit.Pred()] {
		if inf.PosLhs.Equal(lit) {
			return inf.ActiveRhs, true
		}
		if sub, ok := kernel.MatchLiteral(inf.PosLhs, lit); ok {
			return in.tr.Substitute(sub, inf.ActiveRhs), true
		}
	}
	return 0, false
}

// Scan collects the definitions in units, builds the atom rewrite map,
// saturates it and populates the orthogonal simplification map through
// the compressor hook. Units must not contain predicate equivalences
// between two definition heads of the same atom.
func (in *Inliner) Scan(units []*kernel.FormulaUnit, clauses []*kernel.Clause) {
	relevant := in.collectDefinitions(units, clauses)

	// Traverse inside-out; expansion targets join the traversal so that
	// atoms introduced by an expansion are expanded as well.
	atomMap := RefMap{}
	seen := map[Ref]struct{}{}
	work := append([]Ref(nil), relevant...)
	for len(work) > 0 {
		r := work[len(work)-1].Positive()
		work = work[:len(work)-1]
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		n := in.d.node(r)
		switch n.kind {
		case kindConj:
			work = append(work, n.l, n.r)
		case kindQuant:
			work = append(work, n.sub)
		case kindAtom:
			if tgt, ok := in.tryExpandAtom(r); ok {
				atomMap.Set(r, tgt)
				work = append(work, tgt)
			}
		}
	}

	in.inlMap = atomMap
	in.tr.SaturateMap(in.inlMap)

	// Cache the rewrite of every relevant dag so that Apply is a pair
	// of level-0 dereferences, then map the results through the
	// compressor.
	inlined := make([]Ref, 0, len(relevant))
	for _, r := range relevant {
		inlined = append(inlined, in.tr.ApplyDeepCaching(in.inlMap, r))
	}
	PopulateCompressingMap(in.compr, in.tr.OrderedNodes(inlined), in.simplMap)
}

// Apply rewrites r through the inline map and then the simplification
// map, one indirection each.
func (in *Inliner) Apply(r Ref) Ref {
	return Lev0Deref(Lev0Deref(r, in.inlMap), in.simplMap)
}

// ApplyFormula rewrites f, converting back only when the dag changed.
func (in *Inliner) ApplyFormula(f *kernel.Formula) *kernel.Formula {
	a := in.sh.FormulaRef(f)
	tgt := in.Apply(a)
	if tgt == a {
		return f
	}
	return in.sh.FormulaOf(tgt)
}

// ApplyUnit rewrites a formula unit. It returns the rewritten unit and
// true when something changed; a nil unit with true means the unit
// became a tautology and is to be dropped. Definition units keep their
// lhs <=> rhs shape, with constant right-hand sides collapsed.
func (in *Inliner) ApplyUnit(fu *kernel.FormulaUnit) (*kernel.FormulaUnit, bool) {
	var f *kernel.Formula

	if inf, ok := in.unitDefs[fu]; ok {
		newRhs := in.ApplyFormula(inf.Rhs)
		if newRhs == inf.Rhs {
			return fu, false
		}
		lhs := kernel.Atom(inf.Lhs)
		switch newRhs.Conn() {
		case kernel.TrueConn:
			f = lhs
		case kernel.FalseConn:
			f = kernel.Atom(inf.Lhs.Negation())
		default:
			f = kernel.Iff(lhs, newRhs)
		}
		f = kernel.Forall(lhs.FreeVars(), f)
	} else {
		f = in.ApplyFormula(fu.Form)
		if f.Conn() == kernel.TrueConn {
			return nil, true
		}
		if f == fu.Form {
			return fu, false
		}
	}

	return &kernel.FormulaUnit{
		Name:      fu.Name,
		Form:      f,
		Inference: "predicate_definition_unfolding",
	}, true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
