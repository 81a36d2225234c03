package aig

import "github.com/dtzWill/vampire/kernel"

// defaultNamingThreshold is the formula reference count at which a
// sub-dag gets its own name.
const defaultNamingThreshold = 4

// nodeInfo is the per-node bookkeeping of the two introducer passes.
type nodeInfo struct {
	directRefCnt int
	hasName      bool
	name         Ref
	// hasQuant[pol] is true when the node contains a quantifier at
	// effective polarity pol (1 positive, 0 negative).
	hasQuant [2]bool
	// inPol[pol] is true when the node occurs at polarity pol in some
	// top-level dag.
	inPol [2]bool
	// inQuant[pol] is true when the node occurs under a quantifier of
	// the given effective polarity.
	inQuant    [2]bool
	formRefCnt int
}

type topPair struct {
	ref  Ref
	unit *kernel.FormulaUnit
}

// An Introducer names sub-dags whose formula reference count reaches a
// threshold, emitting one defining unit per name.
type Introducer struct {
	d         *Dag
	sh        *Sharer
	tr        *Transformer
	sig       *kernel.Signature
	threshold int

	defs     RefMap
	defUnits map[Ref]*kernel.FormulaUnit
	toplevel []topPair
	refAIGs  []Ref
	indexOf  map[Ref]int
	infos    []nodeInfo
	newDefs  []*kernel.FormulaUnit
}

// NewIntroducer builds an introducer over d. A threshold of 0 selects
// the default.
func NewIntroducer(d *Dag, sig *kernel.Signature, threshold int) *Introducer {
	if threshold == 0 {
		threshold = defaultNamingThreshold
	}
	return &Introducer{
		d:         d,
		sh:        NewSharer(d),
		tr:        NewTransformer(d),
		sig:       sig,
		threshold: threshold,
		defs:      RefMap{},
		defUnits:  map[Ref]*kernel.FormulaUnit{},
		indexOf:   map[Ref]int{},
	}
}

// splitDefinition reads fu as lhs <=> rhs with a definition head on the
// lhs.
func splitDefinition(fu *kernel.FormulaUnit, sig *kernel.Signature) (*kernel.Literal, *kernel.Formula, bool) {
	f := fu.Form
	if f.Conn() == kernel.ForallConn {
		f = f.Sub(0)
	}
	if f.Conn() != kernel.IffConn {
		return nil, nil, false
	}
	c1, c2 := f.Sub(0), f.Sub(1)
	if c1.Conn() != kernel.LitConn {
		c1, c2 = c2, c1
	}
	if c1.Conn() != kernel.LitConn {
		return nil, nil, false
	}
	lhs := c1.Lit()
	if !kernel.IsDefinitionHead(lhs, sig) {
		return nil, nil, false
	}
	// The rhs may not use the defined predicate nor extra variables.
	if usesPred(c2, lhs.Pred()) {
		return nil, nil, false
	}
	lhsVars := map[int]struct{}{}
	lhs.CollectVars(lhsVars)
	for _, v := range c2.FreeVars() {
		if _, ok := lhsVars[v]; !ok {
			return nil, nil, false
		}
	}
	return lhs, c2, true
}

func usesPred(f *kernel.Formula, pred int) bool {
	if f.Conn() == kernel.LitConn {
		return f.Lit().Pred() == pred
	}
	for _, sub := range f.Subs() {
		if usesPred(sub, pred) {
			return true
		}
	}
	return false
}

func (in *Introducer) scanDefinition(fu *kernel.FormulaUnit, lhs *kernel.Literal, rhs *kernel.Formula) {
	rhsAig := in.sh.FormulaRef(rhs)
	lhsAig := in.d.Atom(lhs)
	if !rhsAig.Polarity() {
		rhsAig = rhsAig.Neg()
		lhsAig = lhsAig.Neg()
	}
	if _, ok := in.defs.Get(rhsAig); ok {
		// The rhs is already defined; merging equivalent definitions is
		// not implemented.
		return
	}
	in.defs.Set(rhsAig, lhsAig)
	in.defUnits[rhsAig] = fu
	in.toplevel = append(in.toplevel, topPair{ref: rhsAig, unit: fu})
}

func (in *Introducer) collectTopLevel(units []*kernel.FormulaUnit) {
	for _, fu := range units {
		if lhs, rhs, ok := splitDefinition(fu, in.sig); ok {
			in.scanDefinition(fu, lhs, rhs)
			continue
		}
		in.toplevel = append(in.toplevel, topPair{ref: in.sh.FormulaRef(fu.Form), unit: fu})
	}
}

// polIdx maps a polarity to its slot in the per-polarity arrays.
func polIdx(pos bool) int {
	if pos {
		return 1
	}
	return 0
}

// children returns the sub-references of r, polarity included.
func (in *Introducer) children(r Ref) []Ref {
	n := in.d.node(r)
	switch n.kind {
	case kindConj:
		return []Ref{n.l, n.r}
	case kindQuant:
		return []Ref{n.sub}
	}
	return nil
}

// firstPass walks the ordered node list children-first, counting direct
// references and propagating the quantifier bit upwards per effective
// polarity.
func (in *Introducer) firstPass() {
	for i, r := range in.refAIGs {
		in.indexOf[r] = i
		in.infos = append(in.infos, nodeInfo{})
		ni := &in.infos[i]

		name, hasName := in.defs.Get(r)
		ni.hasName = hasName
		ni.name = name
		ni.hasQuant[1] = in.d.IsQuant(r)

		for _, ch := range in.children(r) {
			neg := 0
			if !ch.Polarity() {
				neg = 1
			}
			ci := in.indexOf[ch.Positive()]
			cni := &in.infos[ci]
			cni.directRefCnt++
			ni.hasQuant[0^neg] = ni.hasQuant[0^neg] || cni.hasQuant[0]
			ni.hasQuant[1^neg] = ni.hasQuant[1^neg] || cni.hasQuant[1]
		}
	}
}

// secondPass walks the list parents-first, accumulating formula
// reference counts and occurrence bits downwards, naming every node
// that crosses the threshold and collapsing its count to one so that
// nodes above it see a single occurrence.
func (in *Introducer) secondPass() {
	for _, tp := range in.toplevel {
		idx := in.indexOf[tp.ref.Positive()]
		ni := &in.infos[idx]
		ni.formRefCnt++
		ni.inPol[polIdx(tp.ref.Polarity())] = true
	}

	for i := len(in.refAIGs) - 1; i >= 0; i-- {
		r := in.refAIGs[i]
		ni := &in.infos[i]

		if ni.hasName {
			ni.formRefCnt = 1
		}
		if in.shouldIntroduceName(i) {
			in.introduceName(i)
		}

		for _, ch := range in.children(r) {
			neg := 0
			if !ch.Polarity() {
				neg = 1
			}
			ci := in.indexOf[ch.Positive()]
			cni := &in.infos[ci]

			if in.d.IsQuant(r) {
				cni.inQuant[polIdx(neg == 0)] = true
			}
			cni.inQuant[0^neg] = cni.inQuant[0^neg] || ni.inQuant[0]
			cni.inQuant[1^neg] = cni.inQuant[1^neg] || ni.inQuant[1]
			cni.inPol[0^neg] = cni.inPol[0^neg] || ni.inPol[0]
			cni.inPol[1^neg] = cni.inPol[1^neg] || ni.inPol[1]
			cni.formRefCnt += ni.formRefCnt
		}
	}
}

func (in *Introducer) shouldIntroduceName(i int) bool {
	r := in.refAIGs[i]
	if in.d.IsConst(r) || in.d.IsAtom(r) {
		return false
	}
	ni := &in.infos[i]
	if ni.hasName || ni.formRefCnt < in.threshold {
		return false
	}
	_, defined := in.defs.Get(r)
	return !defined
}

func (in *Introducer) introduceName(i int) {
	a := in.refAIGs[i]
	ni := &in.infos[i]

	ni.formRefCnt = 1
	free := in.d.FreeVars(a)
	pred := in.sig.AddFreshPred(len(free), "sP", "aig_name")
	args := make([]*kernel.Term, len(free))
	for j, v := range free {
		args[j] = kernel.Var(v)
	}
	nameLit := kernel.NewLiteral(pred, true, args...)
	ni.hasName = true
	ni.name = in.d.Atom(nameLit)
	in.defs.Set(a, ni.name)

	rhs := in.sh.FormulaOf(a)
	equiv := kernel.Forall(free, kernel.Iff(kernel.Atom(nameLit), rhs))
	def := &kernel.FormulaUnit{
		Name:      in.sig.PredName(pred),
		Form:      equiv,
		Inference: "predicate_definition",
	}
	in.defUnits[a] = def
	in.newDefs = append(in.newDefs, def)
}

// Scan runs both passes over the dags of units and saturates the name
// map, so that names inside named sub-dags resolve transitively.
func (in *Introducer) Scan(units []*kernel.FormulaUnit) {
	in.collectTopLevel(units)
	roots := make([]Ref, len(in.toplevel))
	for i, tp := range in.toplevel {
		roots[i] = tp.ref
	}
	in.refAIGs = in.tr.OrderedNodes(roots)
	in.firstPass()
	in.secondPass()
	in.tr.SaturateMap(in.defs)
}

// ApplyUnit folds a unit whose top-level dag has a name into that name.
// It returns the folded unit and true when something changed; a nil
// unit with true means the unit became a tautology.
func (in *Introducer) ApplyUnit(fu *kernel.FormulaUnit) (*kernel.FormulaUnit, bool) {
	a := in.sh.FormulaRef(fu.Form)
	tgt, ok := in.defs.Get(a)
	if !ok {
		return fu, false
	}
	f := in.sh.FormulaOf(tgt)
	if f.Conn() == kernel.TrueConn {
		return nil, true
	}
	return &kernel.FormulaUnit{
		Name:      fu.Name,
		Form:      f,
		Inference: "definition_folding",
	}, true
}

// NewDefinitions returns the defining units minted during Scan, each
// folded through the other names where possible.
func (in *Introducer) NewDefinitions() []*kernel.FormulaUnit {
	out := make([]*kernel.FormulaUnit, 0, len(in.newDefs))
	for _, def := range in.newDefs {
		if folded, ok := in.ApplyUnit(def); ok && folded != nil {
			out = append(out, folded)
			continue
		}
		out = append(out, def)
	}
	return out
}
