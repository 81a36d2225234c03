package kernel

import (
	"fmt"
	"sort"
	"strings"
)

// Connective is the top-level shape of a formula.
type Connective int

const (
	// LitConn is an atomic formula (a literal).
	LitConn Connective = iota
	// AndConn is an n-ary conjunction.
	AndConn
	// OrConn is an n-ary disjunction.
	OrConn
	// NotConn is a negation.
	NotConn
	// ImpConn is an implication.
	ImpConn
	// IffConn is an equivalence.
	IffConn
	// XorConn is an exclusive or.
	XorConn
	// ForallConn is a universally quantified formula.
	ForallConn
	// ExistsConn is an existentially quantified formula.
	ExistsConn
	// TrueConn is the constant true.
	TrueConn
	// FalseConn is the constant false.
	FalseConn
)

// A Formula is a first-order formula tree. Sharing happens at the AIG
// level, not here.
type Formula struct {
	conn Connective
	lit  *Literal
	sub  []*Formula
	vars []int
}

// Atom builds an atomic formula.
func Atom(l *Literal) *Formula { return &Formula{conn: LitConn, lit: l} }

// And builds a conjunction. Zero conjuncts yield true, one yields the
// conjunct itself.
func And(fs ...*Formula) *Formula {
	switch len(fs) {
	case 0:
		return TrueFormula()
	case 1:
		return fs[0]
	}
	return &Formula{conn: AndConn, sub: fs}
}

// Or builds a disjunction. Zero disjuncts yield false, one yields the
// disjunct itself.
func Or(fs ...*Formula) *Formula {
	switch len(fs) {
	case 0:
		return FalseFormula()
	case 1:
		return fs[0]
	}
	return &Formula{conn: OrConn, sub: fs}
}

// Not builds a negation.
func Not(f *Formula) *Formula { return &Formula{conn: NotConn, sub: []*Formula{f}} }

// Imp builds the implication a -> b.
func Imp(a, b *Formula) *Formula { return &Formula{conn: ImpConn, sub: []*Formula{a, b}} }

// Iff builds the equivalence a <-> b.
func Iff(a, b *Formula) *Formula { return &Formula{conn: IffConn, sub: []*Formula{a, b}} }

// Xor builds the exclusive or of a and b.
func Xor(a, b *Formula) *Formula { return &Formula{conn: XorConn, sub: []*Formula{a, b}} }

// Forall quantifies f universally over vars. No vars yields f.
func Forall(vars []int, f *Formula) *Formula {
	if len(vars) == 0 {
		return f
	}
	return &Formula{conn: ForallConn, vars: vars, sub: []*Formula{f}}
}

// Exists quantifies f existentially over vars. No vars yields f.
func Exists(vars []int, f *Formula) *Formula {
	if len(vars) == 0 {
		return f
	}
	return &Formula{conn: ExistsConn, vars: vars, sub: []*Formula{f}}
}

// TrueFormula returns the constant true.
func TrueFormula() *Formula { return &Formula{conn: TrueConn} }

// FalseFormula returns the constant false.
func FalseFormula() *Formula { return &Formula{conn: FalseConn} }

// Conn returns the top-level connective.
func (f *Formula) Conn() Connective { return f.conn }

// Lit returns the literal of an atomic formula.
func (f *Formula) Lit() *Literal { return f.lit }

// Sub returns the i-th subformula.
func (f *Formula) Sub(i int) *Formula { return f.sub[i] }

// Subs returns the subformula slice. Callers must not mutate it.
func (f *Formula) Subs() []*Formula { return f.sub }

// QVars returns the quantified variables of a quantified formula.
func (f *Formula) QVars() []int { return f.vars }

// FreeVars returns the free variables of f in ascending order.
func (f *Formula) FreeVars() []int {
	set := map[int]struct{}{}
	f.collectFree(set, map[int]int{})
	vars := make([]int, 0, len(set))
	for v := range set {
		vars = append(vars, v)
	}
	sort.Ints(vars)
	return vars
}

func (f *Formula) collectFree(free map[int]struct{}, bound map[int]int) {
	switch f.conn {
	case LitConn:
		occ := map[int]struct{}{}
		f.lit.CollectVars(occ)
		for v := range occ {
			if bound[v] == 0 {
				free[v] = struct{}{}
			}
		}
	case ForallConn, ExistsConn:
		for _, v := range f.vars {
			bound[v]++
		}
		f.sub[0].collectFree(free, bound)
		for _, v := range f.vars {
			bound[v]--
		}
	default:
		for _, s := range f.sub {
			s.collectFree(free, bound)
		}
	}
}

func (f *Formula) String() string {
	switch f.conn {
	case LitConn:
		return f.lit.String()
	case TrueConn:
		return "$true"
	case FalseConn:
		return "$false"
	case NotConn:
		return "~(" + f.sub[0].String() + ")"
	case AndConn, OrConn:
		op := " & "
		if f.conn == OrConn {
			op = " | "
		}
		parts := make([]string, len(f.sub))
		for i, s := range f.sub {
			parts[i] = s.String()
		}
		return "(" + strings.Join(parts, op) + ")"
	case ImpConn:
		return "(" + f.sub[0].String() + " => " + f.sub[1].String() + ")"
	case IffConn:
		return "(" + f.sub[0].String() + " <=> " + f.sub[1].String() + ")"
	case XorConn:
		return "(" + f.sub[0].String() + " <~> " + f.sub[1].String() + ")"
	case ForallConn, ExistsConn:
		q := "!"
		if f.conn == ExistsConn {
			q = "?"
		}
		parts := make([]string, len(f.vars))
		for i, v := range f.vars {
			parts[i] = fmt.Sprintf("X%d", v)
		}
		return q + " [" + strings.Join(parts, ",") + "] : " + f.sub[0].String()
	}
	panic("invalid connective")
}

// A FormulaUnit is a named formula together with the inference that
// produced it.
type FormulaUnit struct {
	Name      string
	Form      *Formula
	Inference string
}
