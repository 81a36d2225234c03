// Package aig implements a polarity-tagged and-inverter graph over
// first-order formulas, together with the definition inliner and the
// definition introducer that run on it.
package aig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dtzWill/vampire/kernel"
)

// A Ref is a reference to a dag node with the polarity in the low bit:
// negation is a bit flip and costs nothing. Hash-consing guarantees
// that structurally equal nodes have equal references.
type Ref uint32

const (
	// True is the positive reference to the constant node.
	True = Ref(0)
	// False is its negation.
	False = Ref(1)
)

// Neg returns the complementary reference.
func (r Ref) Neg() Ref { return r ^ 1 }

// Polarity is true for positive references.
func (r Ref) Polarity() bool { return r&1 == 0 }

// Positive strips the polarity bit.
func (r Ref) Positive() Ref { return r &^ 1 }

func (r Ref) idx() uint32 { return uint32(r >> 1) }

type nodeKind uint8

const (
	kindConst nodeKind = iota
	kindAtom
	kindConj
	kindQuant
)

type node struct {
	kind nodeKind
	// Conjunction children, polarity included.
	l, r Ref
	// Positive atom literal.
	atom *kernel.Literal
	// Existentially quantified variables, ascending.
	qvars []int
	sub   Ref
	// Free variables, ascending.
	free []int
}

// A Dag is an arena of hash-consed nodes. Node 0 is the constant true.
type Dag struct {
	nodes  []node
	conjs  map[[2]Ref]Ref
	atoms  map[string]Ref
	quants map[string]Ref
}

// New builds an empty dag.
func New() *Dag {
	d := &Dag{
		conjs:  map[[2]Ref]Ref{},
		atoms:  map[string]Ref{},
		quants: map[string]Ref{},
	}
	d.nodes = append(d.nodes, node{kind: kindConst})
	return d
}

// NodeCount returns the number of allocated nodes.
func (d *Dag) NodeCount() int { return len(d.nodes) }

func (d *Dag) alloc(n node) Ref {
	d.nodes = append(d.nodes, n)
	return Ref(uint32(len(d.nodes)-1) << 1)
}

func (d *Dag) node(r Ref) *node { return &d.nodes[r.idx()] }

// IsConst is true for references to the constant node.
func (d *Dag) IsConst(r Ref) bool { return d.node(r).kind == kindConst }

// IsAtom is true for references to atom nodes.
func (d *Dag) IsAtom(r Ref) bool { return d.node(r).kind == kindAtom }

// IsConj is true for references to conjunction nodes.
func (d *Dag) IsConj(r Ref) bool { return d.node(r).kind == kindConj }

// IsQuant is true for references to quantifier nodes.
func (d *Dag) IsQuant(r Ref) bool { return d.node(r).kind == kindQuant }

// PositiveAtom returns the literal of an atom node, always positive.
func (d *Dag) PositiveAtom(r Ref) *kernel.Literal { return d.node(r).atom }

// ConjArgs returns the two children of a conjunction node.
func (d *Dag) ConjArgs(r Ref) (Ref, Ref) {
	n := d.node(r)
	return n.l, n.r
}

// QuantVars returns the variables of a quantifier node, ascending.
func (d *Dag) QuantVars(r Ref) []int { return d.node(r).qvars }

// QuantSub returns the body of a quantifier node.
func (d *Dag) QuantSub(r Ref) Ref { return d.node(r).sub }

// FreeVars returns the free variables under r, ascending.
func (d *Dag) FreeVars(r Ref) []int { return d.node(r).free }

// Atom returns the reference for literal l. Negative literals yield a
// negated reference to the positive atom.
func (d *Dag) Atom(l *kernel.Literal) Ref {
	if !l.Positive() {
		return d.Atom(l.Negation()).Neg()
	}
	key := l.Key()
	if r, ok := d.atoms[key]; ok {
		return r
	}
	occ := map[int]struct{}{}
	l.CollectVars(occ)
	r := d.alloc(node{kind: kindAtom, atom: l, free: sortedVars(occ)})
	d.atoms[key] = r
	return r
}

// Conj returns the conjunction of a and b, applying the level-0
// simplifications: constants, idempotence and complements.
func (d *Dag) Conj(a, b Ref) Ref {
	if a == False || b == False {
		return False
	}
	if a == True {
		return b
	}
	if b == True {
		return a
	}
	if a == b {
		return a
	}
	if a == b.Neg() {
		return False
	}
	if a > b {
		a, b = b, a
	}
	key := [2]Ref{a, b}
	if r, ok := d.conjs[key]; ok {
		return r
	}
	r := d.alloc(node{kind: kindConj, l: a, r: b, free: mergeVars(d.node(a).free, d.node(b).free)})
	d.conjs[key] = r
	return r
}

// Disj returns the disjunction of a and b.
func (d *Dag) Disj(a, b Ref) Ref {
	return d.Conj(a.Neg(), b.Neg()).Neg()
}

// Exists returns the existential quantification of sub over vars.
// Variables not free in sub are dropped; adjacent positive existential
// quantifiers are merged.
func (d *Dag) Exists(vars []int, sub Ref) Ref {
	if sub == True || sub == False {
		return sub
	}
	free := d.node(sub).free
	kept := make([]int, 0, len(vars))
	for _, v := range vars {
		if containsVar(free, v) && !containsVar(kept, v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return sub
	}
	sort.Ints(kept)
	if sub.Polarity() && d.IsQuant(sub) {
		kept = mergeVars(kept, d.node(sub).qvars)
		sub = d.node(sub).sub
	}
	key := quantKey(kept, sub)
	if r, ok := d.quants[key]; ok {
		return r
	}
	rest := make([]int, 0, len(free))
	for _, v := range free {
		if !containsVar(kept, v) {
			rest = append(rest, v)
		}
	}
	r := d.alloc(node{kind: kindQuant, qvars: kept, sub: sub, free: rest})
	d.quants[key] = r
	return r
}

// Forall returns the universal quantification of sub over vars.
func (d *Dag) Forall(vars []int, sub Ref) Ref {
	return d.Exists(vars, sub.Neg()).Neg()
}

// String renders r for debugging.
func (d *Dag) String(r Ref) string {
	neg := ""
	if !r.Polarity() {
		neg = "~"
	}
	n := d.node(r)
	switch n.kind {
	case kindConst:
		if r.Polarity() {
			return "$true"
		}
		return "$false"
	case kindAtom:
		return neg + n.atom.String()
	case kindConj:
		return fmt.Sprintf("%s(%s & %s)", neg, d.String(n.l), d.String(n.r))
	case kindQuant:
		parts := make([]string, len(n.qvars))
		for i, v := range n.qvars {
			parts[i] = fmt.Sprintf("X%d", v)
		}
		return fmt.Sprintf("%s? [%s] : %s", neg, strings.Join(parts, ","), d.String(n.sub))
	}
	panic("invalid aig node")
}

func quantKey(vars []int, sub Ref) string {
	var sb strings.Builder
	for _, v := range vars {
		fmt.Fprintf(&sb, "%d,", v)
	}
	fmt.Fprintf(&sb, ":%d", sub)
	return sb.String()
}

func sortedVars(set map[int]struct{}) []int {
	vars := make([]int, 0, len(set))
	for v := range set {
		vars = append(vars, v)
	}
	sort.Ints(vars)
	return vars
}

func mergeVars(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func containsVar(vars []int, v int) bool {
	for _, x := range vars {
		if x == v {
			return true
		}
	}
	return false
}
