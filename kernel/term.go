// Package kernel holds the first-order data model shared by the finite
// model builder and the formula preprocessing pipeline: terms, literals,
// clauses, signatures and the clause flattener.
package kernel

import (
	"fmt"
	"strings"
)

// EqPred is the predicate identifier reserved for equality.
const EqPred = 0

// A Term is either a variable or a function symbol applied to terms.
// Terms are immutable once built.
type Term struct {
	isVar bool
	v     int
	fn    int
	args  []*Term
}

// Var builds a variable term.
func Var(v int) *Term {
	return &Term{isVar: true, v: v}
}

// App builds an application of functor fn to the given arguments.
func App(fn int, args ...*Term) *Term {
	return &Term{fn: fn, args: args}
}

// Const builds a constant, i.e. a nullary application.
func Const(fn int) *Term {
	return App(fn)
}

// IsVar is true iff t is a variable.
func (t *Term) IsVar() bool { return t.isVar }

// VarIdx returns the variable index. Only valid when IsVar.
func (t *Term) VarIdx() int { return t.v }

// Fn returns the functor. Only valid when !IsVar.
func (t *Term) Fn() int { return t.fn }

// Arity returns the number of arguments.
func (t *Term) Arity() int { return len(t.args) }

// Arg returns the i-th argument.
func (t *Term) Arg(i int) *Term { return t.args[i] }

// Args returns the argument slice. Callers must not mutate it.
func (t *Term) Args() []*Term { return t.args }

// Equal is structural equality.
func (t *Term) Equal(o *Term) bool {
	if t.isVar != o.isVar {
		return false
	}
	if t.isVar {
		return t.v == o.v
	}
	if t.fn != o.fn || len(t.args) != len(o.args) {
		return false
	}
	for i, a := range t.args {
		if !a.Equal(o.args[i]) {
			return false
		}
	}
	return true
}

// CollectVars adds every variable occurring in t to set.
func (t *Term) CollectVars(set map[int]struct{}) {
	if t.isVar {
		set[t.v] = struct{}{}
		return
	}
	for _, a := range t.args {
		a.CollectVars(set)
	}
}

// Key returns a canonical encoding of t, usable as a hash key.
func (t *Term) Key() string {
	var sb strings.Builder
	t.key(&sb)
	return sb.String()
}

func (t *Term) key(sb *strings.Builder) {
	if t.isVar {
		fmt.Fprintf(sb, "X%d", t.v)
		return
	}
	fmt.Fprintf(sb, "f%d", t.fn)
	if len(t.args) > 0 {
		sb.WriteByte('(')
		for i, a := range t.args {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.key(sb)
		}
		sb.WriteByte(')')
	}
}

func (t *Term) String() string { return t.Key() }

// A Literal is a possibly negated atom. Equality atoms use EqPred.
type Literal struct {
	pred int
	pos  bool
	args []*Term
}

// NewLiteral builds a literal of the given predicate and polarity.
func NewLiteral(pred int, pos bool, args ...*Term) *Literal {
	return &Literal{pred: pred, pos: pos, args: args}
}

// Eq builds the positive equality l = r.
func Eq(l, r *Term) *Literal {
	return NewLiteral(EqPred, true, l, r)
}

// Neq builds the disequality l != r.
func Neq(l, r *Term) *Literal {
	return NewLiteral(EqPred, false, l, r)
}

// Pred returns the predicate identifier.
func (l *Literal) Pred() int { return l.pred }

// Positive is true for positive literals.
func (l *Literal) Positive() bool { return l.pos }

// Arity returns the number of arguments.
func (l *Literal) Arity() int { return len(l.args) }

// Arg returns the i-th argument.
func (l *Literal) Arg(i int) *Term { return l.args[i] }

// Args returns the argument slice. Callers must not mutate it.
func (l *Literal) Args() []*Term { return l.args }

// IsEquality is true for equality and disequality literals.
func (l *Literal) IsEquality() bool { return l.pred == EqPred }

// IsTwoVarEquality is true for literals of the shape x = y or x != y.
func (l *Literal) IsTwoVarEquality() bool {
	return l.IsEquality() && l.args[0].IsVar() && l.args[1].IsVar()
}

// Negation returns the complementary literal.
func (l *Literal) Negation() *Literal {
	return &Literal{pred: l.pred, pos: !l.pos, args: l.args}
}

// PositiveLiteral returns l with positive polarity.
func (l *Literal) PositiveLiteral() *Literal {
	if l.pos {
		return l
	}
	return l.Negation()
}

// Equal is structural equality, polarity included.
func (l *Literal) Equal(o *Literal) bool {
	if l.pred != o.pred || l.pos != o.pos || len(l.args) != len(o.args) {
		return false
	}
	for i, a := range l.args {
		if !a.Equal(o.args[i]) {
			return false
		}
	}
	return true
}

// CollectVars adds every variable occurring in l to set.
func (l *Literal) CollectVars(set map[int]struct{}) {
	for _, a := range l.args {
		a.CollectVars(set)
	}
}

// Key returns a canonical encoding of l, usable as a hash key.
func (l *Literal) Key() string {
	var sb strings.Builder
	if !l.pos {
		sb.WriteByte('~')
	}
	if l.IsEquality() {
		l.args[0].key(&sb)
		sb.WriteByte('=')
		l.args[1].key(&sb)
		return sb.String()
	}
	fmt.Fprintf(&sb, "p%d", l.pred)
	if len(l.args) > 0 {
		sb.WriteByte('(')
		for i, a := range l.args {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.key(&sb)
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

func (l *Literal) String() string { return l.Key() }

// A Clause is an ordered multiset of literals, implicitly universally
// quantified. varCnt is one past the largest variable index, so after
// normalisation it equals the number of distinct variables.
type Clause struct {
	lits   []*Literal
	varCnt int
}

// NewClause builds a clause from the given literals.
func NewClause(lits ...*Literal) *Clause {
	c := &Clause{lits: lits}
	set := map[int]struct{}{}
	for _, l := range lits {
		l.CollectVars(set)
	}
	for v := range set {
		if v+1 > c.varCnt {
			c.varCnt = v + 1
		}
	}
	return c
}

// Len returns the number of literals.
func (c *Clause) Len() int { return len(c.lits) }

// Lit returns the i-th literal.
func (c *Clause) Lit(i int) *Literal { return c.lits[i] }

// Lits returns the literal slice. Callers must not mutate it.
func (c *Clause) Lits() []*Literal { return c.lits }

// VarCnt returns one past the largest variable index in the clause.
func (c *Clause) VarCnt() int { return c.varCnt }

// IsEmpty is true for the empty clause, i.e. a refutation.
func (c *Clause) IsEmpty() bool { return len(c.lits) == 0 }

// IsGround is true when the clause has no variables.
func (c *Clause) IsGround() bool { return c.varCnt == 0 }

func (c *Clause) String() string {
	if c.IsEmpty() {
		return "$false"
	}
	parts := make([]string, len(c.lits))
	for i, l := range c.lits {
		parts[i] = l.Key()
	}
	return strings.Join(parts, " | ")
}

// FuncSym describes a function symbol.
type FuncSym struct {
	Name       string
	Arity      int
	Introduced bool
}

// PredSym describes a predicate symbol. Protected symbols may not be
// used as definition heads.
type PredSym struct {
	Name       string
	Arity      int
	Introduced bool
	Protected  bool
}

// A Signature maps symbol identifiers to their declarations. Predicate
// 0 is always equality.
type Signature struct {
	funcs    []FuncSym
	preds    []PredSym
	funcIdx  map[string]int
	predIdx  map[string]int
	freshCnt int
}

// NewSignature builds a signature holding only the equality predicate.
func NewSignature() *Signature {
	s := &Signature{
		funcIdx: map[string]int{},
		predIdx: map[string]int{},
	}
	s.preds = append(s.preds, PredSym{Name: "=", Arity: 2, Protected: true})
	return s
}

// AddFunc registers a function symbol, reusing an existing identifier
// for a known name.
func (s *Signature) AddFunc(name string, arity int) int {
	if f, ok := s.funcIdx[name]; ok {
		return f
	}
	f := len(s.funcs)
	s.funcs = append(s.funcs, FuncSym{Name: name, Arity: arity})
	s.funcIdx[name] = f
	return f
}

// AddPred registers a predicate symbol, reusing an existing identifier
// for a known name.
func (s *Signature) AddPred(name string, arity int) int {
	if p, ok := s.predIdx[name]; ok {
		return p
	}
	p := len(s.preds)
	s.preds = append(s.preds, PredSym{Name: name, Arity: arity})
	s.predIdx[name] = p
	return p
}

// AddFreshPred mints a predicate with a fresh name of the form
// prefix<n>_suffix and marks it introduced.
func (s *Signature) AddFreshPred(arity int, prefix, suffix string) int {
	name := fmt.Sprintf("%s%d_%s", prefix, s.freshCnt, suffix)
	s.freshCnt++
	p := len(s.preds)
	s.preds = append(s.preds, PredSym{Name: name, Arity: arity, Introduced: true})
	s.predIdx[name] = p
	return p
}

// Funcs returns the number of function symbols.
func (s *Signature) Funcs() int { return len(s.funcs) }

// Preds returns the number of predicate symbols, equality included.
func (s *Signature) Preds() int { return len(s.preds) }

// FuncArity returns the arity of function f.
func (s *Signature) FuncArity(f int) int { return s.funcs[f].Arity }

// PredArity returns the arity of predicate p.
func (s *Signature) PredArity(p int) int { return s.preds[p].Arity }

// FuncName returns the name of function f.
func (s *Signature) FuncName(f int) string { return s.funcs[f].Name }

// PredName returns the name of predicate p.
func (s *Signature) PredName(p int) string { return s.preds[p].Name }

// FuncIntroduced is true for symbols minted during preprocessing.
func (s *Signature) FuncIntroduced(f int) bool { return s.funcs[f].Introduced }

// PredIntroduced is true for symbols minted during preprocessing.
func (s *Signature) PredIntroduced(p int) bool { return s.preds[p].Introduced }

// PredProtected is true for predicates that may not head a definition.
func (s *Signature) PredProtected(p int) bool { return s.preds[p].Protected }
