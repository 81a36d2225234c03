package fmb

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/dtzWill/vampire/kernel"
	"github.com/dtzWill/vampire/sat"
)

const noMaxModelSize = uint32(math.MaxUint32)

// maxSATOffset bounds the propositional variable numbering: a sat.Lit
// packs the sign into the low bit of an int32.
const maxSATOffset = uint32(math.MaxInt32 / 2)

// A Builder runs the size-ascending finite model search over a clause
// set. It owns its SAT solver, which is re-instantiated at every size.
type Builder struct {
	opts Options
	log  *logrus.Logger
	sig  *kernel.Signature

	input         []*kernel.Clause
	groundClauses []*kernel.Clause
	clauses       []*kernel.Clause
	sorted        *kernel.SortedSignature
	clauseBounds  map[*kernel.Clause][]int

	fOffsets []uint32
	pOffsets []uint32

	constants     []int
	functions     []int
	constantCount int
	maxModelSize  uint32
	refutation    bool

	solver    sat.Solver
	pending   []sat.Clause
	nbVars    uint32
	foundSize int
}

// New builds a finite model builder for the clause set over sig.
func New(sig *kernel.Signature, clauses []*kernel.Clause, opts Options) *Builder {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	if opts.Mode == ModeSpider {
		log.SetLevel(logrus.ErrorLevel)
	}
	return &Builder{
		opts:         opts,
		log:          log,
		sig:          sig,
		input:        clauses,
		clauseBounds: map[*kernel.Clause][]int{},
		maxModelSize: noMaxModelSize,
	}
}

// MaxModelSize returns the detected bound on the model size, or 0 when
// none applies. Only meaningful after Run.
func (b *Builder) MaxModelSize() int {
	if b.maxModelSize == noMaxModelSize {
		return 0
	}
	return int(b.maxModelSize)
}

// ModelSize returns the size of the found model. Only meaningful after
// a satisfiable Run.
func (b *Builder) ModelSize() int { return b.foundSize }

// init flattens, partitions and normalises the input, infers the
// sorted signature and the per-clause bounds, and detects bounds on
// the model size. A refutation found while flattening short-circuits
// through b.refutation.
func (b *Builder) init() {
	for _, c := range b.input {
		c = kernel.Flatten(c)
		if c.IsEmpty() {
			b.refutation = true
			return
		}
		if c.IsGround() {
			b.groundClauses = append(b.groundClauses, c)
			continue
		}
		b.clauses = append(b.clauses, c)

		// A clause made solely of distinct-variable positive
		// equalities forces that many distinct elements.
		posEqs := 0
		for _, l := range c.Lits() {
			if l.IsTwoVarEquality() && l.Positive() &&
				l.Arg(0).VarIdx() != l.Arg(1).VarIdx() {
				posEqs++
				continue
			}
			break
		}
		if posEqs == c.Len() && uint32(c.VarCnt()) < b.maxModelSize {
			b.maxModelSize = uint32(c.VarCnt())
			b.log.Debugf("based on %v setting maximum model size to %d", c, b.maxModelSize)
		}
	}

	for i, c := range b.clauses {
		b.clauses[i] = kernel.Normalize(c)
	}

	all := make([]*kernel.Clause, 0, len(b.clauses)+len(b.groundClauses))
	all = append(all, b.clauses...)
	all = append(all, b.groundClauses...)
	b.sorted = kernel.InferSorts(all, b.sig)

	b.fOffsets = make([]uint32, b.sig.Funcs())
	b.pOffsets = make([]uint32, b.sig.Preds())

	for f := 0; f < b.sig.Funcs(); f++ {
		if b.sig.FuncArity(f) == 0 {
			b.constants = append(b.constants, f)
			b.constantCount++
		} else {
			b.functions = append(b.functions, f)
		}
	}

	for _, c := range b.clauses {
		bounds := make([]int, c.VarCnt())
		for _, l := range c.Lits() {
			switch {
			case l.IsTwoVarEquality():
			case l.IsEquality():
				t := l.Arg(0)
				fb := b.sorted.FunctionBounds[t.Fn()]
				bounds[l.Arg(1).VarIdx()] = fb[0]
				for j, a := range t.Args() {
					bounds[a.VarIdx()] = fb[j+1]
				}
			default:
				pb := b.sorted.PredicateBounds[l.Pred()]
				for j, a := range l.Args() {
					bounds[a.VarIdx()] = pb[j]
				}
			}
		}
		b.clauseBounds[c] = bounds
	}

	// EPR: with no function of arity >= 1, the constants exhaust the
	// distinguishable elements.
	if len(b.functions) == 0 {
		epr := uint32(b.constantCount)
		if epr == 0 {
			epr = 1
		}
		if epr < b.maxModelSize {
			b.maxModelSize = epr
		}
	}
}

// pow32 is base^exp within uint32 range.
func pow32(base, exp int) (uint32, bool) {
	r := uint64(1)
	for i := 0; i < exp; i++ {
		r *= uint64(base)
		if r > math.MaxUint32 {
			return 0, false
		}
	}
	return uint32(r), true
}

// reset computes the variable block offsets for the given size and
// instantiates a fresh solver. It reports false when the propositional
// variable numbering overflows.
func (b *Builder) reset(size int) bool {
	offsets := uint32(1)
	for f := 0; f < b.sig.Funcs(); f++ {
		b.fOffsets[f] = offsets
		add, ok := pow32(size, b.sig.FuncArity(f)+1)
		if !ok || add > maxSATOffset || maxSATOffset-add < offsets {
			return false
		}
		offsets += add
	}
	for p := 1; p < b.sig.Preds(); p++ {
		b.pOffsets[p] = offsets
		add, ok := pow32(size, b.sig.PredArity(p))
		if !ok || add > maxSATOffset || maxSATOffset-add < offsets {
			return false
		}
		offsets += add
	}
	b.nbVars = offsets

	inner := sat.New(b.opts.Engine)
	if b.opts.PreSolver {
		b.solver = sat.NewTransparent(inner)
	} else {
		b.solver = inner
	}
	b.solver.EnsureVarCount(int(offsets) + 1)
	return true
}

// satLiteral indexes the SAT variable of p(d1..da) or f(d1..da)=dy.
// The grounding of a function carries the result value last.
func (b *Builder) satLiteral(f int, grounding []int, pol, isFunction bool, size int) sat.Lit {
	if !isFunction && f == kernel.EqPred {
		panic("equality has no predicate block")
	}
	var v uint32
	if isFunction {
		v = b.fOffsets[f]
	} else {
		v = b.pOffsets[f]
	}
	mult := uint32(1)
	for _, g := range grounding {
		v += mult * uint32(g-1)
		mult *= uint32(size)
	}
	return sat.MkLit(sat.Var(v-1), pol)
}

// addClause queues a SAT clause, dropping duplicate literals and
// tautologies.
func (b *Builder) addClause(lits []sat.Lit) {
	seen := map[sat.Lit]struct{}{}
	out := make(sat.Clause, 0, len(lits))
	for _, l := range lits {
		if _, dup := seen[l]; dup {
			continue
		}
		if _, taut := seen[l.Not()]; taut {
			return
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	b.pending = append(b.pending, out)
}

// odometer enumerates groundings over [1..maxes[i]] per position, last
// position fastest.
type odometer struct {
	vals  []int
	maxes []int
}

func newOdometer(maxes []int) *odometer {
	vals := make([]int, len(maxes))
	for i := range vals {
		vals[i] = 1
	}
	if len(vals) > 0 {
		vals[len(vals)-1] = 0
	}
	return &odometer{vals: vals, maxes: maxes}
}

func (o *odometer) next() bool {
	for i := len(o.vals) - 1; i >= 0; i-- {
		if o.vals[i] >= o.maxes[i] {
			o.vals[i] = 1
			continue
		}
		o.vals[i]++
		return true
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// addGroundClauses translates the zero-variable clauses. They consist
// of nullary predicates only.
func (b *Builder) addGroundClauses(size int) {
	for _, c := range b.groundClauses {
		lits := make([]sat.Lit, 0, c.Len())
		for _, l := range c.Lits() {
			lits = append(lits, b.satLiteral(l.Pred(), nil, l.Positive(), false, size))
		}
		b.addClause(lits)
	}
}

// addNewInstances grounds every non-ground clause over the current
// size, clamped by the per-variable sort bounds. Two-variable equality
// literals collapse: a true literal drops the instance, a false one is
// skipped.
func (b *Builder) addNewInstances(size int) {
	for _, c := range b.clauses {
		bounds := b.clauseBounds[c]
		mins := make([]int, c.VarCnt())
		for i := range mins {
			mins[i] = size
			if bounds[i] != 0 && bounds[i] < size {
				mins[i] = bounds[i]
			}
		}
		od := newOdometer(mins)
	instances:
		for od.next() {
			g := od.vals
			var lits []sat.Lit
			for _, l := range c.Lits() {
				if l.IsTwoVarEquality() {
					equal := g[l.Arg(0).VarIdx()] == g[l.Arg(1).VarIdx()]
					if l.Positive() == equal {
						continue instances
					}
					continue
				}
				if l.IsEquality() {
					t := l.Arg(0)
					use := make([]int, t.Arity()+1)
					for j, a := range t.Args() {
						use[j] = g[a.VarIdx()]
					}
					use[t.Arity()] = g[l.Arg(1).VarIdx()]
					lits = append(lits, b.satLiteral(t.Fn(), use, l.Positive(), true, size))
					continue
				}
				use := make([]int, l.Arity())
				for j, a := range l.Args() {
					use[j] = g[a.VarIdx()]
				}
				lits = append(lits, b.satLiteral(l.Pred(), use, l.Positive(), false, size))
			}
			b.addClause(lits)
		}
	}
}

// addNewFunctionalDefs forbids two results for one application: for
// every grounding with y != z, ~f(x)=y | ~f(x)=z.
func (b *Builder) addNewFunctionalDefs(size int) {
	for f := 0; f < b.sig.Funcs(); f++ {
		arity := b.sig.FuncArity(f)
		fb := b.sorted.FunctionBounds[f]

		mins := make([]int, arity+2)
		mins[0] = minInt(fb[0], size)
		mins[1] = minInt(fb[0], size)
		for i := 0; i < arity; i++ {
			mins[2+i] = minInt(fb[i+1], size)
		}

		od := newOdometer(mins)
		for od.next() {
			g := od.vals
			if g[0] == g[1] {
				continue
			}
			use := make([]int, arity+1)
			for k := 0; k < arity; k++ {
				use[k] = g[k+2]
			}
			use[arity] = g[0]
			l1 := b.satLiteral(f, use, false, true, size)
			use[arity] = g[1]
			l2 := b.satLiteral(f, use, false, true, size)
			b.addClause([]sat.Lit{l1, l2})
		}
	}
}

// addNewSymmetryAxioms breaks domain permutation symmetry for the
// newSize-th element: constants are restricted and ordered first; once
// exhausted, the non-constant functions are cycled through, requiring
// an application over the first elements to land within [1..newSize].
// size is the encoding base of the current attempt.
func (b *Builder) addNewSymmetryAxioms(newSize, size int) {
	if len(b.constants) < newSize {
		if len(b.constants) == 0 {
			return
		}
		n := len(b.constants)
		if len(b.functions) <= newSize/n {
			return
		}
		fn := b.functions[newSize/n]
		arity := b.sig.FuncArity(fn)
		// The (newSize mod n)-th domain element, 1-based.
		ci := newSize%n + 1

		g := make([]int, arity+1)
		for i := 0; i < arity; i++ {
			g[i] = ci
		}
		lits := make([]sat.Lit, 0, newSize)
		for i := 0; i < newSize; i++ {
			g[arity] = i + 1
			lits = append(lits, b.satLiteral(fn, g, true, true, size))
		}
		b.addClause(lits)
		return
	}

	// Restricted totality: the newSize-th constant maps into
	// [1..newSize].
	c1 := b.constants[newSize-1]
	lits := make([]sat.Lit, 0, newSize)
	for i := 0; i < newSize; i++ {
		lits = append(lits, b.satLiteral(c1, []int{i + 1}, true, true, size))
	}
	b.addClause(lits)

	// Canonicity: c_newSize = d+1 implies some earlier constant is d.
	if newSize > 1 {
		for d := 1; d < newSize; d++ {
			lits = []sat.Lit{b.satLiteral(c1, []int{d + 1}, false, true, size)}
			for i := 0; i < newSize-1; i++ {
				lits = append(lits, b.satLiteral(b.constants[i], []int{d}, true, true, size))
			}
			b.addClause(lits)
		}
	}
}

// addNewTotalityDefs asserts that every application takes some value in
// [1..min(size, result bound)].
func (b *Builder) addNewTotalityDefs(size int) {
	for f := 0; f < b.sig.Funcs(); f++ {
		arity := b.sig.FuncArity(f)
		fb := b.sorted.FunctionBounds[f]
		resMax := minInt(fb[0], size)

		if arity == 0 {
			lits := make([]sat.Lit, 0, resMax)
			for i := 0; i < resMax; i++ {
				lits = append(lits, b.satLiteral(f, []int{i + 1}, true, true, size))
			}
			b.addClause(lits)
			continue
		}

		mins := make([]int, arity)
		for i := 0; i < arity; i++ {
			mins[i] = minInt(fb[i+1], size)
		}
		od := newOdometer(mins)
		for od.next() {
			g := od.vals
			lits := make([]sat.Lit, 0, resMax)
			use := make([]int, arity+1)
			copy(use, g)
			for j := 0; j < resMax; j++ {
				use[arity] = j + 1
				lits = append(lits, b.satLiteral(f, use, true, true, size))
			}
			b.addClause(lits)
		}
	}
}

// Run drives the size-ascending loop until a model is found, the size
// bound proves unsatisfiability, the numbering overflows or the
// deadline expires.
func (b *Builder) Run(ctx context.Context) Result {
	if b.opts.Complete != nil && !b.opts.Complete(b.sig, b.input) {
		return ResultUnknown
	}

	b.init()
	if b.refutation {
		return ResultRefutation
	}

	if b.maxModelSize != noMaxModelSize {
		b.log.Infof("Detected maximum model size of %d", b.maxModelSize)
	}

	size := 1
	if !b.reset(size) {
		b.log.Info("Cannot represent all propositional literals internally")
		return ResultUnknown
	}
	for {
		b.log.Infof("TRYING %d", size)
		if ctx.Err() != nil {
			return ResultTimeLimit
		}

		b.pending = b.pending[:0]
		b.addGroundClauses(size)
		b.addNewInstances(size)
		b.addNewFunctionalDefs(size)
		for s := 1; s <= size; s++ {
			b.addNewSymmetryAxioms(s, size)
		}
		b.addNewTotalityDefs(size)

		if ctx.Err() != nil {
			return ResultTimeLimit
		}
		if b.opts.DimacsOut != nil {
			if err := sat.WriteDimacs(b.opts.DimacsOut, int(b.nbVars), b.pending); err != nil {
				b.log.WithError(err).Error("could not emit DIMACS instance")
			}
		}

		b.solver.AddClauses(b.pending, false)
		if b.solver.Solve() == sat.Sat {
			b.foundSize = size
			b.log.Infof("Found model of size %d", size)
			return ResultSatisfiable
		}

		if uint32(size) >= b.maxModelSize {
			if len(b.functions) == 0 {
				b.log.Info("Checked all constants of an EPR problem")
			} else {
				b.log.Info("All further models will be UNSAT due to variable constraint")
			}
			return ResultRefutation
		}

		size++
		if !b.reset(size) {
			b.log.Info("Cannot represent all propositional literals internally")
			return ResultUnknown
		}
	}
}
