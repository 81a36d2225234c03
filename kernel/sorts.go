package kernel

import "math"

// Unbounded marks a sort with no finite bound on the number of domain
// elements it may need.
const Unbounded = math.MaxInt32

// A SortedSignature carries, for every symbol, a conservative upper
// bound on the number of distinct domain elements needed in each
// position. FunctionBounds[f][0] bounds the result sort of f and
// FunctionBounds[f][i+1] its i-th argument; PredicateBounds[p][i]
// bounds the i-th argument of p. Every bound is at least 1.
type SortedSignature struct {
	FunctionBounds  [][]int
	PredicateBounds [][]int
}

// InferSorts computes a sorted signature for a set of flattened
// clauses. Argument and result positions connected through a shared
// variable fall into one sort. A sort is collapsible to a single
// element exactly when no equality literal ranges over it and no
// function result lands in it; elements of such a sort are
// indistinguishable, so every position of the sort gets bound 1.
// Everything else is Unbounded.
func InferSorts(clauses []*Clause, sig *Signature) *SortedSignature {
	u := newUnionFind(0)

	// One node per function result, function argument and predicate
	// argument position.
	fnRes := make([]int, sig.Funcs())
	fnArg := make([][]int, sig.Funcs())
	for f := 0; f < sig.Funcs(); f++ {
		fnRes[f] = u.fresh()
		fnArg[f] = make([]int, sig.FuncArity(f))
		for i := range fnArg[f] {
			fnArg[f][i] = u.fresh()
		}
	}
	prArg := make([][]int, sig.Preds())
	for p := 0; p < sig.Preds(); p++ {
		prArg[p] = make([]int, sig.PredArity(p))
		for i := range prArg[p] {
			prArg[p][i] = u.fresh()
		}
	}

	var eqNodes []int
	for _, c := range clauses {
		varNode := map[int]int{}
		bind := func(v, node int) {
			if prev, ok := varNode[v]; ok {
				u.union(prev, node)
				return
			}
			varNode[v] = node
		}
		for _, l := range c.Lits() {
			switch {
			case l.IsTwoVarEquality():
				x, y := l.Arg(0).VarIdx(), l.Arg(1).VarIdx()
				n, ok := varNode[x]
				if !ok {
					n = u.fresh()
					varNode[x] = n
				}
				bind(y, n)
				eqNodes = append(eqNodes, n)
			case l.IsEquality():
				// Flattened equalities have the shape f(vars) = x.
				t := l.Arg(0)
				bind(l.Arg(1).VarIdx(), fnRes[t.Fn()])
				for i, a := range t.Args() {
					bind(a.VarIdx(), fnArg[t.Fn()][i])
				}
				eqNodes = append(eqNodes, fnRes[t.Fn()])
			default:
				for i, a := range l.Args() {
					bind(a.VarIdx(), prArg[l.Pred()][i])
				}
			}
		}
	}

	unbounded := map[int]bool{}
	for _, n := range eqNodes {
		unbounded[u.find(n)] = true
	}
	for f := 0; f < sig.Funcs(); f++ {
		unbounded[u.find(fnRes[f])] = true
	}
	bound := func(node int) int {
		if unbounded[u.find(node)] {
			return Unbounded
		}
		return 1
	}

	ss := &SortedSignature{
		FunctionBounds:  make([][]int, sig.Funcs()),
		PredicateBounds: make([][]int, sig.Preds()),
	}
	for f := 0; f < sig.Funcs(); f++ {
		b := make([]int, sig.FuncArity(f)+1)
		b[0] = bound(fnRes[f])
		for i, n := range fnArg[f] {
			b[i+1] = bound(n)
		}
		ss.FunctionBounds[f] = b
	}
	for p := 0; p < sig.Preds(); p++ {
		b := make([]int, sig.PredArity(p))
		for i, n := range prArg[p] {
			b[i] = bound(n)
		}
		ss.PredicateBounds[p] = b
	}
	return ss
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) fresh() int {
	n := len(u.parent)
	u.parent = append(u.parent, n)
	return n
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(x, y int) {
	rx, ry := u.find(x), u.find(y)
	if rx != ry {
		u.parent[ry] = rx
	}
}
