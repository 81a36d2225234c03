package aig

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/dtzWill/vampire/kernel"
)

// A RefMap is a rewrite map over dag references. Keys are stored with
// positive polarity; lookups and stores normalise automatically.
type RefMap map[Ref]Ref

// Set records src -> tgt, normalising src to positive polarity.
func (m RefMap) Set(src, tgt Ref) {
	if !src.Polarity() {
		src = src.Neg()
		tgt = tgt.Neg()
	}
	m[src] = tgt
}

// Get looks src up, respecting polarity.
func (m RefMap) Get(src Ref) (Ref, bool) {
	if !src.Polarity() {
		tgt, ok := m[src.Neg()]
		return tgt.Neg(), ok
	}
	tgt, ok := m[src]
	return tgt, ok
}

// Lev0Deref rewrites r through m with a single indirection.
func Lev0Deref(r Ref, m RefMap) Ref {
	if tgt, ok := m.Get(r); ok {
		return tgt
	}
	return r
}

// A Transformer rebuilds dags through rewrite maps.
type Transformer struct {
	d *Dag
}

// NewTransformer builds a transformer over d.
func NewTransformer(d *Dag) *Transformer { return &Transformer{d: d} }

// ApplyDeep rewrites r bottom-up: every node with a map entry is
// replaced by its image, every other node is rebuilt from its rewritten
// children.
func (t *Transformer) ApplyDeep(m RefMap, r Ref) Ref {
	return t.applyDeep(m, r, map[Ref]Ref{})
}

// ApplyDeepCaching is ApplyDeep, but it also records the rewrite of
// every visited node back into m, so that later lookups need only a
// level-0 dereference.
func (t *Transformer) ApplyDeepCaching(m RefMap, r Ref) Ref {
	res := t.applyDeep(m, r, map[Ref]Ref{})
	t.cacheInto(m, r, map[Ref]struct{}{})
	return res
}

func (t *Transformer) cacheInto(m RefMap, r Ref, seen map[Ref]struct{}) {
	r = r.Positive()
	if _, ok := seen[r]; ok {
		return
	}
	seen[r] = struct{}{}
	n := t.d.node(r)
	switch n.kind {
	case kindConj:
		t.cacheInto(m, n.l, seen)
		t.cacheInto(m, n.r, seen)
	case kindQuant:
		t.cacheInto(m, n.sub, seen)
	}
	if _, ok := m.Get(r); ok {
		return
	}
	if img := t.applyDeep(m, r, map[Ref]Ref{}); img != r {
		m.Set(r, img)
	}
}

func (t *Transformer) applyDeep(m RefMap, r Ref, memo map[Ref]Ref) Ref {
	if !r.Polarity() {
		return t.applyDeep(m, r.Neg(), memo).Neg()
	}
	if res, ok := memo[r]; ok {
		return res
	}
	if tgt, ok := m.Get(r); ok {
		memo[r] = tgt
		return tgt
	}
	n := t.d.node(r)
	res := r
	switch n.kind {
	case kindConj:
		res = t.d.Conj(t.applyDeep(m, n.l, memo), t.applyDeep(m, n.r, memo))
	case kindQuant:
		res = t.d.Exists(n.qvars, t.applyDeep(m, n.sub, memo))
	}
	memo[r] = res
	return res
}

// SaturateMap composes m with itself until a fixed point: afterwards no
// element of the range contains a node of the domain. The round count
// is capped to guard against self-referential entries.
func (t *Transformer) SaturateMap(m RefMap) {
	for round := 0; round <= len(m); round++ {
		changed := false
		for src, tgt := range m {
			// Rewrite the target with the entry itself masked out, so a
			// self-referential definition cannot loop.
			saved := tgt
			delete(m, src)
			img := t.ApplyDeep(m, saved)
			m[src] = img
			if img != saved {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// Substitute applies a term substitution to every atom under r. Bound
// variables shadow the substitution in their scope.
func (t *Transformer) Substitute(sub kernel.Substitution, r Ref) Ref {
	if !r.Polarity() {
		return t.Substitute(sub, r.Neg()).Neg()
	}
	n := t.d.node(r)
	switch n.kind {
	case kindConst:
		return r
	case kindAtom:
		return t.d.Atom(sub.ApplyLiteral(n.atom))
	case kindConj:
		return t.d.Conj(t.Substitute(sub, n.l), t.Substitute(sub, n.r))
	case kindQuant:
		inner := sub
		for _, v := range n.qvars {
			if _, bound := sub[v]; bound {
				inner = shadow(sub, n.qvars)
				break
			}
		}
		return t.d.Exists(n.qvars, t.Substitute(inner, n.sub))
	}
	panic("invalid aig node")
}

func shadow(sub kernel.Substitution, vars []int) kernel.Substitution {
	out := kernel.Substitution{}
	for v, b := range sub {
		if !containsVar(vars, v) {
			out[v] = b
		}
	}
	return out
}

// OrderedNodes returns the positive references reachable from roots
// with children strictly before parents, each exactly once.
func (t *Transformer) OrderedNodes(roots []Ref) []Ref {
	visited := bitset.New(uint(t.d.NodeCount()))
	var out []Ref
	var visit func(r Ref)
	visit = func(r Ref) {
		r = r.Positive()
		if visited.Test(uint(r.idx())) {
			return
		}
		visited.Set(uint(r.idx()))
		n := t.d.node(r)
		switch n.kind {
		case kindConj:
			visit(n.l)
			visit(n.r)
		case kindQuant:
			visit(n.sub)
		}
		out = append(out, r)
	}
	for _, r := range roots {
		visit(r)
	}
	return out
}

// A Compressor normalises dags. The inliner treats it as an injected
// hook; a BDD-backed implementation can replace the default.
type Compressor interface {
	Compress(r Ref) Ref
}

// rebuildCompressor re-runs every node through the dag constructors,
// which apply the level-0 simplification rules.
type rebuildCompressor struct {
	t *Transformer
}

// NewCompressor returns the default compressor for d.
func NewCompressor(d *Dag) Compressor {
	return &rebuildCompressor{t: NewTransformer(d)}
}

func (c *rebuildCompressor) Compress(r Ref) Ref {
	return c.t.ApplyDeep(nil, r)
}

// PopulateCompressingMap records, for every node in nodes, its
// compressed form when it differs.
func PopulateCompressingMap(c Compressor, nodes []Ref, m RefMap) {
	for _, n := range nodes {
		if cn := c.Compress(n); cn != n {
			m.Set(n, cn)
		}
	}
}
