package fmb

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/dtzWill/vampire/sat"
)

// WriteModel prints the found model as TPTP interpretation formulas.
// Positions whose sort collapsed below the model size read their value
// from the collapsed grounding, which keeps the printed interpretation
// total. Only callable after a satisfiable Run.
func (b *Builder) WriteModel(w io.Writer) error {
	size := b.foundSize

	// Domain.
	fmt.Fprintf(w, "fof(domain,interpretation_domain,\n")
	fmt.Fprintf(w, "      ! [X] : (\n")
	fmt.Fprintf(w, "         ")
	for i := 1; i <= size; i++ {
		fmt.Fprintf(w, "X = fmb%d", i)
		if i < size {
			fmt.Fprintf(w, " | ")
			if i%5 == 0 {
				fmt.Fprintf(w, "\n         ")
			}
		} else {
			fmt.Fprintf(w, "\n")
		}
	}
	fmt.Fprintf(w, "      ) ).\n\n")

	// Distinctness of the domain elements.
	if size > 1 {
		fmt.Fprintf(w, "fof(distinct_domain,interpreted_domain,\n")
		fmt.Fprintf(w, "         ")
		c := 0
		for i := 1; i <= size; i++ {
			for j := i + 1; j <= size; j++ {
				c++
				fmt.Fprintf(w, "fmb%d != fmb%d", i, j)
				if !(i == size-1 && j == size) {
					fmt.Fprintf(w, " & ")
					if c%5 == 0 {
						fmt.Fprintf(w, "\n         ")
					}
				} else {
					fmt.Fprintf(w, "\n")
				}
			}
		}
		fmt.Fprintf(w, ").\n\n")
	}

	if err := b.writeConstants(w); err != nil {
		return err
	}
	if err := b.writeFunctions(w); err != nil {
		return err
	}
	if err := b.writePropositions(w); err != nil {
		return err
	}
	return b.writePredicates(w)
}

// Model renders WriteModel into a string.
func (b *Builder) Model() string {
	var sb strings.Builder
	if err := b.WriteModel(&sb); err != nil {
		return ""
	}
	return sb.String()
}

func (b *Builder) writeConstants(w io.Writer) error {
	size := b.foundSize
	for f := 0; f < b.sig.Funcs(); f++ {
		if b.sig.FuncArity(f) > 0 || b.sig.FuncIntroduced(f) {
			continue
		}
		name := b.sig.FuncName(f)
		found := 0
		for c := 1; c <= size; c++ {
			if b.funcTrue(f, []int{c}) {
				found = c
				break
			}
		}
		if found == 0 {
			return errors.Errorf("no value for constant %s in assignment", name)
		}
		fmt.Fprintf(w, "fof(constant_%s,functors,%s = fmb%d).\n", name, name, found)
	}
	fmt.Fprintf(w, "\n")
	return nil
}

func (b *Builder) writeFunctions(w io.Writer) error {
	size := b.foundSize
	for f := 0; f < b.sig.Funcs(); f++ {
		arity := b.sig.FuncArity(f)
		if arity == 0 || b.sig.FuncIntroduced(f) {
			continue
		}
		name := b.sig.FuncName(f)
		fmt.Fprintf(w, "fof(function_%s,functors,\n", name)

		maxes := make([]int, arity)
		for i := range maxes {
			maxes[i] = size
		}
		od := newOdometer(maxes)
		first := true
		for od.next() {
			g := od.vals
			found := 0
			use := make([]int, arity+1)
			copy(use, g)
			for c := 1; c <= size; c++ {
				use[arity] = c
				if b.funcTrue(f, use) {
					found = c
					break
				}
			}
			if found == 0 {
				return errors.Errorf("no value for %s(%v) in assignment", name, g)
			}
			if !first {
				fmt.Fprintf(w, " &\n")
			}
			first = false
			fmt.Fprintf(w, "         %s(", name)
			for j := 0; j < arity; j++ {
				if j != 0 {
					fmt.Fprintf(w, ",")
				}
				fmt.Fprintf(w, "fmb%d", g[j])
			}
			fmt.Fprintf(w, ") = fmb%d", found)
		}
		fmt.Fprintf(w, "\n).\n\n")
	}
	return nil
}

func (b *Builder) writePropositions(w io.Writer) error {
	for p := 1; p < b.sig.Preds(); p++ {
		if b.sig.PredArity(p) > 0 || b.sig.PredIntroduced(p) {
			continue
		}
		name := b.sig.PredName(p)
		fmt.Fprintf(w, "fof(predicate_%s,predicates,", name)
		if !b.predTrue(p, nil) {
			fmt.Fprintf(w, "~")
		}
		fmt.Fprintf(w, "%s).\n", name)
	}
	fmt.Fprintf(w, "\n")
	return nil
}

func (b *Builder) writePredicates(w io.Writer) error {
	size := b.foundSize
	for p := 1; p < b.sig.Preds(); p++ {
		arity := b.sig.PredArity(p)
		if arity == 0 || b.sig.PredIntroduced(p) {
			continue
		}
		name := b.sig.PredName(p)
		fmt.Fprintf(w, "fof(predicate_%s,predicates,\n", name)

		maxes := make([]int, arity)
		for i := range maxes {
			maxes[i] = size
		}
		od := newOdometer(maxes)
		first := true
		for od.next() {
			g := od.vals
			if !first {
				fmt.Fprintf(w, " &\n")
			}
			first = false
			fmt.Fprintf(w, "         ")
			if !b.predTrue(p, g) {
				fmt.Fprintf(w, "~")
			}
			fmt.Fprintf(w, "%s(", name)
			for j := 0; j < arity; j++ {
				if j != 0 {
					fmt.Fprintf(w, ",")
				}
				fmt.Fprintf(w, "fmb%d", g[j])
			}
			fmt.Fprintf(w, ")")
		}
		fmt.Fprintf(w, "\n).\n\n")
	}
	return nil
}

// funcTrue reads the assignment of f(g[0..a-1]) = g[a], clamping
// argument positions by their sort bounds.
func (b *Builder) funcTrue(f int, grounding []int) bool {
	fb := b.sorted.FunctionBounds[f]
	use := make([]int, len(grounding))
	copy(use, grounding)
	for i := 0; i < len(use)-1; i++ {
		if fb[i+1] < use[i] {
			use[i] = fb[i+1]
		}
	}
	l := b.satLiteral(f, use, true, true, b.foundSize)
	return b.assignTrue(l)
}

// predTrue reads the assignment of p(g...), clamping argument positions
// by their sort bounds.
func (b *Builder) predTrue(p int, grounding []int) bool {
	pb := b.sorted.PredicateBounds[p]
	use := make([]int, len(grounding))
	copy(use, grounding)
	for i := range use {
		if pb[i] < use[i] {
			use[i] = pb[i]
		}
	}
	l := b.satLiteral(p, use, true, false, b.foundSize)
	return b.assignTrue(l)
}

func (b *Builder) assignTrue(l sat.Lit) bool {
	return b.solver.Assignment(l.Var()) == sat.True
}
