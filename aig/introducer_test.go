package aig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtzWill/vampire/kernel"
)

// sharedConj builds the sub-formula q(X0) & r(X0) used as the shared
// sub-dag in the introducer tests.
func sharedConj(q, r int) *kernel.Formula {
	return kernel.And(
		kernel.Atom(kernel.NewLiteral(q, true, kernel.Var(0))),
		kernel.Atom(kernel.NewLiteral(r, true, kernel.Var(0))))
}

func introducerUnits(sig *kernel.Signature, q, r int, n int) []*kernel.FormulaUnit {
	units := make([]*kernel.FormulaUnit, n)
	for i := 0; i < n; i++ {
		extra := sig.AddPred("t"+string(rune('0'+i)), 1)
		units[i] = &kernel.FormulaUnit{
			Name: "u" + string(rune('0'+i)),
			Form: kernel.Or(
				sharedConj(q, r),
				kernel.Atom(kernel.NewLiteral(extra, true, kernel.Var(0)))),
		}
	}
	return units
}

func TestIntroducerNamesFrequentSubdag(t *testing.T) {
	d := New()
	sig := kernel.NewSignature()
	q := sig.AddPred("q", 1)
	r := sig.AddPred("r", 1)
	units := introducerUnits(sig, q, r, 4)

	predsBefore := sig.Preds()
	in := NewIntroducer(d, sig, 0)
	in.Scan(units)

	defs := in.NewDefinitions()
	require.Len(t, defs, 1, "exactly one name for the shared sub-dag")
	assert.Equal(t, predsBefore+1, sig.Preds())

	def := defs[0]
	assert.True(t, strings.HasPrefix(def.Name, "sP"))
	require.Equal(t, kernel.ForallConn, def.Form.Conn())
	body := def.Form.Sub(0)
	require.Equal(t, kernel.IffConn, body.Conn())
	lhs := body.Sub(0)
	require.Equal(t, kernel.LitConn, lhs.Conn())
	// The name takes the free variables of the sub-dag as arguments.
	assert.Equal(t, 1, lhs.Lit().Arity())
	assert.True(t, sig.PredIntroduced(lhs.Lit().Pred()))
}

func TestIntroducerBelowThresholdNoName(t *testing.T) {
	d := New()
	sig := kernel.NewSignature()
	q := sig.AddPred("q", 1)
	r := sig.AddPred("r", 1)
	units := introducerUnits(sig, q, r, 3)

	in := NewIntroducer(d, sig, 0)
	in.Scan(units)
	assert.Empty(t, in.NewDefinitions())
}

func TestIntroducerCustomThreshold(t *testing.T) {
	d := New()
	sig := kernel.NewSignature()
	q := sig.AddPred("q", 1)
	r := sig.AddPred("r", 1)
	units := introducerUnits(sig, q, r, 2)

	in := NewIntroducer(d, sig, 2)
	in.Scan(units)
	assert.Len(t, in.NewDefinitions(), 1)
}

func TestIntroducerNeverNamesAtomsOrConstants(t *testing.T) {
	d := New()
	sig := kernel.NewSignature()
	q := sig.AddPred("q", 1)

	// The same atom occurs in many units; atoms are never named.
	var units []*kernel.FormulaUnit
	for i := 0; i < 6; i++ {
		units = append(units, &kernel.FormulaUnit{
			Name: "u",
			Form: kernel.Atom(kernel.NewLiteral(q, true, kernel.Var(0))),
		})
	}
	in := NewIntroducer(d, sig, 0)
	in.Scan(units)
	assert.Empty(t, in.NewDefinitions())
}

func TestIntroducerApplyUnitFoldsName(t *testing.T) {
	d := New()
	sig := kernel.NewSignature()
	q := sig.AddPred("q", 1)
	r := sig.AddPred("r", 1)
	units := introducerUnits(sig, q, r, 4)

	in := NewIntroducer(d, sig, 0)
	in.Scan(units)
	require.Len(t, in.NewDefinitions(), 1)

	// A unit whose whole formula is the named sub-dag folds into the
	// fresh name.
	target := &kernel.FormulaUnit{Name: "w", Form: sharedConj(q, r)}
	res, changed := in.ApplyUnit(target)
	require.True(t, changed)
	require.NotNil(t, res)
	assert.Equal(t, "definition_folding", res.Inference)
	require.Equal(t, kernel.LitConn, res.Form.Conn())
	assert.True(t, sig.PredIntroduced(res.Form.Lit().Pred()))

	// Unmapped units are left alone.
	other := &kernel.FormulaUnit{
		Name: "v",
		Form: kernel.Atom(kernel.NewLiteral(q, true, kernel.Var(0))),
	}
	_, changed = in.ApplyUnit(other)
	assert.False(t, changed)
}

func TestIntroducerRespectsExistingDefinitions(t *testing.T) {
	// A sub-dag that already has a user definition keeps it: its count
	// collapses to one and no fresh name appears.
	d := New()
	sig := kernel.NewSignature()
	q := sig.AddPred("q", 1)
	r := sig.AddPred("r", 1)
	name := sig.AddPred("n", 1)
	units := introducerUnits(sig, q, r, 4)
	units = append(units, defUnit("dn", []int{0},
		kernel.NewLiteral(name, true, kernel.Var(0)),
		sharedConj(q, r)))

	in := NewIntroducer(d, sig, 0)
	in.Scan(units)
	assert.Empty(t, in.NewDefinitions())
}
