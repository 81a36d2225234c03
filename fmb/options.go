// Package fmb implements the non-incremental finite model builder: a
// size-ascending search that grounds the clause set over a candidate
// domain, encodes it propositionally and delegates the decision to a
// SAT solver.
package fmb

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/dtzWill/vampire/kernel"
	"github.com/dtzWill/vampire/sat"
)

// Mode controls progress output.
type Mode int

const (
	// ModeNormal prints progress through the logger.
	ModeNormal = Mode(iota)
	// ModeSpider silences everything below errors.
	ModeSpider
)

// Proof controls whether a found model is reported.
type Proof int

const (
	// ProofOn reports models.
	ProofOn = Proof(iota)
	// ProofOff suppresses model output.
	ProofOff
)

// Result is the exit status of a builder run.
type Result int

const (
	// ResultSatisfiable means a finite model was found.
	ResultSatisfiable = Result(iota)
	// ResultRefutation means no model of any size exists.
	ResultRefutation
	// ResultUnknown means the search gave up.
	ResultUnknown
	// ResultTimeLimit means the deadline expired.
	ResultTimeLimit
)

func (r Result) String() string {
	switch r {
	case ResultSatisfiable:
		return "SATISFIABLE"
	case ResultRefutation:
		return "REFUTATION"
	case ResultUnknown:
		return "UNKNOWN"
	case ResultTimeLimit:
		return "TIME_LIMIT"
	default:
		panic("invalid result")
	}
}

// Options bundles the knobs of a builder run.
type Options struct {
	// Engine selects the SAT back-end.
	Engine sat.Engine
	// PreSolver routes clauses through the transparent pure-literal
	// pre-solver before they reach the engine.
	PreSolver bool
	Mode      Mode
	Proof     Proof
	// Complete decides FMB-admissibility of the input. A nil predicate
	// accepts everything.
	Complete func(sig *kernel.Signature, clauses []*kernel.Clause) bool
	// Logger receives progress output; a default is created when nil.
	Logger *logrus.Logger
	// DimacsOut, when non-nil, receives the DIMACS form of every SAT
	// instance tried.
	DimacsOut io.Writer
}

// DefaultOptions returns the options of a plain run.
func DefaultOptions() Options {
	return Options{
		Engine:    sat.EngineGini,
		PreSolver: true,
	}
}
