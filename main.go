// Command vampire runs the finite model builder on a TPTP cnf problem.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/dtzWill/vampire/fmb"
	"github.com/dtzWill/vampire/sat"
	"github.com/dtzWill/vampire/tptp"
)

var (
	flagSatSolver string
	flagSpider    bool
	flagNoProof   bool
	flagPreSolver bool
	flagTimeout   time.Duration
	flagDimacs    string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "vampire [file.p]",
	Short: "finite model builder for TPTP cnf problems",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runSolve(args[0])
	},
}

func init() {
	addFlags(rootCmd.Flags())
}

func addFlags(fs *flag.FlagSet) {
	fs.StringVar(&flagSatSolver, "sat-solver", "gini", "SAT back-end (gini|internal)")
	fs.BoolVar(&flagSpider, "spider", false, "silence progress output")
	fs.BoolVar(&flagNoProof, "no-proof", false, "do not print the found model")
	fs.BoolVar(&flagPreSolver, "presolver", true, "route clauses through the pure-literal pre-solver")
	fs.DurationVar(&flagTimeout, "timeout", 0, "wall-clock limit (0 = none)")
	fs.StringVar(&flagDimacs, "dimacs", "", "write the SAT instances to this file in DIMACS format")
	fs.BoolVar(&flagVerbose, "verbose", false, "debug-level logging")
}

func runSolve(path string) error {
	engine, err := sat.ParseEngine(flagSatSolver)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "could not open %q", path)
	}
	defer f.Close()

	prob, err := tptp.Parse(f)
	if err != nil {
		return errors.Wrapf(err, "could not parse %q", path)
	}

	log := logrus.New()
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}

	opts := fmb.DefaultOptions()
	opts.Engine = engine
	opts.PreSolver = flagPreSolver
	opts.Logger = log
	if flagSpider {
		opts.Mode = fmb.ModeSpider
	}
	if flagNoProof {
		opts.Proof = fmb.ProofOff
	}
	if flagDimacs != "" {
		out, err := os.Create(flagDimacs)
		if err != nil {
			return errors.Wrapf(err, "could not create %q", flagDimacs)
		}
		defer out.Close()
		opts.DimacsOut = out
	}

	ctx := context.Background()
	if flagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagTimeout)
		defer cancel()
	}

	b := fmb.New(prob.Sig, prob.Clauses, opts)
	res := b.Run(ctx)
	fmt.Println(res)

	if res == fmb.ResultSatisfiable && opts.Proof == fmb.ProofOn {
		if err := b.WriteModel(os.Stdout); err != nil {
			return errors.Wrap(err, "could not print model")
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
