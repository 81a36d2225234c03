package sat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// WriteDimacs writes the instance in the classical DIMACS CNF format:
// a "p cnf" header followed by one zero-terminated clause per line.
func WriteDimacs(w io.Writer, nbVars int, clauses []Clause) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "p cnf %d %d\n", nbVars, len(clauses)); err != nil {
		return errors.Wrap(err, "could not write DIMACS header")
	}
	for _, c := range clauses {
		for _, l := range c {
			if _, err := bw.WriteString(strconv.Itoa(int(l.Dimacs()))); err != nil {
				return errors.Wrap(err, "could not write DIMACS clause")
			}
			if err := bw.WriteByte(' '); err != nil {
				return errors.Wrap(err, "could not write DIMACS clause")
			}
		}
		if _, err := bw.WriteString("0\n"); err != nil {
			return errors.Wrap(err, "could not write DIMACS clause")
		}
	}
	return errors.Wrap(bw.Flush(), "could not flush DIMACS output")
}
