package sat

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDimacs(t *testing.T) {
	var buf bytes.Buffer
	clauses := []Clause{clause(1, -2, 3), clause(-1), clause(2, 3)}
	require.NoError(t, WriteDimacs(&buf, 3, clauses))
	assert.Equal(t, "p cnf 3 3\n1 -2 3 0\n-1 0\n2 3 0\n", buf.String())
}

func TestLitEncodingRoundTrip(t *testing.T) {
	for _, i := range []int32{1, -1, 3, -3, 42, -42} {
		assert.Equal(t, i, FromDimacs(i).Dimacs())
	}
	assert.True(t, FromDimacs(3).Pos())
	assert.False(t, FromDimacs(-3).Pos())
	assert.Equal(t, FromDimacs(-3), FromDimacs(3).Not())
	assert.Equal(t, Var(2), FromDimacs(-3).Var())
}
