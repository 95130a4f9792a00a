package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		n, parts  int
		wantParts int
	}{
		{0, 4, 0},
		{1, 4, 1},
		{minChunk, 8, 1},
		{minChunk + 1, 8, 2},
		{10 * minChunk, 4, 4},
		{10*minChunk + 3, 4, 4},
		{10 * minChunk, 0, 1},
	}

	for _, tt := range tests {
		ranges := Partition(tt.n, tt.parts)
		require.Len(t, ranges, tt.wantParts, "n=%d parts=%d", tt.n, tt.parts)

		next, longest, shortest := 0, 0, tt.n
		for _, r := range ranges {
			assert.Equal(t, next, r.Lo, "ranges must be contiguous")
			next = r.Hi
			longest = max(longest, r.Len())
			shortest = min(shortest, r.Len())
		}

		assert.Equal(t, tt.n, next, "ranges must cover [0, n)")
		if len(ranges) > 0 {
			assert.LessOrEqual(t, longest-shortest, 1, "ranges must be balanced")
		}
	}
}

func TestTreeFold(t *testing.T) {
	var order []string

	concat := func(a, b string) string {
		order = append(order, a+"|"+b)

		return "(" + a + b + ")"
	}

	got := TreeFold([]string{"a", "b", "c", "d"}, concat)
	assert.Equal(t, "((ab)(cd))", got)
	assert.Len(t, order, 3)

	assert.Equal(t, "x", TreeFold([]string{"x"}, concat))
	assert.Equal(t, "", TreeFold(nil, concat))
}

func TestMapReduce(t *testing.T) {
	ranges := Partition(10*minChunk, 7)

	count, err := MapReduce(ranges, func(r Range) int { return r.Len() }, func(x, y int) int { return x + y })
	require.NoError(t, err)
	assert.Equal(t, 10*minChunk, count)
}

func TestForEachRecoversPanic(t *testing.T) {
	ranges := Partition(4*minChunk, 4)

	err := ForEach(ranges, func(i int, _ Range) {
		if i == 2 {
			panic("boom")
		}
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestBlockedDot(t *testing.T) {
	n := 3*dotBlock + 11
	a := make([]float32, n)
	b := make([]float32, n)

	for i := range a {
		a[i], b[i] = 0.5, 4
	}

	assert.Equal(t, float32(2*n), blockedDot(a, b))
	assert.Equal(t, float32(0), blockedDot[float32](nil, nil))
}
