package backend

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/weiihann/streamoor/stream"
)

// Range is the half-open index interval [Lo, Hi).
type Range struct {
	Lo, Hi int
}

// Len returns the number of indices in r.
func (r Range) Len() int {
	return r.Hi - r.Lo
}

// minChunk keeps tiny arrays from being split into ranges whose goroutine
// cost exceeds the work.
const minChunk = 4096

// dotBlock is the run of terms summed naively before the partial is folded
// into the running total.
const dotBlock = 4096

// Partition splits [0, n) into at most parts contiguous ranges of nearly
// equal length, none shorter than minChunk unless n itself is.
func Partition(n, parts int) []Range {
	if n <= 0 {
		return nil
	}

	parts = max(1, min(parts, (n+minChunk-1)/minChunk))
	ranges := make([]Range, parts)

	size, rem := n/parts, n%parts
	lo := 0

	for i := range ranges {
		hi := lo + size
		if i < rem {
			hi++
		}

		ranges[i] = Range{Lo: lo, Hi: hi}
		lo = hi
	}

	return ranges
}

// ForEach runs fn over every range concurrently and returns once all have
// finished. A panicking worker is reported as an error.
func ForEach(ranges []Range, fn func(i int, r Range)) error {
	var g errgroup.Group

	for i, r := range ranges {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("worker [%d, %d) panicked: %v", r.Lo, r.Hi, p)
				}
			}()

			fn(i, r)

			return nil
		})
	}

	return g.Wait()
}

// MapReduce evaluates mapFn over every range concurrently, then folds the
// partial results with combine. The fold is pairwise and its shape depends
// only on len(ranges), so the same partition always sums in the same order.
func MapReduce[R any](ranges []Range, mapFn func(Range) R, combine func(R, R) R) (R, error) {
	partials := make([]R, len(ranges))

	err := ForEach(ranges, func(i int, r Range) {
		partials[i] = mapFn(r)
	})
	if err != nil {
		var zero R

		return zero, err
	}

	return TreeFold(partials, combine), nil
}

// TreeFold combines xs pairwise: ((x0+x1)+(x2+x3))+... It returns the zero
// value for an empty slice.
func TreeFold[R any](xs []R, combine func(R, R) R) R {
	switch len(xs) {
	case 0:
		var zero R

		return zero
	case 1:
		return xs[0]
	}

	mid := len(xs) / 2

	return combine(TreeFold(xs[:mid], combine), TreeFold(xs[mid:], combine))
}

// blockedDot sums a[i]*b[i] in blocks of dotBlock terms, bounding the
// rounding error a single long running sum would accumulate.
func blockedDot[T stream.Element](a, b []T) T {
	var total T

	for lo := 0; lo < len(a); lo += dotBlock {
		hi := min(lo+dotBlock, len(a))

		var sum T
		for i := lo; i < hi; i++ {
			sum += a[i] * b[i]
		}

		total += sum
	}

	return total
}

func add[T stream.Element](x, y T) T {
	return x + y
}
