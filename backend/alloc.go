package backend

import (
	"fmt"

	"github.com/weiihann/streamoor/stream"
)

// allocate reserves the three arrays of n elements, refusing requests that
// exceed limit bytes. A zero limit disables the check.
func allocate[T stream.Element](op string, n int, limit uint64) (a, b, c []T, err error) {
	if n < 1 {
		return nil, nil, nil, stream.NewConfigurationError(op,
			fmt.Sprintf("array size must be positive, got %d", n))
	}

	need := uint64(3) * uint64(n) * uint64(stream.SizeOf[T]())
	if limit > 0 && need > limit {
		return nil, nil, nil, stream.NewAllocationError(op, fmt.Sprintf(
			"array triple needs %s, limit is %s",
			stream.FormatBytes(need), stream.FormatBytes(limit)), nil)
	}

	defer func() {
		if r := recover(); r != nil {
			a, b, c = nil, nil, nil
			err = stream.NewAllocationError(op, "allocate arrays",
				fmt.Errorf("%v", r))
		}
	}()

	return make([]T, n), make([]T, n), make([]T, n), nil
}
