package backend

import (
	"fmt"

	"github.com/weiihann/streamoor/stream"
)

// triple is the array storage shared by the CPU backends. Each backend
// instance allocates its own.
type triple[T stream.Element] struct {
	a, b, c []T
	scalar  T
}

func newTriple[T stream.Element](op string, n, device int, opts Options) (triple[T], error) {
	if err := checkDevice(op, device); err != nil {
		return triple[T]{}, err
	}

	a, b, c, err := allocate[T](op, n, opts.memoryLimit())
	if err != nil {
		return triple[T]{}, err
	}

	return triple[T]{a: a, b: b, c: c, scalar: T(opts.Scalar)}, nil
}

// ReadArrays copies the triple into caller-owned slices.
func (t *triple[T]) ReadArrays(a, b, c []T) error {
	n := len(t.a)
	if len(a) != n || len(b) != n || len(c) != n {
		return stream.NewKernelError("ReadArrays", fmt.Sprintf(
			"destination lengths %d/%d/%d do not match array size %d",
			len(a), len(b), len(c), n), nil)
	}

	copy(a, t.a)
	copy(b, t.b)
	copy(c, t.c)

	return nil
}

// Close drops the arrays so a closed backend cannot be reused.
func (t *triple[T]) Close() error {
	t.a, t.b, t.c = nil, nil, nil

	return nil
}
