package backend

import (
	"log/slog"

	"github.com/weiihann/streamoor/stream"
)

// parallelStream runs every kernel across a fixed partition of the index
// space, one goroutine per range. Ranges are disjoint, so workers never
// touch the same element.
type parallelStream[T stream.Element] struct {
	triple[T]
	ranges []Range
}

func newParallel[T stream.Element](n, device int, opts Options) (*parallelStream[T], error) {
	t, err := newTriple[T]("parallel", n, device, opts)
	if err != nil {
		return nil, err
	}

	p := &parallelStream[T]{
		triple: t,
		ranges: Partition(n, opts.workers()),
	}

	opts.logger().Debug("parallel backend ready",
		slog.Int("array_size", n),
		slog.Int("ranges", len(p.ranges)),
	)

	return p, nil
}

func (p *parallelStream[T]) run(op string, fn func(lo, hi int)) error {
	if err := ForEach(p.ranges, func(_ int, r Range) { fn(r.Lo, r.Hi) }); err != nil {
		return stream.NewKernelError(op, "parallel worker failed", err)
	}

	return nil
}

func (p *parallelStream[T]) InitArrays(initA, initB, initC T) error {
	a, b, c := p.a, p.b, p.c

	return p.run("InitArrays", func(lo, hi int) {
		for i := lo; i < hi; i++ {
			a[i] = initA
			b[i] = initB
			c[i] = initC
		}
	})
}

func (p *parallelStream[T]) Copy() error {
	a, c := p.a, p.c

	return p.run("Copy", func(lo, hi int) {
		copy(c[lo:hi], a[lo:hi])
	})
}

func (p *parallelStream[T]) Mul() error {
	b, c, scalar := p.b, p.c, p.scalar

	return p.run("Mul", func(lo, hi int) {
		for i := lo; i < hi; i++ {
			b[i] = scalar * c[i]
		}
	})
}

func (p *parallelStream[T]) Add() error {
	a, b, c := p.a, p.b, p.c

	return p.run("Add", func(lo, hi int) {
		for i := lo; i < hi; i++ {
			c[i] = a[i] + b[i]
		}
	})
}

func (p *parallelStream[T]) Triad() error {
	a, b, c, scalar := p.a, p.b, p.c, p.scalar

	return p.run("Triad", func(lo, hi int) {
		for i := lo; i < hi; i++ {
			a[i] = b[i] + scalar*c[i]
		}
	})
}

func (p *parallelStream[T]) Nstream() error {
	a, b, c, scalar := p.a, p.b, p.c, p.scalar

	return p.run("Nstream", func(lo, hi int) {
		for i := lo; i < hi; i++ {
			a[i] += b[i] + scalar*c[i]
		}
	})
}

func (p *parallelStream[T]) Dot() (T, error) {
	a, b := p.a, p.b

	sum, err := MapReduce(p.ranges, func(r Range) T {
		return blockedDot(a[r.Lo:r.Hi], b[r.Lo:r.Hi])
	}, add[T])
	if err != nil {
		return 0, stream.NewKernelError("Dot", "parallel worker failed", err)
	}

	return sum, nil
}
