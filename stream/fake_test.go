package stream

import (
	"errors"
)

// sliceBackend is a minimal in-memory backend for driver and validator tests.
type sliceBackend[T Element] struct {
	a, b, c []T
	scalar  T

	// corrupt, when set, is applied to the arrays handed out by ReadArrays.
	corrupt func(a, b, c []T)
	// failOn makes the named kernel return an error.
	failOn Kernel
	fail   bool
	closed bool
}

func newSliceBackend[T Element](n int, scalar T) *sliceBackend[T] {
	return &sliceBackend[T]{
		a:      make([]T, n),
		b:      make([]T, n),
		c:      make([]T, n),
		scalar: scalar,
	}
}

var errInjected = errors.New("injected failure")

func (s *sliceBackend[T]) check(k Kernel) error {
	if s.fail && s.failOn == k {
		return errInjected
	}

	return nil
}

func (s *sliceBackend[T]) InitArrays(initA, initB, initC T) error {
	for i := range s.a {
		s.a[i], s.b[i], s.c[i] = initA, initB, initC
	}

	return nil
}

func (s *sliceBackend[T]) Copy() error {
	copy(s.c, s.a)

	return s.check(Copy)
}

func (s *sliceBackend[T]) Mul() error {
	for i := range s.b {
		s.b[i] = s.scalar * s.c[i]
	}

	return s.check(Mul)
}

func (s *sliceBackend[T]) Add() error {
	for i := range s.c {
		s.c[i] = s.a[i] + s.b[i]
	}

	return s.check(Add)
}

func (s *sliceBackend[T]) Triad() error {
	for i := range s.a {
		s.a[i] = s.b[i] + s.scalar*s.c[i]
	}

	return s.check(Triad)
}

func (s *sliceBackend[T]) Nstream() error {
	for i := range s.a {
		s.a[i] += s.b[i] + s.scalar*s.c[i]
	}

	return s.check(Nstream)
}

func (s *sliceBackend[T]) Dot() (T, error) {
	var sum T
	for i := range s.a {
		sum += s.a[i] * s.b[i]
	}

	return sum, s.check(Dot)
}

func (s *sliceBackend[T]) ReadArrays(a, b, c []T) error {
	copy(a, s.a)
	copy(b, s.b)
	copy(c, s.c)

	if s.corrupt != nil {
		s.corrupt(a, b, c)
	}

	return nil
}

func (s *sliceBackend[T]) Close() error {
	s.closed = true

	return nil
}
