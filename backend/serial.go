package backend

import (
	"github.com/weiihann/streamoor/stream"
)

// serialStream is the single-goroutine reference backend.
type serialStream[T stream.Element] struct {
	triple[T]
}

func newSerial[T stream.Element](n, device int, opts Options) (*serialStream[T], error) {
	t, err := newTriple[T]("serial", n, device, opts)
	if err != nil {
		return nil, err
	}

	return &serialStream[T]{triple: t}, nil
}

func (s *serialStream[T]) InitArrays(initA, initB, initC T) error {
	for i := range s.a {
		s.a[i] = initA
		s.b[i] = initB
		s.c[i] = initC
	}

	return nil
}

func (s *serialStream[T]) Copy() error {
	copy(s.c, s.a)

	return nil
}

func (s *serialStream[T]) Mul() error {
	b, c := s.b, s.c
	for i := range b {
		b[i] = s.scalar * c[i]
	}

	return nil
}

func (s *serialStream[T]) Add() error {
	a, b, c := s.a, s.b, s.c
	for i := range c {
		c[i] = a[i] + b[i]
	}

	return nil
}

func (s *serialStream[T]) Triad() error {
	a, b, c := s.a, s.b, s.c
	for i := range a {
		a[i] = b[i] + s.scalar*c[i]
	}

	return nil
}

func (s *serialStream[T]) Nstream() error {
	a, b, c := s.a, s.b, s.c
	for i := range a {
		a[i] += b[i] + s.scalar*c[i]
	}

	return nil
}

func (s *serialStream[T]) Dot() (T, error) {
	return blockedDot(s.a, s.b), nil
}
