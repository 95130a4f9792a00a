package backend

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/weiihann/streamoor/stream"
)

// gonumStream expresses the kernels with gonum's vector routines, which use
// assembly on amd64 and arm64. It supports float64 only.
type gonumStream struct {
	triple[float64]
}

func newGonum[T stream.Element](n, device int, opts Options) (stream.Backend[T], error) {
	if stream.SizeOf[T]() != 8 {
		return nil, stream.NewConfigurationError("gonum",
			fmt.Sprintf("unsupported dtype: %d-byte elements, gonum requires float64",
				stream.SizeOf[T]()))
	}

	t, err := newTriple[float64]("gonum", n, device, opts)
	if err != nil {
		return nil, err
	}

	b, ok := any(&gonumStream{triple: t}).(stream.Backend[T])
	if !ok {
		return nil, stream.NewConfigurationError("gonum",
			"unsupported dtype: gonum requires float64")
	}

	return b, nil
}

func (g *gonumStream) InitArrays(initA, initB, initC float64) error {
	for i := range g.a {
		g.a[i] = initA
		g.b[i] = initB
		g.c[i] = initC
	}

	return nil
}

func (g *gonumStream) Copy() error {
	copy(g.c, g.a)

	return nil
}

func (g *gonumStream) Mul() error {
	floats.ScaleTo(g.b, g.scalar, g.c)

	return nil
}

func (g *gonumStream) Add() error {
	floats.AddTo(g.c, g.a, g.b)

	return nil
}

func (g *gonumStream) Triad() error {
	floats.AddScaledTo(g.a, g.b, g.scalar, g.c)

	return nil
}

// Nstream takes two passes over a, so it moves more bytes than the four
// words per element it is credited with.
func (g *gonumStream) Nstream() error {
	floats.AddScaled(g.a, g.scalar, g.c)
	floats.Add(g.a, g.b)

	return nil
}

func (g *gonumStream) Dot() (float64, error) {
	return floats.Dot(g.a, g.b), nil
}
