// Package backend provides CPU implementations of the stream kernel suite
// and the registry that selects one by name at startup.
package backend

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/weiihann/streamoor/stream"
)

// Backend names.
const (
	Parallel = "parallel"
	Serial   = "serial"
	Gonum    = "gonum"
)

// KnownBackends returns the list of supported backend names.
func KnownBackends() []string {
	return []string{Parallel, Serial, Gonum}
}

// Options configures a backend instance. Each instance owns its allocation
// policy. Nothing is shared between instances.
type Options struct {
	// Scalar is the constant used by mul, triad and nstream.
	Scalar float64
	// Workers bounds the goroutines of the parallel backend. Zero means
	// GOMAXPROCS.
	Workers int
	// MemoryLimit caps the bytes of the array triple. Zero means the
	// detected system memory, which is unlimited where undetectable.
	MemoryLimit uint64
	Logger      *slog.Logger
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}

	return runtime.GOMAXPROCS(0)
}

func (o Options) memoryLimit() uint64 {
	if o.MemoryLimit > 0 {
		return o.MemoryLimit
	}

	return systemMemory()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.Default()
}

// Open returns an Opener for the named backend over elements of type T.
func Open[T stream.Element](name string, opts Options) (stream.Opener[T], error) {
	switch name {
	case Parallel:
		return func(n, device int) (stream.Backend[T], error) {
			b, err := newParallel[T](n, device, opts)
			if err != nil {
				return nil, err
			}

			return b, nil
		}, nil

	case Serial:
		return func(n, device int) (stream.Backend[T], error) {
			b, err := newSerial[T](n, device, opts)
			if err != nil {
				return nil, err
			}

			return b, nil
		}, nil

	case Gonum:
		return func(n, device int) (stream.Backend[T], error) {
			return newGonum[T](n, device, opts)
		}, nil

	default:
		return nil, stream.NewConfigurationError("Open",
			fmt.Sprintf("unknown backend %q", name))
	}
}

// Describe returns the device lister for the named backend.
func Describe(name string) (stream.DeviceLister, error) {
	switch name {
	case Parallel, Serial, Gonum:
		return hostDevices{backend: name}, nil
	default:
		return nil, stream.NewConfigurationError("Describe",
			fmt.Sprintf("unknown backend %q", name))
	}
}
