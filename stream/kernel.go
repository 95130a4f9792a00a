// Package stream defines the memory bandwidth benchmark: the kernel suite
// every backend implements, the driver that times it, and the validator that
// checks a backend's results against the analytically expected state.
package stream

import (
	"fmt"
	"strings"
	"unsafe"
)

// Element is the numeric type of the array triple.
type Element interface {
	~float32 | ~float64
}

// SizeOf returns the width of T in bytes.
func SizeOf[T Element]() int {
	var zero T

	return int(unsafe.Sizeof(zero))
}

// Kernel identifies one steady-state operation over the array triple.
type Kernel int

const (
	Copy Kernel = iota
	Mul
	Add
	Triad
	Nstream
	Dot
)

var kernelNames = [...]string{
	Copy:    "copy",
	Mul:     "mul",
	Add:     "add",
	Triad:   "triad",
	Nstream: "nstream",
	Dot:     "dot",
}

// String returns the lower-case kernel name.
func (k Kernel) String() string {
	if k < 0 || int(k) >= len(kernelNames) {
		return fmt.Sprintf("kernel(%d)", int(k))
	}

	return kernelNames[k]
}

// Words returns the number of array elements read plus written per index.
func (k Kernel) Words() int {
	switch k {
	case Copy, Mul, Dot:
		return 2
	case Add, Triad:
		return 3
	case Nstream:
		return 4
	default:
		return 0
	}
}

// Flops returns the floating-point operations performed per index.
func (k Kernel) Flops() int {
	switch k {
	case Mul, Add:
		return 1
	case Triad, Nstream, Dot:
		return 2
	default:
		return 0
	}
}

// initWords is the traffic of the untimed init step: three writes.
const initWords = 3

// MarshalText lets kernels appear by name in JSON output.
func (k Kernel) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kernel name.
func (k *Kernel) UnmarshalText(text []byte) error {
	parsed, err := ParseKernel(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// ParseKernel maps a kernel name to its Kernel. "scale" is accepted as an
// alias for mul.
func ParseKernel(name string) (Kernel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "copy":
		return Copy, nil
	case "mul", "scale":
		return Mul, nil
	case "add":
		return Add, nil
	case "triad":
		return Triad, nil
	case "nstream":
		return Nstream, nil
	case "dot":
		return Dot, nil
	default:
		return 0, NewConfigurationError("ParseKernel",
			fmt.Sprintf("unknown kernel %q", name))
	}
}

// ParseKernels parses a comma-separated kernel list, preserving order.
func ParseKernels(list string) ([]Kernel, error) {
	var kernels []Kernel

	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}

		k, err := ParseKernel(name)
		if err != nil {
			return nil, err
		}

		kernels = append(kernels, k)
	}

	if len(kernels) == 0 {
		return nil, NewConfigurationError("ParseKernels",
			"kernel list is empty")
	}

	return kernels, nil
}

// Mode names a canonical kernel sequence.
type Mode string

const (
	ModeClassic Mode = "classic"
	ModeAll     Mode = "all"
	ModeTriad   Mode = "triad"
	ModeNstream Mode = "nstream"
)

// KnownModes returns the supported mode names.
func KnownModes() []Mode {
	return []Mode{ModeClassic, ModeAll, ModeTriad, ModeNstream}
}

// Kernels returns the sequence run once per repetition in this mode.
func (m Mode) Kernels() ([]Kernel, error) {
	switch Mode(strings.ToLower(string(m))) {
	case ModeClassic, "":
		return []Kernel{Copy, Mul, Add, Triad, Dot}, nil
	case ModeAll:
		return []Kernel{Copy, Mul, Add, Triad, Nstream, Dot}, nil
	case ModeTriad:
		return []Kernel{Triad}, nil
	case ModeNstream:
		return []Kernel{Nstream}, nil
	default:
		return nil, NewConfigurationError("Mode",
			fmt.Sprintf("unknown mode %q", string(m)))
	}
}

// DType selects the element type of a run.
type DType string

const (
	Float32 DType = "float32"
	Float64 DType = "float64"
)

// ParseDType accepts float32/float64 and the single/double aliases.
func ParseDType(s string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float32", "float", "single", "f32":
		return Float32, nil
	case "float64", "double", "f64", "":
		return Float64, nil
	default:
		return "", NewConfigurationError("ParseDType",
			fmt.Sprintf("unsupported dtype %q", s))
	}
}

// Size returns the element width in bytes, or 0 for an unknown dtype.
func (d DType) Size() int {
	switch d {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}
