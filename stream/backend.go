package stream

// Backend is the kernel suite contract an execution target implements.
// The backend owns the array triple a, b, c of fixed length N. Every call
// is synchronous: it returns only once all N elements are updated or
// reduced, whatever parallelism the backend uses internally.
type Backend[T Element] interface {
	// InitArrays sets every element of a, b and c to initA, initB, initC.
	InitArrays(initA, initB, initC T) error
	// Copy computes c[i] = a[i].
	Copy() error
	// Mul computes b[i] = scalar * c[i].
	Mul() error
	// Add computes c[i] = a[i] + b[i].
	Add() error
	// Triad computes a[i] = b[i] + scalar * c[i].
	Triad() error
	// Nstream computes a[i] += b[i] + scalar * c[i].
	Nstream() error
	// Dot returns the sum of a[i] * b[i]. The summation order is
	// unspecified.
	Dot() (T, error)
	// ReadArrays copies the current contents of the triple into a, b, c,
	// each of which must have length N.
	ReadArrays(a, b, c []T) error
	// Close releases the array triple.
	Close() error
}

// Opener constructs a backend owning a fresh array triple of arraySize
// elements on the given device.
type Opener[T Element] func(arraySize, device int) (Backend[T], error)

// Device describes one execution target a backend can run on.
type Device struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Driver string `json:"driver"`
}

// DeviceLister enumerates devices. It is informational only and has no
// effect on measurement.
type DeviceLister interface {
	Devices() []Device
	DeviceName(index int) (string, error)
	DeviceDriver(index int) (string, error)
}

// invoke runs one steady-state kernel. dot receives the Dot result.
func invoke[T Element](b Backend[T], k Kernel, dot *T) error {
	switch k {
	case Copy:
		return b.Copy()
	case Mul:
		return b.Mul()
	case Add:
		return b.Add()
	case Triad:
		return b.Triad()
	case Nstream:
		return b.Nstream()
	case Dot:
		sum, err := b.Dot()
		if err != nil {
			return err
		}

		*dot = sum

		return nil
	default:
		return NewConfigurationError("invoke", "unknown kernel "+k.String())
	}
}
