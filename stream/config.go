package stream

import (
	"fmt"
)

// Defaults of a benchmark run.
const (
	DefaultArraySize = 1 << 25
	DefaultNumTimes  = 100

	// MinArraySize is the smallest array for which timings are treated as
	// bandwidth-bound rather than dominated by call overhead.
	MinArraySize = 1024

	StartA      = 0.1
	StartB      = 0.2
	StartC      = 0.0
	StartScalar = 0.4
)

// Config holds the parameters of one benchmark run.
type Config struct {
	ArraySize int      `json:"array_size"`
	NumTimes  int      `json:"num_times"`
	Device    int      `json:"device"`
	Kernels   []Kernel `json:"kernels"`
	DType     DType    `json:"dtype"`

	InitA  float64 `json:"init_a"`
	InitB  float64 `json:"init_b"`
	InitC  float64 `json:"init_c"`
	Scalar float64 `json:"scalar"`

	// AllowSmall permits arrays below MinArraySize, logged as a warning.
	AllowSmall bool `json:"allow_small"`
	// ToleranceScale multiplies the validation tolerance.
	ToleranceScale float64 `json:"tolerance_scale"`
}

// DefaultConfig returns the classic configuration over float64 arrays.
func DefaultConfig() Config {
	kernels, _ := ModeClassic.Kernels()

	return Config{
		ArraySize:      DefaultArraySize,
		NumTimes:       DefaultNumTimes,
		Kernels:        kernels,
		DType:          Float64,
		InitA:          StartA,
		InitB:          StartB,
		InitC:          StartC,
		Scalar:         StartScalar,
		ToleranceScale: 1,
	}
}

// Validate rejects configurations that cannot produce meaningful results.
func (c Config) Validate() error {
	if c.ArraySize < 1 {
		return NewConfigurationError("Validate",
			fmt.Sprintf("array size must be positive, got %d", c.ArraySize))
	}

	if c.ArraySize < MinArraySize && !c.AllowSmall {
		return NewConfigurationError("Validate",
			fmt.Sprintf("array size %d is below the minimum of %d elements",
				c.ArraySize, MinArraySize))
	}

	if c.NumTimes < 1 {
		return NewConfigurationError("Validate",
			fmt.Sprintf("num times must be at least 1, got %d", c.NumTimes))
	}

	if len(c.Kernels) == 0 {
		return NewConfigurationError("Validate", "no kernels selected")
	}

	for _, k := range c.Kernels {
		if k.Words() == 0 {
			return NewConfigurationError("Validate",
				"unknown kernel "+k.String())
		}
	}

	if c.DType.Size() == 0 {
		return NewConfigurationError("Validate",
			fmt.Sprintf("unsupported dtype %q", string(c.DType)))
	}

	if c.ToleranceScale <= 0 {
		return NewConfigurationError("Validate",
			"tolerance scale must be positive")
	}

	if c.Device < 0 {
		return NewConfigurationError("Validate",
			fmt.Sprintf("device index must not be negative, got %d", c.Device))
	}

	return nil
}

// Steps returns the number of kernel calls in the measured phase.
func (c Config) Steps() int {
	return c.NumTimes * len(c.Kernels)
}
