package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Result is the outcome of one benchmark run on one backend.
type Result struct {
	Backend   string `json:"backend"`
	Device    string `json:"device,omitempty"`
	DType     DType  `json:"dtype"`
	ArraySize int    `json:"array_size"`
	NumTimes  int    `json:"num_times"`
	ElemSize  int    `json:"elem_size"`

	// Init and ReadBack are timed apart from the steady-state kernels.
	Init     time.Duration `json:"init_ns"`
	ReadBack time.Duration `json:"read_back_ns"`

	Kernels    []KernelStats `json:"kernels"`
	Records    []Record      `json:"-"`
	Validation Validation    `json:"validation"`
}

// Err returns the validation error of the run, or nil when it passed.
// Timings of a failed run must not be presented as trustworthy.
func (r *Result) Err() error {
	return r.Validation.Err()
}

// InitBandwidth returns the byte rate of the init step.
func (r *Result) InitBandwidth() float64 {
	return rate(int64(initWords)*int64(r.ElemSize)*int64(r.ArraySize), r.Init)
}

// ReadBackBandwidth returns the byte rate of the final read-back.
func (r *Result) ReadBackBandwidth() float64 {
	return rate(int64(initWords)*int64(r.ElemSize)*int64(r.ArraySize), r.ReadBack)
}

// Run executes the measurement protocol of cfg on a backend built by open.
// The configuration is validated before open is called. A failing kernel
// aborts the run without statistics. A validation failure does not: the
// result is returned with Validation.Passed unset.
func Run[T Element](
	ctx context.Context,
	logger *slog.Logger,
	cfg Config,
	open Opener[T],
) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	elemSize := SizeOf[T]()
	if elemSize != cfg.DType.Size() {
		return nil, NewConfigurationError("Run", fmt.Sprintf(
			"dtype %s does not match %d-byte elements", cfg.DType, elemSize))
	}

	if err := CheckRepresentable[T](cfg); err != nil {
		return nil, err
	}

	if cfg.ArraySize < MinArraySize {
		logger.WarnContext(ctx, "array is too small for bandwidth-bound timings",
			slog.Int("array_size", cfg.ArraySize),
			slog.Int("min_array_size", MinArraySize),
		)
	}

	backend, err := open(cfg.ArraySize, cfg.Device)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, err
		}

		return nil, NewAllocationError("Run", "open backend", err)
	}
	defer backend.Close()

	logger.InfoContext(ctx, "starting run",
		slog.Int("array_size", cfg.ArraySize),
		slog.Int("num_times", cfg.NumTimes),
		slog.String("dtype", string(cfg.DType)),
		slog.Any("kernels", cfg.Kernels),
	)

	res := &Result{
		DType:     cfg.DType,
		ArraySize: cfg.ArraySize,
		NumTimes:  cfg.NumTimes,
		ElemSize:  elemSize,
	}

	start := time.Now()
	if err := backend.InitArrays(T(cfg.InitA), T(cfg.InitB), T(cfg.InitC)); err != nil {
		return nil, NewKernelError("Run", "init arrays", err)
	}
	res.Init = time.Since(start)

	logger.InfoContext(ctx, "arrays initialized",
		slog.Duration("elapsed", res.Init),
	)

	res.Records = make([]Record, 0, cfg.Steps())

	var dot T

	for iter := 0; iter < cfg.NumTimes; iter++ {
		for _, k := range cfg.Kernels {
			start := time.Now()
			if err := invoke(backend, k, &dot); err != nil {
				return nil, NewKernelError("Run",
					fmt.Sprintf("%s at iteration %d", k, iter), err)
			}
			elapsed := time.Since(start)

			res.Records = append(res.Records, Record{
				Kernel:    k,
				Iteration: iter,
				Elapsed:   elapsed,
			})

			logger.DebugContext(ctx, "kernel finished",
				slog.String("kernel", k.String()),
				slog.Int("iteration", iter),
				slog.Duration("elapsed", elapsed),
			)
		}
	}

	a := make([]T, cfg.ArraySize)
	b := make([]T, cfg.ArraySize)
	c := make([]T, cfg.ArraySize)

	start = time.Now()
	if err := backend.ReadArrays(a, b, c); err != nil {
		return nil, NewKernelError("Run", "read arrays", err)
	}
	res.ReadBack = time.Since(start)

	res.Validation = Validate(cfg, a, b, c, dot)
	res.Kernels = Summarize(res.Records, cfg.NumTimes, cfg.ArraySize, elemSize)

	if res.Validation.Passed {
		logger.InfoContext(ctx, "validation passed")
	} else {
		logger.WarnContext(ctx, "validation failed, results are untrusted",
			slog.String("error", res.Err().Error()),
		)
	}

	return res, nil
}
