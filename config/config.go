// Package config loads benchmark settings from a YAML or JSON file and the
// environment, and resolves them into a stream.Config.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/weiihann/streamoor/backend"
	"github.com/weiihann/streamoor/stream"
)

// Output formats.
const (
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STREAMOOR_"

// File is the on-disk benchmark configuration.
type File struct {
	ArraySize      int      `json:"array_size" yaml:"array_size"`
	NumTimes       int      `json:"num_times" yaml:"num_times"`
	Device         int      `json:"device" yaml:"device"`
	DType          string   `json:"dtype" yaml:"dtype"`
	Mode           string   `json:"mode" yaml:"mode"`
	Kernels        []string `json:"kernels" yaml:"kernels"`
	Backends       []string `json:"backends" yaml:"backends"`
	Workers        int      `json:"workers" yaml:"workers"`
	AllowSmall     bool     `json:"allow_small" yaml:"allow_small"`
	ToleranceScale float64  `json:"tolerance_scale" yaml:"tolerance_scale"`
	Output         Output   `json:"output" yaml:"output"`
}

// Output controls how results are written.
type Output struct {
	Format    string `json:"format" yaml:"format"`
	MiBiBytes bool   `json:"mibibytes" yaml:"mibibytes"`
	// Trace, when set, names a JSONL file receiving every timed sample.
	Trace string `json:"trace" yaml:"trace"`
	// Metrics, when set, names a Prometheus textfile receiving the results.
	Metrics string `json:"metrics" yaml:"metrics"`
}

// Default returns the classic float64 run on the parallel backend.
func Default() File {
	return File{
		ArraySize:      stream.DefaultArraySize,
		NumTimes:       stream.DefaultNumTimes,
		DType:          string(stream.Float64),
		Mode:           string(stream.ModeClassic),
		Backends:       []string{backend.Parallel},
		ToleranceScale: 1,
		Output: Output{
			Format: FormatMarkdown,
		},
	}
}

// Load reads configuration with priority env > file > defaults. An empty
// path or a missing file yields the defaults. Values are checked by
// Resolve, after any command-line overrides.
func Load(path string) (File, error) {
	f := Default()

	if path != "" {
		if err := loadFile(path, &f); err != nil {
			return f, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadEnv(&f); err != nil {
		return f, fmt.Errorf("load config env: %w", err)
	}

	return f, nil
}

func loadFile(path string, f *File) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	if err := yaml.Unmarshal(data, f); err != nil {
		if jsonErr := json.Unmarshal(data, f); jsonErr != nil {
			return fmt.Errorf("parse %s (tried YAML and JSON): YAML error: %v, JSON error: %w",
				path, err, jsonErr)
		}
	}

	return nil
}

// loadEnv applies STREAMOOR_* overrides. Malformed values are reported
// rather than ignored.
func loadEnv(f *File) error {
	var errs []error

	intVar := func(key string, dst *int) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))

				return
			}

			*dst = i
		}
	}

	floatVar := func(key string, dst *float64) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))

				return
			}

			*dst = x
		}
	}

	boolVar := func(key string, dst *bool) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))

				return
			}

			*dst = b
		}
	}

	stringVar := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	listVar := func(key string, dst *[]string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = SplitList(v)
		}
	}

	intVar("ARRAY_SIZE", &f.ArraySize)
	intVar("NUM_TIMES", &f.NumTimes)
	intVar("DEVICE", &f.Device)
	intVar("WORKERS", &f.Workers)
	stringVar("DTYPE", &f.DType)
	stringVar("MODE", &f.Mode)
	listVar("KERNELS", &f.Kernels)
	listVar("BACKENDS", &f.Backends)
	boolVar("ALLOW_SMALL", &f.AllowSmall)
	floatVar("TOLERANCE_SCALE", &f.ToleranceScale)
	stringVar("OUTPUT_FORMAT", &f.Output.Format)
	boolVar("MIBIBYTES", &f.Output.MiBiBytes)
	stringVar("TRACE", &f.Output.Trace)
	stringVar("METRICS", &f.Output.Metrics)

	return errors.Join(errs...)
}

// SplitList splits a comma-separated list, dropping blank entries.
func SplitList(s string) []string {
	var out []string

	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

// Resolve turns the file into the run configuration and the ordered list of
// backends to benchmark. An explicit kernel list takes precedence over the
// mode.
func (f File) Resolve() (stream.Config, []string, error) {
	cfg := stream.DefaultConfig()

	dtype, err := stream.ParseDType(f.DType)
	if err != nil {
		return cfg, nil, err
	}

	var kernels []stream.Kernel
	if len(f.Kernels) > 0 {
		kernels, err = stream.ParseKernels(strings.Join(f.Kernels, ","))
	} else {
		kernels, err = stream.Mode(f.Mode).Kernels()
	}

	if err != nil {
		return cfg, nil, err
	}

	cfg.ArraySize = f.ArraySize
	cfg.NumTimes = f.NumTimes
	cfg.Device = f.Device
	cfg.DType = dtype
	cfg.Kernels = kernels
	cfg.AllowSmall = f.AllowSmall
	cfg.ToleranceScale = f.ToleranceScale

	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	backends, err := f.backends()
	if err != nil {
		return cfg, nil, err
	}

	if f.Workers < 0 {
		return cfg, nil, stream.NewConfigurationError("Resolve",
			fmt.Sprintf("workers must be >= 0, got %d", f.Workers))
	}

	switch f.Output.Format {
	case FormatMarkdown, FormatCSV, FormatJSON:
	default:
		return cfg, nil, stream.NewConfigurationError("Resolve",
			fmt.Sprintf("unknown output format %q", f.Output.Format))
	}

	return cfg, backends, nil
}

func (f File) backends() ([]string, error) {
	if len(f.Backends) == 0 {
		return nil, stream.NewConfigurationError("Resolve",
			"at least one backend must be specified")
	}

	known := backend.KnownBackends()
	out := make([]string, 0, len(f.Backends))

	for _, name := range f.Backends {
		name = strings.ToLower(strings.TrimSpace(name))
		if !slices.Contains(known, name) {
			return nil, stream.NewConfigurationError("Resolve",
				fmt.Sprintf("unknown backend %q (known: %s)",
					name, strings.Join(known, ", ")))
		}

		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}

	return out, nil
}
