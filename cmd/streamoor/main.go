// Package main provides the CLI entry point for streamoor, a memory
// bandwidth benchmark for Go execution backends.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/weiihann/streamoor/backend"
	"github.com/weiihann/streamoor/config"
	"github.com/weiihann/streamoor/report"
	"github.com/weiihann/streamoor/stream"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	root := newRootCmd(logger, level)
	if err := root.Execute(); err != nil {
		logger.Error("streamoor failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "streamoor",
		Short: "Sustained memory bandwidth benchmark",
		Long: `Streamoor measures sustained memory bandwidth by timing the copy,
mul, add, triad, nstream and dot kernels over three large arrays, and
verifies every backend's results against their analytic expectation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Log every kernel invocation")

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newDevicesCmd())

	return root
}

type runFlags struct {
	configPath string
	arraySize  int
	numTimes   int
	device     int
	dtype      string
	float      bool
	mode       string
	kernels    []string
	backends   []string
	workers    int
	allowSmall bool
	csv        bool
	json       bool
	mibibytes  bool
	trace      string
	metrics    string
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var fl runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bandwidth benchmark on one or more backends",
		Long: `Run the kernel sequence NUM_TIMES times on each backend, validate
the final array contents, and report per-kernel bandwidth. Settings come
from --config, then STREAMOOR_* environment variables, then flags.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := config.Load(fl.configPath)
			if err != nil {
				return err
			}

			applyFlags(cmd, &f, fl)

			return runBenchmark(cmd.Context(), logger, cmd.OutOrStdout(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&fl.configPath, "config", "",
		"Path to a YAML or JSON config file")
	flags.IntVarP(&fl.arraySize, "arraysize", "s", stream.DefaultArraySize,
		"Number of elements per array")
	flags.IntVarP(&fl.numTimes, "numtimes", "n", stream.DefaultNumTimes,
		"Number of repetitions of the kernel sequence")
	flags.IntVar(&fl.device, "device", 0,
		"Device index")
	flags.StringVar(&fl.dtype, "dtype", string(stream.Float64),
		"Element type: float32, float64")
	flags.BoolVar(&fl.float, "float", false,
		"Use float32 elements (shorthand for --dtype float32)")
	flags.StringVar(&fl.mode, "mode", string(stream.ModeClassic),
		"Kernel sequence: classic, all, triad, nstream")
	flags.StringSliceVar(&fl.kernels, "kernels", nil,
		"Explicit kernel sequence, overriding --mode (e.g. copy,triad,dot)")
	flags.StringSliceVar(&fl.backends, "backends", nil,
		"Backends to benchmark (parallel, serial, gonum)")
	flags.IntVar(&fl.workers, "workers", 0,
		"Goroutines of the parallel backend (0 = GOMAXPROCS)")
	flags.BoolVar(&fl.allowSmall, "allow-small", false,
		fmt.Sprintf("Allow arrays below %d elements", stream.MinArraySize))
	flags.BoolVar(&fl.csv, "csv", false,
		"Output results as CSV instead of table")
	flags.BoolVar(&fl.json, "json", false,
		"Output results as JSON instead of table")
	flags.BoolVar(&fl.mibibytes, "mibibytes", false,
		"Report bandwidth in MiB/s instead of MB/s")
	flags.StringVar(&fl.trace, "trace", "",
		"Write every timed sample to this JSONL file")
	flags.StringVar(&fl.metrics, "metrics", "",
		"Write results to this Prometheus textfile")

	cmd.MarkFlagsMutuallyExclusive("csv", "json")
	cmd.MarkFlagsMutuallyExclusive("float", "dtype")

	return cmd
}

// applyFlags overrides file and environment values with the flags the user
// set explicitly.
func applyFlags(cmd *cobra.Command, f *config.File, fl runFlags) {
	changed := cmd.Flags().Changed

	if changed("arraysize") {
		f.ArraySize = fl.arraySize
	}
	if changed("numtimes") {
		f.NumTimes = fl.numTimes
	}
	if changed("device") {
		f.Device = fl.device
	}
	if changed("dtype") {
		f.DType = fl.dtype
	}
	if changed("float") && fl.float {
		f.DType = string(stream.Float32)
	}
	if changed("mode") {
		f.Mode = fl.mode
		f.Kernels = nil
	}
	if changed("kernels") {
		f.Kernels = fl.kernels
	}
	if changed("backends") {
		f.Backends = fl.backends
	}
	if changed("workers") {
		f.Workers = fl.workers
	}
	if changed("allow-small") {
		f.AllowSmall = fl.allowSmall
	}
	if changed("csv") && fl.csv {
		f.Output.Format = config.FormatCSV
	}
	if changed("json") && fl.json {
		f.Output.Format = config.FormatJSON
	}
	if changed("mibibytes") {
		f.Output.MiBiBytes = fl.mibibytes
	}
	if changed("trace") {
		f.Output.Trace = fl.trace
	}
	if changed("metrics") {
		f.Output.Metrics = fl.metrics
	}
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	out io.Writer,
	f config.File,
) error {
	cfg, backends, err := f.Resolve()
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.Int("array_size", cfg.ArraySize),
		slog.Int("num_times", cfg.NumTimes),
		slog.String("dtype", string(cfg.DType)),
		slog.Any("kernels", cfg.Kernels),
		slog.Any("backends", backends),
	)

	opts := backend.Options{
		Scalar:  cfg.Scalar,
		Workers: f.Workers,
		Logger:  logger,
	}

	var results []stream.Result

	switch cfg.DType {
	case stream.Float32:
		results, err = runBackends[float32](ctx, logger, cfg, backends, opts)
	case stream.Float64:
		results, err = runBackends[float64](ctx, logger, cfg, backends, opts)
	default:
		err = stream.NewConfigurationError("run",
			fmt.Sprintf("unsupported dtype %q", string(cfg.DType)))
	}

	if err != nil {
		return err
	}

	if f.Output.Trace != "" {
		if err := writeTrace(ctx, logger, f.Output.Trace, results); err != nil {
			return fmt.Errorf("write trace: %w", err)
		}
	}

	if f.Output.Metrics != "" {
		if err := report.WriteMetrics(f.Output.Metrics, results); err != nil {
			return err
		}

		logger.InfoContext(ctx, "metrics written", slog.String("path", f.Output.Metrics))
	}

	units := report.MegaBytes
	if f.Output.MiBiBytes {
		units = report.MebiBytes
	}

	switch f.Output.Format {
	case config.FormatCSV:
		err = report.GenerateCSV(out, results, units)
	case config.FormatJSON:
		err = report.GenerateJSON(out, results)
	default:
		err = report.Generate(out, results, units)
	}

	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	var invalid []error

	for i := range results {
		if err := results[i].Err(); err != nil {
			invalid = append(invalid, fmt.Errorf("%s: %w", results[i].Backend, err))
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("results failed validation: %w", errors.Join(invalid...))
	}

	logger.InfoContext(ctx, "benchmark complete")

	return nil
}

// runBackends benchmarks each backend in turn. Backends run sequentially so
// that no two compete for memory bandwidth.
func runBackends[T stream.Element](
	ctx context.Context,
	logger *slog.Logger,
	cfg stream.Config,
	backends []string,
	opts backend.Options,
) ([]stream.Result, error) {
	results := make([]stream.Result, 0, len(backends))

	for _, name := range backends {
		backendLogger := logger.With(slog.String("backend", name))
		opts.Logger = backendLogger

		open, err := backend.Open[T](name, opts)
		if err != nil {
			return nil, err
		}

		lister, err := backend.Describe(name)
		if err != nil {
			return nil, err
		}

		device, err := lister.DeviceName(cfg.Device)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", name, err)
		}

		backendLogger.InfoContext(ctx, "running backend", slog.String("device", device))

		result, err := stream.Run(ctx, backendLogger, cfg, open)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", name, err)
		}

		result.Backend = name
		result.Device = device

		results = append(results, *result)
	}

	return results, nil
}

func writeTrace(
	ctx context.Context,
	logger *slog.Logger,
	path string,
	results []stream.Result,
) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}

	summary, err := report.WriteTrace(file, results)
	if err != nil {
		file.Close()

		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close trace file: %w", err)
	}

	logger.InfoContext(ctx, "trace written",
		slog.String("path", path),
		slog.Int("samples", summary.TotalSamples),
		slog.Int("warmup_samples", summary.WarmupSamples),
	)

	return nil
}

func newDevicesCmd() *cobra.Command {
	var (
		backends []string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the devices each backend can run on",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(backends) == 0 {
				backends = backend.KnownBackends()
			}

			return listDevices(cmd.OutOrStdout(), backends, asJSON)
		},
	}

	cmd.Flags().StringSliceVar(&backends, "backends", nil,
		"Backends to describe (default: all)")
	cmd.Flags().BoolVar(&asJSON, "json", false,
		"Output devices as JSON")

	return cmd
}

func listDevices(w io.Writer, backends []string, asJSON bool) error {
	listing := make(map[string][]stream.Device, len(backends))

	for _, name := range backends {
		lister, err := backend.Describe(name)
		if err != nil {
			return err
		}

		listing[name] = lister.Devices()
	}

	if asJSON {
		return writeJSON(w, listing)
	}

	for _, name := range backends {
		fmt.Fprintf(w, "%s:\n", name)

		for _, d := range listing[name] {
			fmt.Fprintf(w, "  %d: %s\n     driver: %s\n", d.Index, d.Name, d.Driver)
		}
	}

	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
