// Package report formats benchmark results into comparison tables.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/weiihann/streamoor/stream"
)

// Units selects decimal or binary megabytes for bandwidth figures.
type Units int

const (
	MegaBytes Units = iota
	MebiBytes
)

func (u Units) divisor() float64 {
	if u == MebiBytes {
		return 1 << 20
	}

	return 1e6
}

// Label returns the rate column heading.
func (u Units) Label() string {
	if u == MebiBytes {
		return "MiBytes/sec"
	}

	return "MBytes/sec"
}

func (u Units) csvColumn() string {
	if u == MebiBytes {
		return "max_mibytes_per_sec"
	}

	return "max_mbytes_per_sec"
}

// Generate writes a markdown report for the given results: the validation
// verdict, one kernel table per backend and, for several backends, a
// comparison on triad bandwidth.
func Generate(w io.Writer, results []stream.Result, units Units) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	if allPassed(results) {
		fmt.Fprintln(w, "Validation: **passed**")
	} else {
		fmt.Fprintln(w, "Validation: **INVALID**")

		for _, r := range results {
			if err := r.Err(); err != nil {
				fmt.Fprintf(w, "  - %s: %v\n", r.Backend, err)
			}
		}
	}

	fmt.Fprintln(w)

	// Deviation table.
	fmt.Fprintln(w, "| Backend | Verdict | Max rel dev a | Max rel dev b "+
		"| Max rel dev c | Dot rel dev |")
	fmt.Fprintln(w, "|---------|---------|---------------|---------------"+
		"|---------------|-------------|")

	for _, r := range results {
		devs := map[string]string{"a": "-", "b": "-", "c": "-"}
		for _, a := range r.Validation.Arrays {
			devs[a.Name] = formatDev(a.MaxRelDev)
		}

		dot := "-"
		if r.Validation.Dot != nil {
			dot = formatDev(r.Validation.Dot.RelDev)
		}

		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
			r.Backend, verdict(r), devs["a"], devs["b"], devs["c"], dot)
	}

	for _, r := range results {
		fmt.Fprintln(w)
		writeKernelTable(w, r, units)
	}

	if len(results) > 1 {
		fmt.Fprintln(w)
		writeComparison(w, results, units)
	}

	return nil
}

func writeKernelTable(w io.Writer, r stream.Result, units Units) {
	arrayBytes := uint64(r.ArraySize) * uint64(r.ElemSize)

	fmt.Fprintf(w, "### %s\n\n", r.Backend)

	if r.Device != "" {
		fmt.Fprintf(w, "Device: %s\n\n", r.Device)
	}

	fmt.Fprintf(w, "%s, %d elements, %s per array, %s total, %d times\n\n",
		r.DType, r.ArraySize, stream.FormatBytes(arrayBytes),
		stream.FormatBytes(3*arrayBytes), r.NumTimes)

	fmt.Fprintf(w, "Init: %s s (%s %s)  \n",
		formatSeconds(r.Init), formatRate(r.InitBandwidth(), units), units.Label())
	fmt.Fprintf(w, "Read: %s s (%s %s)\n\n",
		formatSeconds(r.ReadBack), formatRate(r.ReadBackBandwidth(), units), units.Label())

	fmt.Fprintf(w, "| Function | %s | GFLOP/s | Min (sec) | Max | Average |\n", units.Label())
	fmt.Fprintln(w, "|----------|------------|---------|-----------|-----|---------|")

	for _, k := range r.Kernels {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
			k.Kernel,
			formatRate(k.Bandwidth, units),
			formatFlops(k.FlopRate),
			formatSeconds(k.Min),
			formatSeconds(k.Max),
			formatSeconds(k.Avg),
		)
	}
}

func writeComparison(w io.Writer, results []stream.Result, units Units) {
	kernel := comparisonKernel(results)
	best := findBest(results, kernel)

	fmt.Fprintf(w, "### Comparison (%s)\n\n", kernel)
	fmt.Fprintf(w, "| Backend | %s | Relative |\n", units.Label())
	fmt.Fprintln(w, "|---------|------------|----------|")

	for _, r := range results {
		bw := bandwidthOf(r, kernel)

		if !r.Validation.Passed {
			fmt.Fprintf(w, "| %s | %s | INVALID |\n", r.Backend, formatRate(bw, units))

			continue
		}

		relative := 1.0
		if best > 0 {
			relative = bw / best
		}

		fmt.Fprintf(w, "| %s | %s | %.2fx |\n",
			r.Backend, formatRate(bw, units), relative)
	}
}

// GenerateCSV writes one row per backend and kernel. The valid column
// carries the backend's validation verdict.
func GenerateCSV(w io.Writer, results []stream.Result, units Units) error {
	cw := csv.NewWriter(w)

	header := []string{
		"backend", "function", "num_times", "n_elements", "sizeof",
		units.csvColumn(), "min_runtime", "max_runtime", "avg_runtime",
		"max_gflops_per_sec", "valid",
	}

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range results {
		for _, k := range r.Kernels {
			row := []string{
				r.Backend,
				k.Kernel.String(),
				strconv.Itoa(r.NumTimes),
				strconv.Itoa(r.ArraySize),
				strconv.Itoa(r.ElemSize),
				formatRate(k.Bandwidth, units),
				formatSeconds(k.Min),
				formatSeconds(k.Max),
				formatSeconds(k.Avg),
				fmt.Sprintf("%.3f", k.FlopRate/1e9),
				strconv.FormatBool(r.Validation.Passed),
			}

			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	cw.Flush()

	return cw.Error()
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []stream.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

func allPassed(results []stream.Result) bool {
	for _, r := range results {
		if !r.Validation.Passed {
			return false
		}
	}

	return true
}

func verdict(r stream.Result) string {
	if r.Validation.Passed {
		return "passed"
	}

	return "INVALID"
}

// comparisonKernel is triad when every result measured it, otherwise the
// first kernel of the first result.
func comparisonKernel(results []stream.Result) stream.Kernel {
	for _, r := range results {
		if bandwidthOf(r, stream.Triad) == 0 {
			if len(results[0].Kernels) > 0 {
				return results[0].Kernels[0].Kernel
			}

			break
		}
	}

	return stream.Triad
}

func bandwidthOf(r stream.Result, k stream.Kernel) float64 {
	for _, s := range r.Kernels {
		if s.Kernel == k {
			return s.Bandwidth
		}
	}

	return 0
}

// findBest returns the highest bandwidth of k among results that passed
// validation.
func findBest(results []stream.Result, k stream.Kernel) float64 {
	best := 0.0
	for _, r := range results {
		if r.Validation.Passed {
			best = max(best, bandwidthOf(r, k))
		}
	}

	return best
}

func formatRate(bytesPerSec float64, units Units) string {
	return fmt.Sprintf("%.3f", bytesPerSec/units.divisor())
}

// formatFlops renders a flop rate in GFLOP/s, "-" for kernels without
// arithmetic.
func formatFlops(flopsPerSec float64) string {
	if flopsPerSec == 0 {
		return "-"
	}

	return fmt.Sprintf("%.3f", flopsPerSec/1e9)
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.5f", d.Seconds())
}

func formatDev(dev float64) string {
	return fmt.Sprintf("%.2e", dev)
}
