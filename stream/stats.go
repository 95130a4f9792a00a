package stream

import (
	"fmt"
	"strings"
	"time"
)

// Record is one timed kernel invocation.
type Record struct {
	Kernel    Kernel        `json:"kernel"`
	Iteration int           `json:"iteration"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// KernelStats summarizes the measured invocations of one kernel.
type KernelStats struct {
	Kernel  Kernel        `json:"kernel"`
	Samples int           `json:"samples"`
	Min     time.Duration `json:"min_ns"`
	Max     time.Duration `json:"max_ns"`
	Avg     time.Duration `json:"avg_ns"`
	// Bytes and Flops are the traffic and work of a single invocation.
	Bytes int64 `json:"bytes"`
	Flops int64 `json:"flops"`
	// Bandwidth is the peak rate in bytes per second, taken at Min.
	Bandwidth    float64 `json:"bandwidth"`
	AvgBandwidth float64 `json:"avg_bandwidth"`
	// FlopRate is floating-point operations per second, taken at Min.
	FlopRate float64 `json:"flop_rate"`
}

// Summarize groups records by kernel, in the order kernels first appear,
// and computes per-kernel statistics. When the sequence repeats more than
// once the iteration-0 warm-up samples are dropped.
func Summarize(records []Record, numTimes, arraySize, elemSize int) []KernelStats {
	var order []Kernel

	byKernel := make(map[Kernel][]Record)

	for _, r := range records {
		if _, ok := byKernel[r.Kernel]; !ok {
			order = append(order, r.Kernel)
		}

		byKernel[r.Kernel] = append(byKernel[r.Kernel], r)
	}

	stats := make([]KernelStats, 0, len(order))

	for _, k := range order {
		stats = append(stats, summarizeKernel(k, byKernel[k], numTimes, arraySize, elemSize))
	}

	return stats
}

func summarizeKernel(k Kernel, rs []Record, numTimes, arraySize, elemSize int) KernelStats {
	samples := rs
	if numTimes > 1 {
		samples = make([]Record, 0, len(rs))
		for _, r := range rs {
			if r.Iteration != 0 {
				samples = append(samples, r)
			}
		}
	}

	st := KernelStats{
		Kernel:  k,
		Samples: len(samples),
		Bytes:   int64(k.Words()) * int64(elemSize) * int64(arraySize),
		Flops:   int64(k.Flops()) * int64(arraySize),
	}

	if len(samples) == 0 {
		return st
	}

	var total time.Duration

	st.Min = samples[0].Elapsed
	for _, r := range samples {
		st.Min = min(st.Min, r.Elapsed)
		st.Max = max(st.Max, r.Elapsed)
		total += r.Elapsed
	}

	st.Avg = total / time.Duration(len(samples))
	st.Bandwidth = rate(st.Bytes, st.Min)
	st.AvgBandwidth = rate(st.Bytes, st.Avg)
	st.FlopRate = rate(st.Flops, st.Min)

	return st
}

// rate returns amount per second over d. A zero duration, possible with a
// coarse clock on tiny arrays, reports zero rather than infinity.
func rate(amount int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}

	return float64(amount) / d.Seconds()
}

// FormatBytes renders a byte count with binary units, trimming a trailing
// ".0". Zero renders as "-".
func FormatBytes(b uint64) string {
	if b == 0 {
		return "-"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(b)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	formatted := fmt.Sprintf("%.1f", size)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " " + units[unit]
}
