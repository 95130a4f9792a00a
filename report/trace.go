package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/weiihann/streamoor/stream"
)

// Sample is one line of a trace: a single timed step of a run.
type Sample struct {
	Op        string `json:"op"`
	Backend   string `json:"backend"`
	Iteration int    `json:"iteration"`
	ElapsedNs int64  `json:"elapsed_ns"`
	Warmup    bool   `json:"warmup,omitempty"`
}

// TraceSummary contains statistics about a written trace.
type TraceSummary struct {
	TotalSamples  int
	KernelSamples int
	WarmupSamples int
}

// WriteTrace writes every timed step of the results to w as JSONL: the
// init step, each kernel invocation in execution order, then the read-back.
func WriteTrace(w io.Writer, results []stream.Result) (TraceSummary, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	var summary TraceSummary

	for _, r := range results {
		if err := enc.Encode(Sample{
			Op:        "init",
			Backend:   r.Backend,
			ElapsedNs: r.Init.Nanoseconds(),
		}); err != nil {
			return summary, fmt.Errorf("encode init: %w", err)
		}

		summary.TotalSamples++

		for _, rec := range r.Records {
			warmup := r.NumTimes > 1 && rec.Iteration == 0

			if err := enc.Encode(Sample{
				Op:        rec.Kernel.String(),
				Backend:   r.Backend,
				Iteration: rec.Iteration,
				ElapsedNs: rec.Elapsed.Nanoseconds(),
				Warmup:    warmup,
			}); err != nil {
				return summary, fmt.Errorf("encode %s: %w", rec.Kernel, err)
			}

			summary.TotalSamples++
			summary.KernelSamples++

			if warmup {
				summary.WarmupSamples++
			}
		}

		if err := enc.Encode(Sample{
			Op:        "read",
			Backend:   r.Backend,
			ElapsedNs: r.ReadBack.Nanoseconds(),
		}); err != nil {
			return summary, fmt.Errorf("encode read: %w", err)
		}

		summary.TotalSamples++
	}

	return summary, nil
}
