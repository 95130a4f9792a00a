package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/weiihann/streamoor/stream"
)

// Registry collects the results as Prometheus gauges on a fresh registry.
func Registry(results []stream.Result) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	bandwidth := factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "streamoor_kernel_bandwidth_bytes_per_second",
		Help: "Peak kernel bandwidth, taken at the minimum runtime",
	}, []string{"backend", "dtype", "kernel"})

	runtime := factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "streamoor_kernel_runtime_seconds",
		Help: "Kernel runtime over the measured repetitions",
	}, []string{"backend", "dtype", "kernel", "stat"})

	flops := factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "streamoor_kernel_flops_per_second",
		Help: "Floating-point rate at the minimum runtime",
	}, []string{"backend", "dtype", "kernel"})

	passed := factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "streamoor_validation_passed",
		Help: "1 when the run's results matched their expected values",
	}, []string{"backend", "dtype"})

	arraySize := factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "streamoor_array_elements",
		Help: "Elements per array",
	}, []string{"backend", "dtype"})

	for _, r := range results {
		dtype := string(r.DType)

		ok := 0.0
		if r.Validation.Passed {
			ok = 1
		}

		passed.WithLabelValues(r.Backend, dtype).Set(ok)
		arraySize.WithLabelValues(r.Backend, dtype).Set(float64(r.ArraySize))

		for _, k := range r.Kernels {
			kernel := k.Kernel.String()

			bandwidth.WithLabelValues(r.Backend, dtype, kernel).Set(k.Bandwidth)
			flops.WithLabelValues(r.Backend, dtype, kernel).Set(k.FlopRate)
			runtime.WithLabelValues(r.Backend, dtype, kernel, "min").Set(k.Min.Seconds())
			runtime.WithLabelValues(r.Backend, dtype, kernel, "max").Set(k.Max.Seconds())
			runtime.WithLabelValues(r.Backend, dtype, kernel, "avg").Set(k.Avg.Seconds())
		}
	}

	return reg
}

// WriteMetrics writes the results to path in the Prometheus text format,
// for pickup by a node exporter textfile collector.
func WriteMetrics(path string, results []stream.Result) error {
	if err := prometheus.WriteToTextfile(path, Registry(results)); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}

	return nil
}
