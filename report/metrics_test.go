package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/weiihann/streamoor/stream"
)

func TestRegistry(t *testing.T) {
	bad := sampleResult("serial", 1e9)
	bad.Validation.Passed = false

	reg := Registry([]stream.Result{sampleResult("parallel", 2e9), bad})

	count, err := testutil.GatherAndCount(reg, "streamoor_kernel_bandwidth_bytes_per_second")
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	// Two kernels on two backends.
	if count != 4 {
		t.Errorf("bandwidth series = %d, want 4", count)
	}

	expected := `
# HELP streamoor_validation_passed 1 when the run's results matched their expected values
# TYPE streamoor_validation_passed gauge
streamoor_validation_passed{backend="parallel",dtype="float64"} 1
streamoor_validation_passed{backend="serial",dtype="float64"} 0
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"streamoor_validation_passed"); err != nil {
		t.Errorf("unexpected validation gauges: %v", err)
	}
}

func TestWriteMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streamoor.prom")

	if err := WriteMetrics(path, []stream.Result{sampleResult("gonum", 2e9)}); err != nil {
		t.Fatalf("WriteMetrics failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}

	output := string(data)

	want := `streamoor_kernel_runtime_seconds{backend="gonum",dtype="float64",kernel="triad",stat="min"} 0.002`
	if !strings.Contains(output, want) {
		t.Errorf("expected %q in:\n%s", want, output)
	}
	if !strings.Contains(output, `streamoor_array_elements{backend="gonum",dtype="float64"} 1.048576e+06`) {
		t.Errorf("expected array size gauge in:\n%s", output)
	}
}
