package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/weiihann/streamoor/stream"
)

func passedValidation() stream.Validation {
	return stream.Validation{
		Arrays: []stream.ArrayCheck{
			{Name: "a", Expected: 1, Passed: true, WorstIndex: -1},
			{Name: "b", Expected: 2, Passed: true, WorstIndex: -1},
			{Name: "c", Expected: 3, Passed: true, WorstIndex: -1},
		},
		Passed: true,
	}
}

func sampleResult(backend string, triadBandwidth float64) stream.Result {
	return stream.Result{
		Backend:   backend,
		Device:    "test CPU, 8 threads",
		DType:     stream.Float64,
		ArraySize: 1 << 20,
		NumTimes:  10,
		ElemSize:  8,
		Init:      3 * time.Millisecond,
		ReadBack:  2 * time.Millisecond,
		Kernels: []stream.KernelStats{
			{
				Kernel:    stream.Copy,
				Samples:   9,
				Min:       time.Millisecond,
				Max:       2 * time.Millisecond,
				Avg:       1500 * time.Microsecond,
				Bandwidth: 4e9,
			},
			{
				Kernel:    stream.Triad,
				Samples:   9,
				Min:       2 * time.Millisecond,
				Max:       4 * time.Millisecond,
				Avg:       3 * time.Millisecond,
				Bandwidth: triadBandwidth,
				FlopRate:  1e9,
			},
		},
		Validation: passedValidation(),
	}
}

func TestGeneratePassed(t *testing.T) {
	results := []stream.Result{
		sampleResult("parallel", 2e9),
		sampleResult("serial", 1e9),
	}

	var buf bytes.Buffer
	if err := Generate(&buf, results, MegaBytes); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Validation: **passed**") {
		t.Error("expected passed verdict")
	}
	if !strings.Contains(output, "### parallel") || !strings.Contains(output, "### serial") {
		t.Error("expected a section per backend")
	}
	if !strings.Contains(output, "| triad | 2000.000 | 1.000 | 0.00200 | 0.00400 | 0.00300 |") {
		t.Errorf("expected triad row in MBytes/sec, got:\n%s", output)
	}
	if !strings.Contains(output, "| copy | 4000.000 | - | 0.00100 |") {
		t.Errorf("expected no flop rate for copy, got:\n%s", output)
	}
	if !strings.Contains(output, "8 MB per array, 24 MB total") {
		t.Error("expected array sizes")
	}
	if !strings.Contains(output, "### Comparison (triad)") {
		t.Error("expected triad comparison")
	}
	if !strings.Contains(output, "| serial | 1000.000 | 0.50x |") {
		t.Error("expected 0.50x for serial (half the bandwidth)")
	}
}

func TestGenerateInvalid(t *testing.T) {
	bad := sampleResult("gonum", 1e9)
	bad.Validation.Passed = false
	bad.Validation.Arrays[2].Passed = false
	bad.Validation.Arrays[2].MaxRelDev = 0.5
	bad.Validation.Arrays[2].WorstIndex = 17

	results := []stream.Result{sampleResult("parallel", 2e9), bad}

	var buf bytes.Buffer
	if err := Generate(&buf, results, MegaBytes); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Validation: **INVALID**") {
		t.Error("expected INVALID verdict")
	}
	if !strings.Contains(output, "  - gonum: ") {
		t.Error("expected failure detail for gonum")
	}
	if strings.Contains(output, "  - parallel: ") {
		t.Error("passing backend listed as failed")
	}
	if !strings.Contains(output, "| gonum | INVALID | 0.00e+00 | 0.00e+00 | 5.00e-01 | - |") {
		t.Errorf("expected deviation row, got:\n%s", output)
	}
}

func TestGenerateMebiBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, []stream.Result{sampleResult("serial", 2e9)}, MebiBytes); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "MiBytes/sec") {
		t.Error("expected MiBytes/sec heading")
	}
	if !strings.Contains(output, "| triad | 1907.349 |") {
		t.Error("expected triad rate in MiBytes/sec")
	}
	if strings.Contains(output, "Comparison") {
		t.Error("single result must not print a comparison")
	}
}

func TestGenerateComparisonWithoutTriad(t *testing.T) {
	a := sampleResult("parallel", 2e9)
	b := sampleResult("serial", 1e9)
	b.Kernels = b.Kernels[:1]

	var buf bytes.Buffer
	if err := Generate(&buf, []stream.Result{a, b}, MegaBytes); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !strings.Contains(buf.String(), "### Comparison (copy)") {
		t.Error("expected comparison on the first kernel when triad is missing")
	}
}

func TestGenerateComparisonSkipsInvalid(t *testing.T) {
	good := sampleResult("good", 1e9)
	fast := sampleResult("fast", 1e10)
	fast.Validation.Passed = false
	fast.Validation.Arrays[0].Passed = false

	var buf bytes.Buffer
	if err := Generate(&buf, []stream.Result{good, fast}, MegaBytes); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "| good | 1000.000 | 1.00x |") {
		t.Errorf("expected the passing backend as reference, got:\n%s", output)
	}
	if !strings.Contains(output, "| fast | 10000.000 | INVALID |") {
		t.Errorf("expected the failed backend marked INVALID, got:\n%s", output)
	}
	if strings.Contains(output, "0.10x") {
		t.Error("failed backend used as the comparison reference")
	}
}

func TestGenerateEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := Generate(&buf, nil, MegaBytes)
	if err == nil {
		t.Error("expected error for empty results")
	}
}

func TestGenerateCSV(t *testing.T) {
	results := []stream.Result{sampleResult("parallel", 2e9)}

	var buf bytes.Buffer
	if err := GenerateCSV(&buf, results, MegaBytes); err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}

	wantHeader := "backend,function,num_times,n_elements,sizeof," +
		"max_mbytes_per_sec,min_runtime,max_runtime,avg_runtime," +
		"max_gflops_per_sec,valid"
	if got := strings.Join(rows[0], ","); got != wantHeader {
		t.Errorf("header = %q, want %q", got, wantHeader)
	}

	wantTriad := "parallel,triad,10,1048576,8,2000.000,0.00200,0.00400,0.00300,1.000,true"
	if got := strings.Join(rows[2], ","); got != wantTriad {
		t.Errorf("triad row = %q, want %q", got, wantTriad)
	}
}

func TestGenerateCSVMarksInvalid(t *testing.T) {
	bad := sampleResult("gonum", 1e10)
	bad.Validation.Passed = false

	results := []stream.Result{sampleResult("parallel", 2e9), bad}

	var buf bytes.Buffer
	if err := GenerateCSV(&buf, results, MegaBytes); err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(rows) != 5 {
		t.Fatalf("expected header and 4 rows, got %d", len(rows))
	}

	for _, row := range rows[1:] {
		valid := row[len(row)-1]
		want := strconv.FormatBool(row[0] == "parallel")
		if valid != want {
			t.Errorf("%s %s valid = %q, want %q", row[0], row[1], valid, want)
		}
	}
}

func TestGenerateCSVMebiBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateCSV(&buf, nil, MebiBytes); err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	if !strings.Contains(buf.String(), "max_mibytes_per_sec") {
		t.Error("expected binary units column")
	}
}

func TestGenerateJSON(t *testing.T) {
	results := []stream.Result{sampleResult("parallel", 2e9)}

	var buf bytes.Buffer
	if err := GenerateJSON(&buf, results); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	var parsed []stream.Result
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if len(parsed) != 1 {
		t.Fatalf("expected 1 result, got %d", len(parsed))
	}
	if parsed[0].Backend != "parallel" {
		t.Errorf("backend = %q, want parallel", parsed[0].Backend)
	}
	if parsed[0].Kernels[1].Kernel != stream.Triad {
		t.Errorf("kernel = %v, want triad", parsed[0].Kernels[1].Kernel)
	}
	if !parsed[0].Validation.Passed {
		t.Error("validation verdict lost in JSON")
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{0, "0.00000"},
		{10 * time.Microsecond, "0.00001"},
		{1500 * time.Microsecond, "0.00150"},
		{2 * time.Second, "2.00000"},
	}

	for _, tt := range tests {
		got := formatSeconds(tt.input)
		if got != tt.want {
			t.Errorf("formatSeconds(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
