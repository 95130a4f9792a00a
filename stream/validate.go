package stream

import (
	"fmt"
	"math"
)

// Gold is the analytically expected state after a run. Every element of
// each array holds the same value because init is uniform and every kernel
// is elementwise.
type Gold[T Element] struct {
	A, B, C T
	// Sum is the expected Dot result, valid when HasDot is set.
	Sum    T
	HasDot bool
}

// Expected replays the configured kernel sequence NumTimes times on scalars.
// The recurrence runs in T so that it rounds the way the backend does.
func Expected[T Element](cfg Config) Gold[T] {
	a, b, c := T(cfg.InitA), T(cfg.InitB), T(cfg.InitC)
	scalar := T(cfg.Scalar)
	n := T(cfg.ArraySize)

	var g Gold[T]

	for r := 0; r < cfg.NumTimes; r++ {
		for _, k := range cfg.Kernels {
			switch k {
			case Copy:
				c = a
			case Mul:
				b = scalar * c
			case Add:
				c = a + b
			case Triad:
				a = b + scalar*c
			case Nstream:
				a += b + scalar*c
			case Dot:
				g.Sum = a * b * n
				g.HasDot = true
			}
		}
	}

	g.A, g.B, g.C = a, b, c

	return g
}

// CheckRepresentable returns a configuration error when the expected final
// state of cfg overflows T. No backend result could be validated against it.
func CheckRepresentable[T Element](cfg Config) error {
	gold := Expected[T](cfg)

	values := []struct {
		name string
		v    T
	}{{"a", gold.A}, {"b", gold.B}, {"c", gold.C}}
	if gold.HasDot {
		values = append(values, struct {
			name string
			v    T
		}{"dot", gold.Sum})
	}

	for _, x := range values {
		f := float64(x.v)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return NewConfigurationError("CheckRepresentable", fmt.Sprintf(
				"expected %s after %d repetitions is not representable in %s",
				x.name, cfg.NumTimes, cfg.DType))
		}
	}

	return nil
}

// Tolerance is the relative error allowed by the validator.
type Tolerance struct {
	Array float64 `json:"array"`
	Dot   float64 `json:"dot"`
}

// Epsilon returns the machine epsilon of T.
func Epsilon[T Element]() float64 {
	if SizeOf[T]() == 4 {
		return float64(math.Nextafter32(1, 2) - 1)
	}

	return math.Nextafter(1, 2) - 1
}

// maxDotTolerance caps the dot tolerance so that a reduction that drops or
// duplicates a partition is still caught at large N in low precision.
const maxDotTolerance = 1e-3

// ToleranceFor scales the relative tolerance with the precision of T, the
// number of kernel steps accumulating rounding error and, for dot, the
// number of summed terms.
func ToleranceFor[T Element](n, steps int, scale float64) Tolerance {
	eps := Epsilon[T]()
	array := scale * eps * (100 + 4*float64(steps))
	dot := scale * eps * (100 + 4*float64(steps) + float64(n)/2)

	return Tolerance{
		Array: array,
		Dot:   max(array, min(dot, scale*maxDotTolerance)),
	}
}

// ArrayCheck is the outcome of comparing one array against its gold value.
type ArrayCheck struct {
	Name      string  `json:"name"`
	Expected  float64 `json:"expected"`
	MaxAbsDev float64 `json:"max_abs_dev"`
	MaxRelDev float64 `json:"max_rel_dev"`
	// WorstIndex is the index of the largest deviation, -1 for none.
	WorstIndex int  `json:"worst_index"`
	Passed     bool `json:"passed"`
}

// DotCheck is the outcome of comparing the last Dot result.
type DotCheck struct {
	Expected float64 `json:"expected"`
	Observed float64 `json:"observed"`
	RelDev   float64 `json:"rel_dev"`
	Passed   bool    `json:"passed"`
}

// Validation is the verdict on a run's final state.
type Validation struct {
	Arrays    []ArrayCheck `json:"arrays"`
	Dot       *DotCheck    `json:"dot,omitempty"`
	Tolerance Tolerance    `json:"tolerance"`
	Passed    bool         `json:"passed"`
}

// Err returns a validation error describing the first failed check, or nil.
func (v Validation) Err() error {
	if v.Passed {
		return nil
	}

	for _, a := range v.Arrays {
		if !a.Passed {
			return NewValidationError("Validate", fmt.Sprintf(
				"array %s deviates from %g by %.3e relative at index %d "+
					"(tolerance %.3e)",
				a.Name, a.Expected, a.MaxRelDev, a.WorstIndex,
				v.Tolerance.Array))
		}
	}

	if v.Dot != nil && !v.Dot.Passed {
		return NewValidationError("Validate", fmt.Sprintf(
			"dot result %g deviates from %g by %.3e relative "+
				"(tolerance %.3e)",
			v.Dot.Observed, v.Dot.Expected, v.Dot.RelDev, v.Tolerance.Dot))
	}

	return NewValidationError("Validate", "results are untrusted")
}

// Validate compares the read-back arrays and last dot result against the
// expected state of cfg.
func Validate[T Element](cfg Config, a, b, c []T, dot T) Validation {
	gold := Expected[T](cfg)
	tol := ToleranceFor[T](cfg.ArraySize, cfg.Steps(), cfg.ToleranceScale)

	v := Validation{
		Arrays: []ArrayCheck{
			checkArray("a", a, gold.A, cfg.ArraySize, tol.Array),
			checkArray("b", b, gold.B, cfg.ArraySize, tol.Array),
			checkArray("c", c, gold.C, cfg.ArraySize, tol.Array),
		},
		Tolerance: tol,
		Passed:    true,
	}

	for _, check := range v.Arrays {
		if !check.Passed {
			v.Passed = false
		}
	}

	if gold.HasDot {
		exp, obs := float64(gold.Sum), float64(dot)
		rel := relDev(obs, exp)
		v.Dot = &DotCheck{
			Expected: exp,
			Observed: obs,
			RelDev:   rel,
			Passed:   withinTolerance(obs, exp, rel, tol.Dot),
		}

		if !v.Dot.Passed {
			v.Passed = false
		}
	}

	return v
}

func checkArray[T Element](name string, xs []T, gold T, n int, tol float64) ArrayCheck {
	exp := float64(gold)
	check := ArrayCheck{
		Name:       name,
		Expected:   exp,
		WorstIndex: -1,
		Passed:     len(xs) == n,
	}

	for i, x := range xs {
		obs := float64(x)
		rel := relDev(obs, exp)
		abs := math.Abs(obs - exp)
		if rel == math.MaxFloat64 {
			abs = math.MaxFloat64
		}

		if !withinTolerance(obs, exp, rel, tol) {
			check.Passed = false
		}

		if rel > check.MaxRelDev {
			check.MaxRelDev = rel
			check.MaxAbsDev = abs
			check.WorstIndex = i
		}
	}

	return check
}

// relDev is |obs-exp| relative to |exp|, falling back to absolute
// deviation when the expectation is zero. Non-finite observations report
// the largest finite deviation so results stay JSON encodable.
func relDev(obs, exp float64) float64 {
	if obs == exp {
		return 0
	}

	diff := math.Abs(obs - exp)
	if math.IsNaN(diff) || math.IsInf(diff, 0) {
		return math.MaxFloat64
	}
	if exp == 0 {
		return diff
	}

	return diff / math.Abs(exp)
}

func withinTolerance(obs, exp, rel, tol float64) bool {
	if math.IsNaN(obs) || math.IsInf(obs, 0) {
		return false
	}

	return obs == exp || rel <= tol
}
