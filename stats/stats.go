// Package stats provides the small statistics toolkit that usually sits
// next to a catalog reader: galaxy stellar mass functions with
// astronomy-standard bin-width rules, and quick descriptive summaries.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoData is returned when a computation receives no usable values.
var ErrNoData = errors.New("stats: no data")

// BinRule selects an automatic bin-width rule.
type BinRule int

const (
	// BinRuleScott uses Scott's rule: width = 3.5*sigma/n^(1/3).
	BinRuleScott BinRule = iota
	// BinRuleFreedmanDiaconis uses the Freedman-Diaconis rule:
	// width = 2*IQR/n^(1/3). More robust to outliers than Scott's.
	BinRuleFreedmanDiaconis
)

// MassFunctionOptions controls MassFunction binning.
type MassFunctionOptions struct {
	// Bins fixes the bin count directly. Zero selects Rule instead.
	Bins int

	// Rule picks the automatic bin width when Bins is zero.
	Rule BinRule

	// Range restricts the histogram (and, for rule-based binning, the
	// width estimation) to [Range[0], Range[1]]. Nil uses the data range.
	Range *[2]float64

	// PoissonUncert also computes per-bin Poisson uncertainties.
	PoissonUncert bool
}

// MassFunctionResult is a binned number density: Phi[i] is the count in
// bin i divided by (volume * bin width).
type MassFunctionResult struct {
	Centers []float64
	Phi     []float64
	// Uncert holds Poisson uncertainties in the same units as Phi; nil
	// unless requested.
	Uncert []float64
	Edges  []float64
}

// MassFunction bins masses (conventionally log10 M) into a number density
// per unit volume per unit bin width.
func MassFunction(masses []float64, volume float64, opts MassFunctionOptions) (*MassFunctionResult, error) {
	if volume <= 0 {
		return nil, fmt.Errorf("stats: volume must be positive, got %g", volume)
	}

	data := make([]float64, 0, len(masses))
	for _, m := range masses {
		if opts.Range != nil && (m < opts.Range[0] || m > opts.Range[1]) {
			continue
		}
		data = append(data, m)
	}
	if len(data) == 0 {
		return nil, ErrNoData
	}

	lo, hi := floats.Min(data), floats.Max(data)
	if opts.Range != nil {
		lo, hi = opts.Range[0], opts.Range[1]
	}

	nbins := opts.Bins
	if nbins <= 0 {
		width, err := binWidth(data, opts.Rule)
		if err != nil {
			return nil, err
		}
		nbins = int(math.Ceil((hi - lo) / width))
		if nbins < 1 {
			nbins = 1
		}
	}
	if hi == lo {
		// Degenerate data: a single bin of unit width around the value.
		lo, hi = lo-0.5, hi+0.5
	}

	edges := make([]float64, nbins+1)
	floats.Span(edges, lo, hi)
	width := edges[1] - edges[0]

	counts := make([]float64, nbins)
	for _, m := range data {
		i := int((m - lo) / width)
		// The final edge is closed, matching the usual histogram
		// convention.
		if i == nbins {
			i--
		}
		if i >= 0 && i < nbins {
			counts[i]++
		}
	}

	centers, _ := EdgesToCenters(edges)
	res := &MassFunctionResult{
		Centers: centers,
		Phi:     make([]float64, nbins),
		Edges:   edges,
	}
	norm := volume * width
	for i, c := range counts {
		res.Phi[i] = c / norm
	}
	if opts.PoissonUncert {
		res.Uncert = make([]float64, nbins)
		for i, c := range counts {
			res.Uncert[i] = math.Sqrt(c) / norm
		}
	}
	return res, nil
}

// binWidth computes the rule-based histogram bin width.
func binWidth(data []float64, rule BinRule) (float64, error) {
	n := float64(len(data))
	cube := math.Cbrt(n)

	switch rule {
	case BinRuleScott:
		sigma := stat.StdDev(data, nil)
		if sigma == 0 {
			return 0, fmt.Errorf("%w: zero variance, cannot apply Scott's rule", ErrNoData)
		}
		return 3.5 * sigma / cube, nil
	case BinRuleFreedmanDiaconis:
		sorted := make([]float64, len(data))
		copy(sorted, data)
		sort.Float64s(sorted)
		iqr := stat.Quantile(0.75, stat.Empirical, sorted, nil) - stat.Quantile(0.25, stat.Empirical, sorted, nil)
		if iqr == 0 {
			return 0, fmt.Errorf("%w: zero interquartile range, cannot apply Freedman-Diaconis rule", ErrNoData)
		}
		return 2 * iqr / cube, nil
	default:
		return 0, fmt.Errorf("stats: unknown bin rule %d", rule)
	}
}

// EdgesToCenters converts evenly spaced bin edges to centers, also
// returning the bin width.
func EdgesToCenters(edges []float64) ([]float64, float64) {
	if len(edges) < 2 {
		return nil, 0
	}
	width := edges[1] - edges[0]
	centers := make([]float64, len(edges)-1)
	for i := range centers {
		centers[i] = edges[i] + width/2
	}
	return centers, width
}

// Summary holds descriptive statistics of a sample.
type Summary struct {
	N        int
	Min      float64
	Max      float64
	Mean     float64
	Variance float64 // unbiased
	Skewness float64
	Kurtosis float64 // excess kurtosis
}

// Describe computes a descriptive summary of arr.
func Describe(arr []float64) (Summary, error) {
	if len(arr) == 0 {
		return Summary{}, ErrNoData
	}
	return Summary{
		N:        len(arr),
		Min:      floats.Min(arr),
		Max:      floats.Max(arr),
		Mean:     stat.Mean(arr, nil),
		Variance: stat.Variance(arr, nil),
		Skewness: stat.Skew(arr, nil),
		Kurtosis: stat.ExKurtosis(arr, nil),
	}, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d min=%g max=%g mean=%g var=%g skew=%g kurt=%g",
		s.N, s.Min, s.Max, s.Mean, s.Variance, s.Skewness, s.Kurtosis)
}
