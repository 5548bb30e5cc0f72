package stats

import (
	"errors"
	"math"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerate is returned when a sample set has too few points or no
// variance, so an interval, test or fit is undefined. The accompanying
// value carries infinities or NaN instead of a division by zero.
var ErrDegenerate = errors.New("degenerate statistics")

// Confidence is the confidence level, in percent, of every interval here.
const Confidence = 95

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// StdDev is the sample (n-1) standard deviation.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return math.Sqrt(stat.Variance(xs, nil))
}

func StdErr(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return StdDev(xs) / math.Sqrt(float64(len(xs)))
}

// CI95 is the 95% confidence interval of the mean. With fewer than two
// samples it is unbounded; with zero variance it collapses to the mean.
// Both cases also return ErrDegenerate.
func CI95(xs []float64) (low, high float64, err error) {
	n := len(xs)
	if n < 2 {
		return math.Inf(-1), math.Inf(1), ErrDegenerate
	}
	m := Mean(xs)
	se := StdErr(xs)
	if se == 0 {
		return m, m, ErrDegenerate
	}
	half := critical(Confidence, n) * se
	return m - half, m + half, nil
}

// TTest is the result of a two-sample test.
type TTest struct {
	T  float64
	DF float64
	P  float64
}

// WelchTTest compares the means of a and b without assuming equal
// variances. P is two-sided.
func WelchTTest(a, b []float64) (TTest, error) {
	na, nb := float64(len(a)), float64(len(b))
	if len(a) < 2 || len(b) < 2 {
		return TTest{T: math.NaN(), DF: math.NaN(), P: math.NaN()}, ErrDegenerate
	}
	va := stat.Variance(a, nil) / na
	vb := stat.Variance(b, nil) / nb
	diff := Mean(a) - Mean(b)
	se := math.Sqrt(va + vb)
	if se == 0 {
		if diff == 0 {
			return TTest{T: math.NaN(), DF: math.NaN(), P: math.NaN()}, ErrDegenerate
		}
		return TTest{T: math.Copysign(math.Inf(1), diff), DF: math.Inf(1), P: 0}, ErrDegenerate
	}
	t := diff / se
	df := (va + vb) * (va + vb) / (va*va/(na-1) + vb*vb/(nb-1))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return TTest{T: t, DF: df, P: 2 * dist.Survival(math.Abs(t))}, nil
}

// Proportion is k/n, or zero for an empty sample.
func Proportion(k, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(k) / float64(n)
}

// Bin is one fan value of a histogram.
type Bin struct {
	Fan       int     `json:"fan" yaml:"fan"`
	Count     int     `json:"count" yaml:"count"`
	Frequency float64 `json:"frequency" yaml:"frequency"`
}

// Histogram is sorted by fan.
type Histogram []Bin

// FanHistogram counts how often each fan value occurs.
func FanHistogram(fans []int) Histogram {
	if len(fans) == 0 {
		return nil
	}
	counts := lo.CountValues(fans)
	keys := lo.Keys(counts)
	slices.Sort(keys)
	return lo.Map(keys, func(f int, _ int) Bin {
		return Bin{Fan: f, Count: counts[f], Frequency: Proportion(counts[f], len(fans))}
	})
}

// Total is the number of samples in h.
func (h Histogram) Total() int {
	return lo.SumBy(h, func(b Bin) int { return b.Count })
}

// Values expands h back into float samples, for plotting.
func (h Histogram) Values() []float64 {
	out := make([]float64, 0, h.Total())
	for _, b := range h {
		for range b.Count {
			out = append(out, float64(b.Fan))
		}
	}
	return out
}

// Regression is an ordinary least squares fit y = Intercept + Slope*x.
type Regression struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// LinearRegression fits y on x. It needs at least two points with distinct
// x; a flat y gives an exact fit whose R^2 is reported as NaN.
func LinearRegression(x, y []float64) (Regression, error) {
	if len(x) != len(y) || len(x) < 2 || StdDev(x) == 0 {
		return Regression{Slope: math.NaN(), Intercept: math.NaN(), RSquared: math.NaN()}, ErrDegenerate
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if StdDev(y) == 0 {
		return Regression{Slope: beta, Intercept: alpha, RSquared: math.NaN()}, ErrDegenerate
	}
	return Regression{Slope: beta, Intercept: alpha, RSquared: stat.RSquared(x, y, nil, alpha, beta)}, nil
}

// AggregateStats is the summary handed to experiment drivers. Fields that
// a given reduction does not compute stay zero: TStatistic and PValue are
// set by a comparison, the regression fields by a sweep.
type AggregateStats struct {
	N      int     `yaml:"n"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std_dev"`
	StdErr float64 `yaml:"std_err"`
	CILow  float64 `yaml:"ci_low"`
	CIHigh float64 `yaml:"ci_high"`

	TStatistic float64 `yaml:"t_statistic,omitempty"`
	PValue     float64 `yaml:"p_value,omitempty"`

	WinRate    float64 `yaml:"win_rate"`
	DealInRate float64 `yaml:"deal_in_rate"`
	RuinRate   float64 `yaml:"ruin_rate,omitempty"`

	FanHistogram Histogram `yaml:"fan_histogram,omitempty,flow"`

	RegressionSlope     float64 `yaml:"regression_slope,omitempty"`
	RegressionIntercept float64 `yaml:"regression_intercept,omitempty"`
	RSquared            float64 `yaml:"r_squared,omitempty"`

	// Degenerate is set when any of the above came back as ErrDegenerate.
	Degenerate bool `yaml:"degenerate,omitempty"`
}

// Summarize fills the location and interval fields from xs.
func Summarize(xs []float64) AggregateStats {
	low, high, err := CI95(xs)
	return AggregateStats{
		N:          len(xs),
		Mean:       Mean(xs),
		StdDev:     StdDev(xs),
		StdErr:     StdErr(xs),
		CILow:      low,
		CIHigh:     high,
		Degenerate: err != nil,
	}
}

// CIWidth is CIHigh - CILow.
func (a AggregateStats) CIWidth() float64 {
	return a.CIHigh - a.CILow
}

// Contains reports whether x lies inside the confidence interval.
func (a AggregateStats) Contains(x float64) bool {
	return x >= a.CILow && x <= a.CIHigh
}

// WithTest records t in a, marking a degenerate when err is set.
func (a AggregateStats) WithTest(t TTest, err error) AggregateStats {
	a.TStatistic = t.T
	a.PValue = t.P
	a.Degenerate = a.Degenerate || err != nil
	return a
}

// WithRegression records r in a.
func (a AggregateStats) WithRegression(r Regression, err error) AggregateStats {
	a.RegressionSlope = r.Slope
	a.RegressionIntercept = r.Intercept
	a.RSquared = r.RSquared
	a.Degenerate = a.Degenerate || err != nil
	return a
}
