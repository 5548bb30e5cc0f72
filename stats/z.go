package stats

import "gonum.org/v1/gonum/stat/distuv"

// Two-tailed critical values of the standard normal.
var (
	Z95 = ZVal(95)
	Z98 = ZVal(98)
	Z99 = ZVal(99)
)

// SmallSample is the sample size below which intervals use Student's t
// rather than the normal approximation.
const SmallSample = 30

// ZVal returns the two-tailed Z-value associated with a specific confidence interval.
// The interval is a number from 0 to 100 percent.
func ZVal(confidenceInterval float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	area := (1 + (confidenceInterval / 100)) / 2
	zValue := dist.Quantile(area)
	return zValue
}

// TVal is ZVal for Student's t with df degrees of freedom.
func TVal(confidenceInterval, df float64) float64 {
	dist := distuv.StudentsT{
		Mu:    0,
		Sigma: 1,
		Nu:    df,
	}
	area := (1 + (confidenceInterval / 100)) / 2
	return dist.Quantile(area)
}

// critical picks t for small samples and z otherwise.
func critical(confidenceInterval float64, n int) float64 {
	if n < SmallSample {
		return TVal(confidenceInterval, float64(n-1))
	}
	return ZVal(confidenceInterval)
}
