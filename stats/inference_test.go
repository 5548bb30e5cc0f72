package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
)

func TestCriticalValues(t *testing.T) {
	assert.InDelta(t, 1.959964, Z95, 1e-5)
	assert.InDelta(t, 2.575829, Z99, 1e-5)
	assert.InDelta(t, 2.776445, TVal(95, 4), 1e-5)
	assert.InDelta(t, 2.364624, critical(95, 8), 1e-5)
	assert.InDelta(t, Z95, critical(95, 30), 1e-12)
}

func TestCI95SmallSampleUsesT(t *testing.T) {
	is := is.New(t)
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	lo, hi, err := CI95(xs)
	is.NoErr(err)
	assert.InDelta(t, 3.21252, lo, 1e-4)
	assert.InDelta(t, 6.78748, hi, 1e-4)
}

func TestCI95LargeSampleUsesZ(t *testing.T) {
	is := is.New(t)
	xs := make([]float64, 100)
	for i := range xs {
		xs[i] = float64(i % 10)
	}
	lo, hi, err := CI95(xs)
	is.NoErr(err)
	half := Z95 * StdErr(xs)
	assert.InDelta(t, Mean(xs)-half, lo, 1e-12)
	assert.InDelta(t, Mean(xs)+half, hi, 1e-12)
}

func TestCI95Degenerate(t *testing.T) {
	is := is.New(t)
	lo, hi, err := CI95([]float64{3})
	is.True(errors.Is(err, ErrDegenerate))
	is.True(math.IsInf(lo, -1))
	is.True(math.IsInf(hi, 1))

	lo, hi, err = CI95([]float64{3, 3, 3})
	is.True(errors.Is(err, ErrDegenerate))
	is.Equal(lo, 3.0)
	is.Equal(hi, 3.0)
}

func TestWelchTTest(t *testing.T) {
	is := is.New(t)
	res, err := WelchTTest([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10})
	is.NoErr(err)
	assert.InDelta(t, -1.897367, res.T, 1e-5)
	assert.InDelta(t, 5.882353, res.DF, 1e-5)
	assert.InDelta(t, 0.10753, res.P, 1e-3)
}

func TestWelchTTestSymmetric(t *testing.T) {
	a := []float64{1.5, 2.5, 2, 3.25, 1}
	b := []float64{4, 3, 5.5, 4.75, 6, 3.5}
	ab, err := WelchTTest(a, b)
	assert.Nil(t, err)
	ba, err := WelchTTest(b, a)
	assert.Nil(t, err)
	assert.InDelta(t, -ab.T, ba.T, 1e-12)
	assert.InDelta(t, ab.P, ba.P, 1e-12)
	assert.Less(t, ab.P, 0.05)
}

func TestWelchTTestDegenerate(t *testing.T) {
	is := is.New(t)
	res, err := WelchTTest([]float64{1, 1, 1}, []float64{1, 1})
	is.True(errors.Is(err, ErrDegenerate))
	is.True(math.IsNaN(res.T))
	is.True(math.IsNaN(res.P))

	res, err = WelchTTest([]float64{2, 2, 2}, []float64{1, 1})
	is.True(errors.Is(err, ErrDegenerate))
	is.True(math.IsInf(res.T, 1))
	is.Equal(res.P, 0.0)

	_, err = WelchTTest([]float64{1}, []float64{1, 2})
	is.True(errors.Is(err, ErrDegenerate))
}

func TestProportion(t *testing.T) {
	is := is.New(t)
	is.Equal(Proportion(1, 4), 0.25)
	is.Equal(Proportion(3, 0), 0.0)
}

func TestFanHistogram(t *testing.T) {
	is := is.New(t)
	h := FanHistogram([]int{3, 1, 1, 2, 8, 1, 3, 2})
	is.Equal(h, Histogram{
		{Fan: 1, Count: 3, Frequency: 0.375},
		{Fan: 2, Count: 2, Frequency: 0.25},
		{Fan: 3, Count: 2, Frequency: 0.25},
		{Fan: 8, Count: 1, Frequency: 0.125},
	})
	is.Equal(h.Total(), 8)
	is.Equal(len(h.Values()), 8)
	is.Equal(FanHistogram(nil), Histogram(nil))
}

func TestLinearRegression(t *testing.T) {
	is := is.New(t)
	r, err := LinearRegression([]float64{0, 1, 2, 3}, []float64{1, 3, 5, 7.5})
	is.NoErr(err)
	assert.InDelta(t, 2.15, r.Slope, 1e-9)
	assert.InDelta(t, 0.9, r.Intercept, 1e-9)
	assert.InDelta(t, 0.996765, r.RSquared, 1e-5)

	r, err = LinearRegression([]float64{0, 0.33, 0.67, 1}, []float64{2, 1.01, -0.01, -1})
	is.NoErr(err)
	is.True(r.Slope < 0)
	is.True(r.RSquared > 0.99)
}

func TestLinearRegressionDegenerate(t *testing.T) {
	is := is.New(t)
	_, err := LinearRegression([]float64{1, 1, 1}, []float64{1, 2, 3})
	is.True(errors.Is(err, ErrDegenerate))
	_, err = LinearRegression([]float64{1}, []float64{1})
	is.True(errors.Is(err, ErrDegenerate))
	r, err := LinearRegression([]float64{0, 1, 2}, []float64{4, 4, 4})
	is.True(errors.Is(err, ErrDegenerate))
	assert.InDelta(t, 0.0, r.Slope, 1e-12)
	is.True(math.IsNaN(r.RSquared))
}

func TestSummarize(t *testing.T) {
	is := is.New(t)
	a := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	is.Equal(a.N, 8)
	is.Equal(a.Mean, 5.0)
	is.True(!a.Degenerate)
	is.True(a.Contains(5))
	is.True(!a.Contains(7))
	assert.InDelta(t, 2*1.78748, a.CIWidth(), 1e-4)

	d := Summarize([]float64{1, 1})
	is.True(d.Degenerate)
	is.Equal(d.CIWidth(), 0.0)

	tt, err := WelchTTest([]float64{1, 1}, []float64{1, 1})
	d = a.WithTest(tt, err)
	is.True(d.Degenerate)
}
