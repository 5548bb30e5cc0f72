package montecarlo

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/domino14/fansim/errs"
	"github.com/domino14/fansim/scoring"
	"github.com/domino14/fansim/stats"
	"github.com/domino14/fansim/strategy"
	"github.com/domino14/fansim/variables"
)

func referenceParams() strategy.Params {
	p := strategy.DefaultParams()
	p.BasePoints = 1
	p.FanMin = 1
	p.TFanThreshold = 3
	p.PenaltyDealIn = 2
	return p
}

func TestTrialSeedDistinct(t *testing.T) {
	is := is.New(t)
	seen := map[[2]uint64]bool{}
	for _, base := range []int64{0, 1, 42, -42} {
		for i := 0; i < 200; i++ {
			a, b := TrialSeed(base, i)
			is.True(!seen[[2]uint64{a, b}])
			seen[[2]uint64{a, b}] = true
		}
	}
	a1, b1 := TrialSeed(42, 3)
	a2, b2 := TrialSeed(42, 3)
	is.Equal(a1, a2)
	is.Equal(b1, b2)
}

func TestSimulateTrialCounts(t *testing.T) {
	is := is.New(t)
	s, err := variables.NewSampler(variables.DefaultDistribution(), 1, 1)
	is.NoErr(err)
	res := SimulateTrial(strategy.Defensive{}, referenceParams(), 200, s, 1)
	is.Equal(res.Rounds, 200)
	is.Equal(res.RoundsWon, len(res.FanSamples))
	is.Equal(res.RoundsWon+res.RoundsFolded, 200)
	is.Equal(res.RoundsDealtIn, 0)
	is.True(!res.Ruined)
	is.Equal(res.RuinRound, -1)
	is.True(res.TotalProfit > 0)
	for _, f := range res.FanSamples {
		is.True(f >= 1)
	}
}

func TestRuinAbsorption(t *testing.T) {
	is := is.New(t)
	p := referenceParams()
	p.InitialBankroll = 20
	p.PenaltyDealIn = 5
	p.TFanThreshold = 8

	results, err := RunTrials(context.Background(), strategy.Aggressive{}, p, 50, 200, 3)
	is.NoErr(err)
	ruined := 0
	for _, r := range results {
		if !r.Ruined {
			continue
		}
		ruined++
		is.Equal(r.TotalProfit, -p.InitialBankroll)
		is.True(r.RuinRound >= 0 && r.RuinRound < r.Rounds)
		is.True(r.MaxDrawdown >= p.InitialBankroll)
	}
	is.True(ruined > 0)
	a := Summarize(results)
	is.Equal(a.RuinRate, stats.Proportion(ruined, len(results)))
}

func TestRuinRoundUtility(t *testing.T) {
	is := is.New(t)
	p := referenceParams()
	p.InitialBankroll = 20
	p.PenaltyDealIn = 5
	p.TFanThreshold = 8
	dist := variables.DefaultDistribution()
	checked := 0
	for trial := range 50 {
		s1, s2 := TrialSeed(3, trial)
		sm, err := variables.NewSampler(dist, s1, s2)
		is.NoErr(err)
		res := SimulateTrial(strategy.Aggressive{}, p, 200, sm, 1)
		if !res.Ruined {
			continue
		}
		// Replay the stream up to the round that hit the floor.
		replay, err := variables.NewSampler(dist, s1, s2)
		is.NoErr(err)
		var profit, utility float64
		var o strategy.Outcome
		for r := 0; r <= res.RuinRound; r++ {
			o = SimulateRound(strategy.Aggressive{}, p, replay, 1)
			if r < res.RuinRound {
				profit += o.Profit
				utility += o.Utility
			}
		}
		is.True(o.DealIn)
		booked := -p.InitialBankroll - profit
		assert.GreaterOrEqual(t, booked, o.Profit)
		want := scoring.Utility(booked, p.Alpha) - scoring.DealInRegret
		if o.Missed {
			want -= scoring.FoldPenalty
		}
		assert.InDelta(t, utility+want, res.TotalUtility, 1e-9)
		checked++
	}
	is.True(checked > 0)
}

func TestRuinDoesNotShiftStream(t *testing.T) {
	is := is.New(t)
	p := referenceParams()
	p.InitialBankroll = 0
	s1, _ := variables.NewSampler(variables.DefaultDistribution(), 8, 9)
	s2, _ := variables.NewSampler(variables.DefaultDistribution(), 8, 9)
	SimulateTrial(strategy.Aggressive{}, p, 100, s1, 1)
	p.InitialBankroll = 1
	SimulateTrial(strategy.Aggressive{}, p, 100, s2, 1)
	is.Equal(s1.Sample(), s2.Sample())
}

func TestRunTrialsReproducible(t *testing.T) {
	is := is.New(t)
	p := referenceParams()
	ctx := context.Background()
	for _, pol := range []strategy.Policy{strategy.Defensive{}, strategy.Aggressive{}} {
		a, err := RunTrials(ctx, pol, p, 300, 100, 42)
		is.NoErr(err)
		b, err := RunTrials(ctx, pol, p, 300, 100, 42)
		is.NoErr(err)
		is.Equal(a, b)

		ya, err := yaml.Marshal(Summarize(a))
		is.NoErr(err)
		yb, err := yaml.Marshal(Summarize(b))
		is.NoErr(err)
		is.Equal(ya, yb)
	}
}

func TestRunTrialsThreadIndependent(t *testing.T) {
	is := is.New(t)
	p := referenceParams()
	ctx := context.Background()
	one := NewSimulator()
	one.SetThreads(1)
	many := NewSimulator()
	many.SetThreads(8)
	a, err := one.RunTrials(ctx, strategy.Aggressive{}, p, 120, 80, 9)
	is.NoErr(err)
	b, err := many.RunTrials(ctx, strategy.Aggressive{}, p, 120, 80, 9)
	is.NoErr(err)
	is.Equal(a, b)
}

func TestRunTrialsSeedMatters(t *testing.T) {
	is := is.New(t)
	a, err := RunTrials(context.Background(), strategy.Defensive{}, referenceParams(), 50, 100, 1)
	is.NoErr(err)
	b, err := RunTrials(context.Background(), strategy.Defensive{}, referenceParams(), 50, 100, 2)
	is.NoErr(err)
	is.True(Summarize(a).Mean != Summarize(b).Mean)
}

func TestRunTrialsConfigurationError(t *testing.T) {
	is := is.New(t)
	p := referenceParams()
	p.FanMin = 0
	before := TrialCounter.Value()
	results, err := RunTrials(context.Background(), strategy.Defensive{}, p, 10, 10, 1)
	is.True(errors.Is(err, errs.ErrConfiguration))
	is.Equal(results, nil)
	is.Equal(TrialCounter.Value(), before)

	_, err = RunTrials(context.Background(), strategy.Defensive{}, referenceParams(), 0, 10, 1)
	is.True(errors.Is(err, errs.ErrConfiguration))

	// No hand can reach the chase threshold.
	p = referenceParams()
	p.TFanThreshold = variables.DefaultDistribution().MaxFan + 1
	_, err = RunTrials(context.Background(), strategy.Aggressive{}, p, 10, 10, 1)
	is.True(errors.Is(err, errs.ErrConfiguration))
	_, err = RunTrials(context.Background(), strategy.Defensive{}, p, 10, 10, 1)
	is.NoErr(err)

	sim := NewSimulator()
	d := variables.DefaultDistribution()
	d.KongProb = 2
	sim.SetDistribution(d)
	_, err = sim.RunTrials(context.Background(), strategy.Defensive{}, referenceParams(), 10, 10, 1)
	is.True(errors.Is(err, errs.ErrConfiguration))
}

func TestRunTrialsCanceled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := RunTrials(ctx, strategy.Defensive{}, referenceParams(), 100, 100, 1)
	is.True(errors.Is(err, context.Canceled))
	is.Equal(results, nil)
}

func TestCIWidthShrinks(t *testing.T) {
	is := is.New(t)
	p := referenceParams()
	prev := 0.0
	for i, trials := range []int{100, 400, 1600} {
		results, err := RunTrials(context.Background(), strategy.Aggressive{}, p, trials, 100, 42)
		is.NoErr(err)
		w := Summarize(results).CIWidth()
		is.True(w > 0)
		if i > 0 {
			is.True(w <= prev)
		}
		prev = w
	}
}

func TestDefensiveWinRateMonotoneInFanMin(t *testing.T) {
	is := is.New(t)
	prev := 1.0
	for fanMin := 1; fanMin <= 7; fanMin++ {
		p := referenceParams()
		p.FanMin = fanMin
		results, err := RunTrials(context.Background(), strategy.Defensive{}, p, 200, 100, 7)
		is.NoErr(err)
		rate := Summarize(results).WinRate
		is.True(rate <= prev)
		prev = rate
	}
}

func TestReferenceRun(t *testing.T) {
	is := is.New(t)
	p := referenceParams()
	ctx := context.Background()
	def, err := RunTrials(ctx, strategy.Defensive{}, p, 500, 100, 42)
	is.NoErr(err)
	agg, err := RunTrials(ctx, strategy.Aggressive{}, p, 500, 100, 42)
	is.NoErr(err)

	tt, err := stats.WelchTTest(Profits(def), Profits(agg))
	is.NoErr(err)
	is.True(tt.P < 0.05)

	ds, as := Summarize(def), Summarize(agg)
	is.True(ds.Mean > as.Mean)
	is.True(ds.WinRate > as.WinRate)
	is.Equal(ds.DealInRate, 0.0)
	is.True(as.DealInRate > 0)
	// Aggressive wins are bigger.
	assert.Greater(t, meanFan(as.FanHistogram), meanFan(ds.FanHistogram))
}

func meanFan(h stats.Histogram) float64 {
	return stats.Mean(h.Values())
}

func TestRoundProfitStatistic(t *testing.T) {
	is := is.New(t)
	s, err := variables.NewSampler(variables.DefaultDistribution(), 2, 3)
	is.NoErr(err)
	res := SimulateTrial(strategy.Aggressive{}, referenceParams(), 150, s, 1)
	is.Equal(res.RoundProfit.Iterations(), 150)
	assert.InDelta(t, res.TotalProfit/150, res.RoundProfit.Mean(), 1e-9)
	is.True(res.RoundProfit.Min() < 0)
	is.True(res.RoundProfit.Max() > 0)
}
