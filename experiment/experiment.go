// Package experiment holds the drivers that turn simulation runs into the
// comparisons a study reports. Each driver returns a plain result struct;
// printing is left to the caller.
package experiment

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/domino14/fansim/montecarlo"
	"github.com/domino14/fansim/stats"
	"github.com/domino14/fansim/strategy"
	"github.com/domino14/fansim/variables"
)

// Significance is the p-value below which two roles are said to differ.
const Significance = 0.05

// Options are the inputs shared by every experiment.
type Options struct {
	Params       strategy.Params
	Distribution variables.Distribution
	Trials       int
	Rounds       int
	TableTrials  int
	Seed         int64
	Threads      int
}

func DefaultOptions() Options {
	return Options{
		Params:       strategy.DefaultParams(),
		Distribution: variables.DefaultDistribution(),
		Trials:       1000,
		Rounds:       100,
		TableTrials:  800,
		Seed:         42,
		Threads:      runtime.NumCPU(),
	}
}

func (o Options) simulator() *montecarlo.Simulator {
	sim := montecarlo.NewSimulator()
	sim.SetThreads(o.Threads)
	sim.SetDistribution(o.Distribution)
	return sim
}

// RoleSummary is what one policy did over a run.
type RoleSummary struct {
	Policy  string               `yaml:"policy"`
	Profit  stats.AggregateStats `yaml:"profit"`
	Utility stats.AggregateStats `yaml:"utility"`
	MeanFan float64              `yaml:"mean_fan"`
}

func summarizeRole(pol strategy.Policy, results []montecarlo.TrialResult) RoleSummary {
	profit := montecarlo.Summarize(results)
	return RoleSummary{
		Policy:  pol.Name(),
		Profit:  profit,
		Utility: montecarlo.SummarizeUtility(results),
		MeanFan: stats.Mean(profit.FanHistogram.Values()),
	}
}

type pair struct {
	def, agg []montecarlo.TrialResult
}

// runPair plays both policies on the same seed, so they face the same hands.
func runPair(ctx context.Context, sim *montecarlo.Simulator, p strategy.Params,
	trials, rounds int, seed int64) (pair, error) {

	def, err := sim.RunTrials(ctx, strategy.Defensive{}, p, trials, rounds, seed)
	if err != nil {
		return pair{}, err
	}
	agg, err := sim.RunTrials(ctx, strategy.Aggressive{}, p, trials, rounds, seed)
	if err != nil {
		return pair{}, err
	}
	return pair{def: def, agg: agg}, nil
}

// Comparison pits the two policies against each other on one measure.
type Comparison struct {
	Measure     string      `yaml:"measure"`
	Defensive   RoleSummary `yaml:"defensive"`
	Aggressive  RoleSummary `yaml:"aggressive"`
	Test        stats.TTest `yaml:"test"`
	Significant bool        `yaml:"significant"`
	Degenerate  bool        `yaml:"degenerate,omitempty"`
}

func compare(ctx context.Context, measure string, pr pair, a, b []float64) *Comparison {
	tt, err := stats.WelchTTest(a, b)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Str("measure", measure).Err(err).Msg("comparison-degenerate")
	}
	return &Comparison{
		Measure:     measure,
		Defensive:   summarizeRole(strategy.Defensive{}, pr.def),
		Aggressive:  summarizeRole(strategy.Aggressive{}, pr.agg),
		Test:        tt,
		Significant: err == nil && tt.P < Significance,
		Degenerate:  err != nil,
	}
}

// Compare runs both policies and tests whether their mean profits differ.
func Compare(ctx context.Context, o Options) (*Comparison, error) {
	pr, err := runPair(ctx, o.simulator(), o.Params, o.Trials, o.Rounds, o.Seed)
	if err != nil {
		return nil, err
	}
	return compare(ctx, "profit", pr, montecarlo.Profits(pr.def), montecarlo.Profits(pr.agg)), nil
}

// UtilityComparison is Compare on utility instead of money.
func UtilityComparison(ctx context.Context, o Options) (*Comparison, error) {
	pr, err := runPair(ctx, o.simulator(), o.Params, o.Trials, o.Rounds, o.Seed)
	if err != nil {
		return nil, err
	}
	return compare(ctx, "utility", pr, montecarlo.Utilities(pr.def), montecarlo.Utilities(pr.agg)), nil
}

// DemoTrial is a single trial, as a quick look.
type DemoTrial struct {
	Policy  string  `yaml:"policy"`
	Profit  float64 `yaml:"profit"`
	Utility float64 `yaml:"utility"`
	MeanFan float64 `yaml:"mean_fan"`
	WinRate float64 `yaml:"win_rate"`
	Ruined  bool    `yaml:"ruined"`

	// Round profit spread and extremes.
	RoundStdDev float64 `yaml:"round_std_dev"`
	BestRound   float64 `yaml:"best_round"`
	WorstRound  float64 `yaml:"worst_round"`

	FanSamples []int `yaml:"-"`
}

type DemoResult struct {
	Rounds     int       `yaml:"rounds"`
	Defensive  DemoTrial `yaml:"defensive"`
	Aggressive DemoTrial `yaml:"aggressive"`
}

func demoTrial(pol strategy.Policy, r montecarlo.TrialResult) DemoTrial {
	fans := make([]float64, len(r.FanSamples))
	for i, f := range r.FanSamples {
		fans[i] = float64(f)
	}
	return DemoTrial{
		Policy:      pol.Name(),
		Profit:      r.TotalProfit,
		Utility:     r.TotalUtility,
		MeanFan:     stats.Mean(fans),
		WinRate:     stats.Proportion(r.RoundsWon, r.Rounds),
		Ruined:      r.Ruined,
		RoundStdDev: r.RoundProfit.Stdev(),
		BestRound:   r.RoundProfit.Max(),
		WorstRound:  r.RoundProfit.Min(),
		FanSamples:  r.FanSamples,
	}
}

// Demo plays one trial per policy.
func Demo(ctx context.Context, o Options) (*DemoResult, error) {
	pr, err := runPair(ctx, o.simulator(), o.Params, 1, o.Rounds, o.Seed)
	if err != nil {
		return nil, err
	}
	return &DemoResult{
		Rounds:     o.Rounds,
		Defensive:  demoTrial(strategy.Defensive{}, pr.def[0]),
		Aggressive: demoTrial(strategy.Aggressive{}, pr.agg[0]),
	}, nil
}
