package experiment

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/domino14/fansim/stats"
	"github.com/domino14/fansim/strategy"
	"github.com/domino14/fansim/table"
)

// CompositionThetas are the defensive shares of the table in the
// single-seat sweep.
var CompositionThetas = []float64{0, 0.33, 0.67, 1}

// CompositionRiskScale is the deal-in risk multiplier for a lone seat whose
// table is a theta share defensive.
func CompositionRiskScale(theta float64) float64 {
	return 1 - 0.3*theta
}

type CompositionPoint struct {
	Theta      float64     `yaml:"theta"`
	RiskScale  float64     `yaml:"risk_scale"`
	Defensive  RoleSummary `yaml:"defensive"`
	Aggressive RoleSummary `yaml:"aggressive"`
}

// CompositionResult holds one point per theta and a line through the mean
// profits of each role.
type CompositionResult struct {
	Points        []CompositionPoint `yaml:"points"`
	DefensiveFit  stats.Regression   `yaml:"defensive_fit"`
	AggressiveFit stats.Regression   `yaml:"aggressive_fit"`
	Degenerate    bool               `yaml:"degenerate,omitempty"`
}

// CompositionSweep runs the single-seat model once per theta. Every theta
// uses the same seed, so the points differ only by the table's risk.
func CompositionSweep(ctx context.Context, o Options) (*CompositionResult, error) {
	res := &CompositionResult{}
	for _, theta := range CompositionThetas {
		sim := o.simulator()
		sim.SetRiskScale(CompositionRiskScale(theta))
		pr, err := runPair(ctx, sim, o.Params, o.Trials, o.Rounds, o.Seed)
		if err != nil {
			return nil, err
		}
		res.Points = append(res.Points, CompositionPoint{
			Theta:      theta,
			RiskScale:  CompositionRiskScale(theta),
			Defensive:  summarizeRole(strategy.Defensive{}, pr.def),
			Aggressive: summarizeRole(strategy.Aggressive{}, pr.agg),
		})
	}

	thetas := lo.Map(res.Points, func(p CompositionPoint, _ int) float64 { return p.Theta })
	defMeans := lo.Map(res.Points, func(p CompositionPoint, _ int) float64 { return p.Defensive.Profit.Mean })
	aggMeans := lo.Map(res.Points, func(p CompositionPoint, _ int) float64 { return p.Aggressive.Profit.Mean })

	var defErr, aggErr error
	res.DefensiveFit, defErr = stats.LinearRegression(thetas, defMeans)
	res.AggressiveFit, aggErr = stats.LinearRegression(thetas, aggMeans)
	res.Degenerate = defErr != nil || aggErr != nil
	if res.Degenerate {
		zerolog.Ctx(ctx).Warn().AnErr("defensive", defErr).AnErr("aggressive", aggErr).
			Msg("composition-fit-degenerate")
	}
	return res, nil
}

// TableSweepResult is one four-seat table per theta in 0..4.
type TableSweepResult struct {
	Tables []*table.Result `yaml:"tables"`
	// Each fit only covers the thetas at which that role is seated.
	DefensiveFit  stats.Regression `yaml:"defensive_fit"`
	AggressiveFit stats.Regression `yaml:"aggressive_fit"`
	Degenerate    bool             `yaml:"degenerate,omitempty"`
}

// TableSweep plays the four-seat table at every composition.
func TableSweep(ctx context.Context, o Options) (*TableSweepResult, error) {
	sim := o.tableSimulator()
	res := &TableSweepResult{}
	for theta := 0; theta <= table.Seats; theta++ {
		tr, err := sim.SimulateTrials(ctx, theta, o.Params, o.Params, o.TableTrials, o.Rounds, o.Seed)
		if err != nil {
			return nil, err
		}
		res.Tables = append(res.Tables, tr)
	}

	fit := func(pick func(*table.Result) stats.AggregateStats) (stats.Regression, error) {
		seated := lo.Filter(res.Tables, func(t *table.Result, _ int) bool { return pick(t).N > 0 })
		x := lo.Map(seated, func(t *table.Result, _ int) float64 { return float64(t.Theta) })
		y := lo.Map(seated, func(t *table.Result, _ int) float64 { return pick(t).Mean })
		return stats.LinearRegression(x, y)
	}
	var defErr, aggErr error
	res.DefensiveFit, defErr = fit(func(t *table.Result) stats.AggregateStats { return t.Defensive })
	res.AggressiveFit, aggErr = fit(func(t *table.Result) stats.AggregateStats { return t.Aggressive })
	res.Degenerate = defErr != nil || aggErr != nil
	if res.Degenerate {
		zerolog.Ctx(ctx).Warn().AnErr("defensive", defErr).AnErr("aggressive", aggErr).
			Msg("table-fit-degenerate")
	}
	return res, nil
}
