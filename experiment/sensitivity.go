package experiment

import (
	"context"

	"github.com/domino14/fansim/strategy"
)

// SensitivityTrials caps the trials run at each sweep point.
const SensitivityTrials = 500

var (
	PenaltyValues    = []float64{1, 2, 3, 4, 5}
	AlphaValues      = []float64{0.1, 0.3, 0.5, 0.7, 0.9}
	ThresholdValues  = []int{1, 2, 3, 4, 5}
	BasePointsValues = []float64{1, 2, 4}
)

type SensitivityPoint struct {
	Value float64 `yaml:"value"`
	// Defensive is nil for sweeps that only move an aggressive knob.
	Defensive  *RoleSummary `yaml:"defensive,omitempty"`
	Aggressive RoleSummary  `yaml:"aggressive"`
}

type Sweep struct {
	Param  string             `yaml:"param"`
	Points []SensitivityPoint `yaml:"points"`
}

type SensitivityResult struct {
	Trials     int   `yaml:"trials"`
	Penalty    Sweep `yaml:"penalty"`
	Alpha      Sweep `yaml:"alpha"`
	Threshold  Sweep `yaml:"threshold"`
	BasePoints Sweep `yaml:"base_points"`
}

// Sensitivity moves one parameter at a time away from o.Params: the deal-in
// penalty, the utility curvature, the aggressive chase threshold and the
// base points.
func Sensitivity(ctx context.Context, o Options) (*SensitivityResult, error) {
	trials := min(o.Trials, SensitivityTrials)
	sim := o.simulator()
	res := &SensitivityResult{
		Trials:     trials,
		Penalty:    Sweep{Param: "penalty-deal-in"},
		Alpha:      Sweep{Param: "alpha"},
		Threshold:  Sweep{Param: "t-fan-threshold"},
		BasePoints: Sweep{Param: "base-points"},
	}

	both := func(sw *Sweep, value float64, p strategy.Params) error {
		pr, err := runPair(ctx, sim, p, trials, o.Rounds, o.Seed)
		if err != nil {
			return err
		}
		def := summarizeRole(strategy.Defensive{}, pr.def)
		sw.Points = append(sw.Points, SensitivityPoint{
			Value:      value,
			Defensive:  &def,
			Aggressive: summarizeRole(strategy.Aggressive{}, pr.agg),
		})
		return nil
	}

	for _, penalty := range PenaltyValues {
		p := o.Params
		p.PenaltyDealIn = penalty
		if err := both(&res.Penalty, penalty, p); err != nil {
			return nil, err
		}
	}
	for _, alpha := range AlphaValues {
		p := o.Params
		p.Alpha = alpha
		if err := both(&res.Alpha, alpha, p); err != nil {
			return nil, err
		}
	}
	for _, threshold := range ThresholdValues {
		p := o.Params
		p.TFanThreshold = threshold
		agg, err := sim.RunTrials(ctx, strategy.Aggressive{}, p, trials, o.Rounds, o.Seed)
		if err != nil {
			return nil, err
		}
		res.Threshold.Points = append(res.Threshold.Points, SensitivityPoint{
			Value:      float64(threshold),
			Aggressive: summarizeRole(strategy.Aggressive{}, agg),
		})
	}
	for _, base := range BasePointsValues {
		p := o.Params
		p.BasePoints = base
		if err := both(&res.BasePoints, base, p); err != nil {
			return nil, err
		}
	}
	return res, nil
}
