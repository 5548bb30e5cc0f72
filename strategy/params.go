package strategy

import (
	"github.com/domino14/fansim/errs"
	"github.com/domino14/fansim/scoring"
)

// Params are the per-experiment policy and scoring parameters. They are
// read-only once a run starts and are shared by every simulated round.
type Params struct {
	// FanMin is the smallest fan the defensive policy will declare on.
	FanMin int
	// TFanThreshold is the fan the aggressive policy chases before declaring.
	TFanThreshold int
	// PenaltyDealIn multiplies the score paid by a seat that discards into
	// a win.
	PenaltyDealIn float64
	BasePoints    float64
	// Alpha is the CRRA risk aversion used for utility.
	Alpha float64
	// CautionThreshold is the deal-in risk above which the defensive policy
	// folds a marginal win.
	CautionThreshold float64
	// InitialBankroll floors a trial's cumulative profit at its negative.
	// Zero disables ruin tracking.
	InitialBankroll float64
}

// DefaultParams mirrors the reference configuration.
func DefaultParams() Params {
	return Params{
		FanMin:           1,
		TFanThreshold:    3,
		PenaltyDealIn:    2,
		BasePoints:       1,
		Alpha:            0.5,
		CautionThreshold: 0.5,
		InitialBankroll:  1000,
	}
}

// Validate checks every precondition of the policies and the scoring
// engine. A zero-fan win is never a legal declaration, so FanMin < 1 is a
// configuration error rather than something to fold on at run time.
func (p Params) Validate() error {
	if p.FanMin < 1 {
		return errs.Configf("fan_min must be >= 1, got %d", p.FanMin)
	}
	if p.TFanThreshold < 1 {
		return errs.Configf("t_fan_threshold must be >= 1, got %d", p.TFanThreshold)
	}
	if p.BasePoints <= 0 {
		return errs.Configf("base_points must be positive, got %v", p.BasePoints)
	}
	if p.PenaltyDealIn < 1 {
		return errs.Configf("penalty_deal_in must be >= 1, got %v", p.PenaltyDealIn)
	}
	if p.Alpha < 0 || p.Alpha > 1 {
		return errs.Configf("alpha %v outside [0, 1]", p.Alpha)
	}
	if p.CautionThreshold < 0 || p.CautionThreshold > 1 {
		return errs.Configf("caution threshold %v outside [0, 1]", p.CautionThreshold)
	}
	if p.InitialBankroll < 0 {
		return errs.Configf("initial_bankroll must be non-negative, got %v", p.InitialBankroll)
	}
	return nil
}

// ValidateReach checks that a seat playing role can ever declare when no
// hand is worth more than maxFan.
func (p Params) ValidateReach(role Role, maxFan int) error {
	switch role {
	case RoleAggressive:
		if p.TFanThreshold > maxFan {
			return errs.Configf("t_fan_threshold %d exceeds the largest possible fan %d", p.TFanThreshold, maxFan)
		}
	case RoleDefensive:
		if p.FanMin > maxFan {
			return errs.Configf("fan_min %d exceeds the largest possible fan %d", p.FanMin, maxFan)
		}
	}
	return nil
}

// score assumes p has been validated and fan is non-negative.
func (p Params) score(fan int) float64 {
	s, _ := scoring.Score(fan, p.BasePoints)
	return s
}
