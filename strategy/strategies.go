// Package strategy holds the round policies: defensive, aggressive, and the
// neutral filler used to seat a single tested policy at a table.
// A policy looks at one round's sampled variables and decides whether to
// declare, fold, or keep chasing; it keeps no state of its own.
package strategy

import (
	"fmt"

	"github.com/domino14/fansim/scoring"
	"github.com/domino14/fansim/variables"
)

// MarginalBand is how far above FanMin a hand must be before the defensive
// policy will declare it into a dangerous table.
const MarginalBand = 2

const (
	// NeutralRiskLimit is the deal-in risk above which a neutral seat stops
	// drawing on a hand it cannot declare.
	NeutralRiskLimit = 0.4
	// NeutralChaseRate is how often a neutral seat keeps drawing anyway.
	NeutralChaseRate = 0.2
)

// Role tags which policy a seat plays.
type Role int

const (
	RoleDefensive Role = iota
	RoleAggressive
	RoleNeutral
)

func (r Role) String() string {
	switch r {
	case RoleDefensive:
		return "defensive"
	case RoleAggressive:
		return "aggressive"
	case RoleNeutral:
		return "neutral"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Outcome is a single seat's result for one round, as seen by that seat
// alone. The table simulator re-settles money between seats but keeps the
// decision flags.
type Outcome struct {
	Won       bool
	SelfDrawn bool
	DealIn    bool
	// Folded is set when the seat abstained to avoid dealing in.
	Folded bool
	// Missed is set when a legal win was passed up.
	Missed  bool
	Fan     int
	Profit  float64
	Utility float64
}

// Policy decides a round. Decide assumes p has been validated.
type Policy interface {
	Name() string
	Role() Role
	Decide(v variables.Variables, p Params) Outcome
}

// Defensive declares the first legal hand and otherwise folds.
type Defensive struct{}

// Aggressive keeps chasing until the hand reaches TFanThreshold, accepting
// the deal-in risk along the way.
type Aggressive struct{}

// Neutral declares any legal hand. Short of one it folds, unless the table
// looks safe and its chase roll comes up.
type Neutral struct{}

// ForRole returns the policy for r.
func ForRole(r Role) Policy {
	switch r {
	case RoleAggressive:
		return Aggressive{}
	case RoleNeutral:
		return Neutral{}
	}
	return Defensive{}
}

func (Defensive) Name() string { return "DEF" }
func (Defensive) Role() Role   { return RoleDefensive }

func (Defensive) Decide(v variables.Variables, p Params) Outcome {
	fan := v.TotalFan()
	if !v.Ready() || fan < p.FanMin {
		return fold(false)
	}
	if v.R > p.CautionThreshold && fan < p.FanMin+MarginalBand {
		return fold(true)
	}
	return win(v, p, fan)
}

func (Aggressive) Name() string { return "AGG" }
func (Aggressive) Role() Role   { return RoleAggressive }

func (Aggressive) Decide(v variables.Variables, p Params) Outcome {
	fan := v.TotalFan()
	if v.Ready() && fan >= p.TFanThreshold {
		return win(v, p, fan)
	}
	return chase(v, p, v.Ready() && fan >= 1)
}

func (Neutral) Name() string { return "NEU" }
func (Neutral) Role() Role   { return RoleNeutral }

func (Neutral) Decide(v variables.Variables, p Params) Outcome {
	fan := v.TotalFan()
	if v.Ready() && fan >= 1 {
		return win(v, p, fan)
	}
	if v.R > NeutralRiskLimit || v.Rolls.Chase >= NeutralChaseRate {
		return fold(false)
	}
	return chase(v, p, false)
}

// chase keeps drawing without declaring, exposed to dealing in.
func chase(v variables.Variables, p Params, missed bool) Outcome {
	o := Outcome{Missed: missed}
	if missed {
		o.Utility = -scoring.FoldPenalty
	}
	if v.Rolls.Hazard < v.R {
		// Zero fan is not a legal win, so the hand we feed is worth at
		// least one.
		oppFan := max(v.OpponentFan, 1)
		o.DealIn = true
		o.Profit = scoring.DealInCost(p.score(oppFan), p.PenaltyDealIn)
		o.Utility += scoring.Utility(o.Profit, p.Alpha) - scoring.DealInRegret
	}
	return o
}

func fold(missed bool) Outcome {
	return Outcome{
		Folded:  true,
		Missed:  missed,
		Utility: -scoring.FoldPenalty,
	}
}

func win(v variables.Variables, p Params, fan int) Outcome {
	selfDrawn := v.Rolls.Source >= v.R
	profit := scoring.WinProfit(p.score(fan), p.PenaltyDealIn, selfDrawn)
	return Outcome{
		Won:       true,
		SelfDrawn: selfDrawn,
		Fan:       fan,
		Profit:    profit,
		Utility:   scoring.Utility(profit, p.Alpha) + scoring.EmotionalBonus(fan),
	}
}
