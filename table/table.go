// Package table plays four seats against each other. Every round exactly one
// seat may win and at most one may deal in, and the money only changes hands.
package table

import (
	"fmt"
	"math/rand/v2"

	"github.com/domino14/fansim/errs"
	"github.com/domino14/fansim/scoring"
	"github.com/domino14/fansim/strategy"
	"github.com/domino14/fansim/variables"
)

const Seats = 4

// FoldExposure scales the deal-in risk of a seat that has folded. A folded
// hand still has to discard, just more safely than one that chases.
const FoldExposure = 0.25

// NoWinner marks a round in which no seat declared.
const NoWinner = -1

// MaxFanGrowth is how much an all-aggressive table inflates every seat's
// fan.
const MaxFanGrowth = 0.2

// RiskScale is the deal-in risk multiplier at a table with theta defensive
// seats. Defensive neighbours discard safer tiles.
func RiskScale(theta int) float64 {
	return 1 - 0.3*float64(theta)/Seats
}

// FanGrowth is the fan multiplier at a table with agg aggressive seats.
func FanGrowth(agg int) float64 {
	return 1 + MaxFanGrowth*float64(agg)/Seats
}

// Seat is one chair at the table.
type Seat struct {
	Policy strategy.Policy
	Params strategy.Params
}

// State is a table: which policy sits where and who deals. Theta counts the
// defensive seats.
type State struct {
	Theta  int
	Dealer int

	policies  [Seats]strategy.Policy
	params    [Seats]strategy.Params
	riskScale float64
	fanGrowth float64
}

// NewState seats theta defensive players with def in the first seats and
// 4-theta aggressive players with agg after them. Seat 0 deals first.
func NewState(theta int, def, agg strategy.Params) (*State, error) {
	if theta < 0 || theta > Seats {
		return nil, errs.Configf("theta must be in [0, %d], got %d", Seats, theta)
	}
	var seats [Seats]Seat
	for i := range Seats {
		if i < theta {
			seats[i] = Seat{Policy: strategy.Defensive{}, Params: def}
		} else {
			seats[i] = Seat{Policy: strategy.Aggressive{}, Params: agg}
		}
	}
	return NewTable(seats)
}

// NewTable seats any four policies. Risk and fan adjustments follow the
// number of defensive and aggressive seats.
func NewTable(seats [Seats]Seat) (*State, error) {
	st := &State{}
	agg := 0
	for i, s := range seats {
		if s.Policy == nil {
			return nil, errs.Configf("seat %d has no policy", i)
		}
		if err := s.Params.Validate(); err != nil {
			return nil, err
		}
		switch s.Policy.Role() {
		case strategy.RoleDefensive:
			st.Theta++
		case strategy.RoleAggressive:
			agg++
		}
		st.policies[i] = s.Policy
		st.params[i] = s.Params
	}
	st.riskScale = RiskScale(st.Theta)
	st.fanGrowth = FanGrowth(agg)
	return st, nil
}

// Role of seat i.
func (st *State) Role(i int) strategy.Role {
	return st.policies[i].Role()
}

// Params of seat i.
func (st *State) Params(i int) strategy.Params {
	return st.params[i]
}

// Policy of seat i.
func (st *State) Policy(i int) strategy.Policy {
	return st.policies[i]
}

// validateReach checks every seat can declare on a hand no bigger than
// maxFan.
func (st *State) validateReach(maxFan int) error {
	for i := range Seats {
		if err := st.params[i].ValidateReach(st.Role(i), maxFan); err != nil {
			return fmt.Errorf("seat %d: %w", i, err)
		}
	}
	return nil
}

// RoundResult is one settled round.
type RoundResult struct {
	Dealer int
	// Winner is the declaring seat, or NoWinner.
	Winner int
	// Discarder is the seat that dealt in, or scoring.SelfDraw.
	Discarder int
	Fan       int
	Deltas    [Seats]float64
	Utilities [Seats]float64
	Outcomes  [Seats]strategy.Outcome
}

// SimulateRound samples every seat, settles the round, and only then passes
// the deal. rng picks the discarder; samplers[i] belongs to seat i. All four
// samplers are drawn from every round whatever the outcome.
func (st *State) SimulateRound(rng *rand.Rand, samplers [Seats]*variables.Sampler) (RoundResult, error) {
	res := RoundResult{Dealer: st.Dealer, Winner: NoWinner, Discarder: scoring.SelfDraw}
	var vars [Seats]variables.Variables
	for i := range Seats {
		vars[i] = samplers[i].Sample().WithRiskScale(st.riskScale).WithFanGrowth(st.fanGrowth)
		res.Outcomes[i] = st.policies[i].Decide(vars[i], st.params[i])
	}

	for k := range Seats {
		seat := (st.Dealer + k) % Seats
		if res.Outcomes[seat].Won {
			res.Winner = seat
			break
		}
	}

	if res.Winner == NoWinner {
		for i := range Seats {
			res.Utilities[i] = passUtility(res.Outcomes[i])
		}
		st.Dealer = (st.Dealer + 1) % Seats
		return res, nil
	}

	win := res.Outcomes[res.Winner]
	res.Fan = win.Fan
	if !win.SelfDrawn {
		res.Discarder = pickDiscarder(rng, res.Winner, vars, res.Outcomes)
	}
	wp := st.params[res.Winner]
	deltas, err := scoring.Settle(res.Fan, wp.BasePoints, wp.PenaltyDealIn, res.Winner, res.Discarder, Seats)
	if err != nil {
		return RoundResult{}, err
	}
	copy(res.Deltas[:], deltas)

	for i := range Seats {
		u := scoring.Utility(res.Deltas[i], st.params[i].Alpha)
		switch i {
		case res.Winner:
			u += scoring.EmotionalBonus(res.Fan)
		case res.Discarder:
			u += passUtility(res.Outcomes[i]) - scoring.DealInRegret
		default:
			u += passUtility(res.Outcomes[i])
		}
		res.Utilities[i] = u
	}
	st.Dealer = (st.Dealer + 1) % Seats
	return res, nil
}

// passUtility is what a non-winning seat feels about its own hand.
func passUtility(o strategy.Outcome) float64 {
	if o.Folded || o.Missed || o.Won {
		return -scoring.FoldPenalty
	}
	return 0
}

// pickDiscarder draws the seat that fed the winner, weighted by how exposed
// each seat was. With no exposure anywhere the win becomes a self-draw.
func pickDiscarder(rng *rand.Rand, winner int, vars [Seats]variables.Variables,
	outcomes [Seats]strategy.Outcome) int {

	var weights [Seats]float64
	var total float64
	for i := range Seats {
		if i == winner {
			continue
		}
		w := vars[i].R
		if outcomes[i].Folded {
			w *= FoldExposure
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return scoring.SelfDraw
	}
	u := rng.Float64() * total
	last := scoring.SelfDraw
	for i := range Seats {
		if weights[i] == 0 {
			continue
		}
		if u < weights[i] {
			return i
		}
		u -= weights[i]
		last = i
	}
	// Rounding can leave u just past the final weight.
	return last
}
