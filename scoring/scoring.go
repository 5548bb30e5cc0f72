// Package scoring turns fan into money and money into utility.
package scoring

import (
	"math"

	"github.com/domino14/fansim/errs"
)

const (
	// FoldPenalty is the utility cost of a passed round or a passed-up win.
	FoldPenalty = 0.2
	// DealInRegret is the extra utility cost of discarding into a win.
	DealInRegret = 0.5
	// EmotionScale weighs the superlinear thrill of a big declared win.
	EmotionScale = 0.5
	// SelfDrawPayers is how many opponents pay a self-drawn win.
	SelfDrawPayers = 3
)

// SelfDraw is passed as the discarder when the winner drew the tile.
const SelfDraw = -1

// Score is basePoints * 2^fan.
func Score(fan int, basePoints float64) (float64, error) {
	if basePoints <= 0 {
		return 0, errs.Configf("base_points must be positive, got %v", basePoints)
	}
	if fan < 0 {
		return 0, errs.Configf("fan must be non-negative, got %d", fan)
	}
	return math.Ldexp(basePoints, fan), nil
}

// WinProfit is what a lone seat collects for a win worth score.
// A self-draw is paid by every opponent; a discard win is paid by the
// discarder alone, with the deal-in penalty.
func WinProfit(score, penalty float64, selfDrawn bool) float64 {
	if selfDrawn {
		return score * SelfDrawPayers
	}
	return score * penalty
}

// DealInCost is the (negative) profit of the seat that discarded into a win
// worth score.
func DealInCost(score, penalty float64) float64 {
	return -score * penalty
}

// Settle returns the profit delta of every seat for a win by winner. The
// discarder pays score*penalty on a discard win and the other losers pay the
// baseline share, which is zero. On a self-draw every loser pays score. The
// winner receives exactly what the others pay, so the deltas sum to zero.
func Settle(fan int, basePoints, penalty float64, winner, discarder, seats int) ([]float64, error) {
	if seats < 2 {
		return nil, errs.Configf("need at least two seats, got %d", seats)
	}
	if winner < 0 || winner >= seats {
		return nil, errs.Configf("winner %d out of range", winner)
	}
	if discarder == winner || discarder < SelfDraw || discarder >= seats {
		return nil, errs.Configf("discarder %d invalid for winner %d", discarder, winner)
	}
	score, err := Score(fan, basePoints)
	if err != nil {
		return nil, err
	}
	deltas := make([]float64, seats)
	var collected float64
	for i := range deltas {
		if i == winner {
			continue
		}
		var pay float64
		switch {
		case discarder == SelfDraw:
			pay = score
		case i == discarder:
			pay = score * penalty
		}
		deltas[i] = -pay
		collected += pay
	}
	deltas[winner] = collected
	return deltas, nil
}

// Utility is a sign-preserving CRRA transform of profit. alpha is the
// relative risk aversion; alpha = 1 is the log form and alpha = 0 is
// linear in profit.
func Utility(profit, alpha float64) float64 {
	if profit == 0 {
		return 0
	}
	mag := math.Abs(profit)
	var u float64
	if math.Abs(1-alpha) < 1e-12 {
		u = math.Log1p(mag)
	} else {
		u = (math.Pow(1+mag, 1-alpha) - 1) / (1 - alpha)
	}
	return math.Copysign(u, profit)
}

// EmotionalBonus is the extra utility of declaring a win at fan.
func EmotionalBonus(fan int) float64 {
	if fan <= 0 {
		return 0
	}
	return EmotionScale * math.Pow(float64(fan), 1.5)
}
