package montecarlo

import (
	"github.com/samber/lo"

	"github.com/domino14/fansim/stats"
)

// Profits returns each trial's total profit.
func Profits(results []TrialResult) []float64 {
	return lo.Map(results, func(r TrialResult, _ int) float64 { return r.TotalProfit })
}

// Utilities returns each trial's total utility.
func Utilities(results []TrialResult) []float64 {
	return lo.Map(results, func(r TrialResult, _ int) float64 { return r.TotalUtility })
}

// Summarize reduces trial profits, and fills in the pooled rates and fan
// histogram.
func Summarize(results []TrialResult) stats.AggregateStats {
	return withRates(stats.Summarize(Profits(results)), results)
}

// SummarizeUtility is Summarize over trial utilities.
func SummarizeUtility(results []TrialResult) stats.AggregateStats {
	return withRates(stats.Summarize(Utilities(results)), results)
}

func withRates(a stats.AggregateStats, results []TrialResult) stats.AggregateStats {
	rounds := lo.SumBy(results, func(r TrialResult) int { return r.Rounds })
	won := lo.SumBy(results, func(r TrialResult) int { return r.RoundsWon })
	dealt := lo.SumBy(results, func(r TrialResult) int { return r.RoundsDealtIn })
	ruined := lo.CountBy(results, func(r TrialResult) bool { return r.Ruined })

	a.WinRate = stats.Proportion(won, rounds)
	a.DealInRate = stats.Proportion(dealt, rounds)
	a.RuinRate = stats.Proportion(ruined, len(results))
	a.FanHistogram = stats.FanHistogram(lo.FlatMap(results, func(r TrialResult, _ int) []int {
		return r.FanSamples
	}))
	return a
}

// WinRates are the per-trial win rates.
func WinRates(results []TrialResult) []float64 {
	return lo.Map(results, func(r TrialResult, _ int) float64 {
		return stats.Proportion(r.RoundsWon, r.Rounds)
	})
}
