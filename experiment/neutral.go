package experiment

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/domino14/fansim/stats"
	"github.com/domino14/fansim/strategy"
	"github.com/domino14/fansim/table"
)

// TestedSeat is where NeutralTable puts the policy under test.
const TestedSeat = 0

func (o Options) tableSimulator() *table.Simulator {
	sim := table.NewSimulator()
	sim.SetThreads(o.Threads)
	sim.SetDistribution(o.Distribution)
	return sim
}

// neutralSeat plays pol in TestedSeat against three neutral seats and
// summarizes the tested seat alone.
func neutralSeat(ctx context.Context, sim *table.Simulator, pol strategy.Policy,
	o Options) (RoleSummary, []float64, error) {

	neutral := table.Seat{Policy: strategy.Neutral{}, Params: o.Params}
	seats := [table.Seats]table.Seat{neutral, neutral, neutral, neutral}
	seats[TestedSeat] = table.Seat{Policy: pol, Params: o.Params}
	res, err := sim.SimulateSeats(ctx, seats, o.TableTrials, o.Rounds, o.Seed)
	if err != nil {
		return RoleSummary{}, nil, err
	}
	profit := res.Seats[TestedSeat].Stats
	utility := stats.Summarize(res.SeatUtilities(TestedSeat))
	utility.WinRate = profit.WinRate
	utility.DealInRate = profit.DealInRate
	utility.FanHistogram = profit.FanHistogram
	return RoleSummary{
		Policy:  pol.Name(),
		Profit:  profit,
		Utility: utility,
		MeanFan: stats.Mean(profit.FanHistogram.Values()),
	}, res.SeatProfits(TestedSeat), nil
}

// NeutralTable seats each policy in turn at a four-seat table with three
// neutral players and compares the tested seat's profit. Both tables run
// on the same seed.
func NeutralTable(ctx context.Context, o Options) (*Comparison, error) {
	sim := o.tableSimulator()
	def, defProfits, err := neutralSeat(ctx, sim, strategy.Defensive{}, o)
	if err != nil {
		return nil, err
	}
	agg, aggProfits, err := neutralSeat(ctx, sim, strategy.Aggressive{}, o)
	if err != nil {
		return nil, err
	}
	tt, err := stats.WelchTTest(defProfits, aggProfits)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("neutral-table-degenerate")
	}
	return &Comparison{
		Measure:     "profit",
		Defensive:   def,
		Aggressive:  agg,
		Test:        tt,
		Significant: err == nil && tt.P < Significance,
		Degenerate:  err != nil,
	}, nil
}
