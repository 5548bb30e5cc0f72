package table

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/fansim/errs"
	"github.com/domino14/fansim/montecarlo"
	"github.com/domino14/fansim/stats"
	"github.com/domino14/fansim/strategy"
	"github.com/domino14/fansim/variables"
)

// SeatTotals accumulates one seat over one trial.
type SeatTotals struct {
	Profit     float64
	Utility    float64
	Wins       int
	DealIns    int
	Folds      int
	FanSamples []int
}

// TrialResult is one table trial.
type TrialResult struct {
	Rounds int
	Seats  [Seats]SeatTotals
	// DealerProfit sums the dealer's delta over the trial; NonDealerProfit
	// sums the mean delta of the other three.
	DealerProfit    float64
	NonDealerProfit float64
}

// SimulateTrial plays rounds rounds from the current dealer onward.
func (st *State) SimulateTrial(rounds int, rng *rand.Rand, samplers [Seats]*variables.Sampler) (TrialResult, error) {
	res := TrialResult{Rounds: rounds}
	for range rounds {
		rr, err := st.SimulateRound(rng, samplers)
		if err != nil {
			return TrialResult{}, err
		}
		for i := range Seats {
			s := &res.Seats[i]
			s.Profit += rr.Deltas[i]
			s.Utility += rr.Utilities[i]
			if rr.Outcomes[i].Folded {
				s.Folds++
			}
			if i == rr.Dealer {
				res.DealerProfit += rr.Deltas[i]
			} else {
				res.NonDealerProfit += rr.Deltas[i] / (Seats - 1)
			}
		}
		if rr.Winner != NoWinner {
			w := &res.Seats[rr.Winner]
			w.Wins++
			w.FanSamples = append(w.FanSamples, rr.Fan)
		}
		if rr.Discarder >= 0 {
			res.Seats[rr.Discarder].DealIns++
		}
	}
	return res, nil
}

// SeatStats is the profit summary of one seat across trials.
type SeatStats struct {
	Seat  int                  `yaml:"seat"`
	Role  string               `yaml:"role"`
	Stats stats.AggregateStats `yaml:"stats"`
}

// Result is the outcome of SimulateTrials.
type Result struct {
	Theta  int         `yaml:"theta"`
	Trials int         `yaml:"trials"`
	Rounds int         `yaml:"rounds"`
	Seats  []SeatStats `yaml:"seats"`

	// Defensive, Aggressive and Neutral pool every seat-trial of that
	// role; All pools every seat-trial at the table.
	Defensive  stats.AggregateStats `yaml:"defensive"`
	Aggressive stats.AggregateStats `yaml:"aggressive"`
	Neutral    stats.AggregateStats `yaml:"neutral"`
	All        stats.AggregateStats `yaml:"all"`

	Dealer    stats.AggregateStats `yaml:"dealer"`
	NonDealer stats.AggregateStats `yaml:"non_dealer"`

	// RoleTest compares defensive and aggressive seat profits. It is nil
	// unless both roles are seated.
	RoleTest *stats.TTest `yaml:"role_test,omitempty"`

	TrialResults []TrialResult `yaml:"-"`
}

// Simulator runs many table trials in parallel.
type Simulator struct {
	dist    variables.Distribution
	threads int
}

func NewSimulator() *Simulator {
	return &Simulator{dist: variables.DefaultDistribution(), threads: runtime.NumCPU()}
}

func (s *Simulator) SetThreads(threads int) {
	s.threads = max(threads, 1)
}

func (s *Simulator) SetDistribution(d variables.Distribution) {
	s.dist = d
}

// seatSeed gives every seat of every trial its own stream, plus one extra
// stream per trial for the table itself. Seat k's stream does not depend on
// theta, so sweeps over composition share their random numbers.
func seatSeed(baseSeed int64, trial, seat int) (uint64, uint64) {
	return montecarlo.TrialSeed(baseSeed, trial*(Seats+1)+seat)
}

// SimulateTrials runs trials table trials of rounds rounds with theta
// defensive seats. Trial i's outcome depends only on baseSeed and i.
func (s *Simulator) SimulateTrials(ctx context.Context, theta int, def, agg strategy.Params,
	trials, rounds int, baseSeed int64) (*Result, error) {

	base, err := NewState(theta, def, agg)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, base, trials, rounds, baseSeed)
}

// SimulateSeats is SimulateTrials for an arbitrary seating.
func (s *Simulator) SimulateSeats(ctx context.Context, seats [Seats]Seat,
	trials, rounds int, baseSeed int64) (*Result, error) {

	base, err := NewTable(seats)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, base, trials, rounds, baseSeed)
}

func (s *Simulator) run(ctx context.Context, base *State, trials, rounds int, baseSeed int64) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	theta := base.Theta
	if err := s.dist.Validate(); err != nil {
		return nil, err
	}
	if err := base.validateReach(s.dist.MaxFan); err != nil {
		return nil, err
	}
	if trials < 1 || rounds < 1 {
		return nil, errs.Configf("need at least one trial and one round, got %d x %d", trials, rounds)
	}
	logger.Debug().Int("theta", theta).Int("trials", trials).Int("rounds", rounds).
		Int64("seed", baseSeed).Msg("table-trials-start")

	results := make([]TrialResult, trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.threads)
	for i := range trials {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var samplers [Seats]*variables.Sampler
			for k := range Seats {
				s1, s2 := seatSeed(baseSeed, i, k)
				sm, err := variables.NewSampler(s.dist, s1, s2)
				if err != nil {
					return err
				}
				samplers[k] = sm
			}
			s1, s2 := seatSeed(baseSeed, i, Seats)
			rng := rand.New(rand.NewPCG(s1, s2))
			st := *base
			tr, err := st.SimulateTrial(rounds, rng, samplers)
			if err != nil {
				return err
			}
			results[i] = tr
			montecarlo.TrialCounter.Add(1)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Debug().AnErr("ctxErr", err).Msg("table-trials-canceled")
		}
		return nil, err
	}

	res := summarize(base, results)
	if res.All.Degenerate {
		logger.Warn().Int("theta", theta).Msg("table-stats-degenerate")
	}
	logger.Debug().Int("theta", theta).Msg("table-trials-done")
	return res, nil
}

// SimulateTrials runs with the default distribution on every CPU.
func SimulateTrials(ctx context.Context, theta int, def, agg strategy.Params,
	trials, rounds int, baseSeed int64) (*Result, error) {
	return NewSimulator().SimulateTrials(ctx, theta, def, agg, trials, rounds, baseSeed)
}

type seatTrial struct {
	seat   int
	rounds int
	SeatTotals
}

func summarize(st *State, results []TrialResult) *Result {
	res := &Result{Theta: st.Theta, Trials: len(results)}
	if len(results) > 0 {
		res.Rounds = results[0].Rounds
	}
	all := lo.FlatMap(results, func(tr TrialResult, _ int) []seatTrial {
		out := make([]seatTrial, Seats)
		for i := range Seats {
			out[i] = seatTrial{seat: i, rounds: tr.Rounds, SeatTotals: tr.Seats[i]}
		}
		return out
	})
	for i := range Seats {
		mine := lo.Filter(all, func(s seatTrial, _ int) bool { return s.seat == i })
		res.Seats = append(res.Seats, SeatStats{
			Seat:  i,
			Role:  st.Role(i).String(),
			Stats: summarizeSeats(mine),
		})
	}
	role := func(r strategy.Role) []seatTrial {
		return lo.Filter(all, func(s seatTrial, _ int) bool { return st.Role(s.seat) == r })
	}
	def, agg := role(strategy.RoleDefensive), role(strategy.RoleAggressive)
	res.Defensive = summarizeSeats(def)
	res.Aggressive = summarizeSeats(agg)
	res.Neutral = summarizeSeats(role(strategy.RoleNeutral))
	res.All = summarizeSeats(all)

	res.Dealer = stats.Summarize(lo.Map(results, func(tr TrialResult, _ int) float64 { return tr.DealerProfit }))
	res.NonDealer = stats.Summarize(lo.Map(results, func(tr TrialResult, _ int) float64 { return tr.NonDealerProfit }))

	if len(def) > 0 && len(agg) > 0 {
		tt, err := stats.WelchTTest(profits(def), profits(agg))
		res.RoleTest = &tt
		res.Defensive = res.Defensive.WithTest(tt, err)
	}
	res.TrialResults = results
	return res
}

// SeatProfits is seat i's total profit in every trial, in trial order.
func (r *Result) SeatProfits(i int) []float64 {
	return lo.Map(r.TrialResults, func(tr TrialResult, _ int) float64 { return tr.Seats[i].Profit })
}

// SeatUtilities is seat i's total utility in every trial, in trial order.
func (r *Result) SeatUtilities(i int) []float64 {
	return lo.Map(r.TrialResults, func(tr TrialResult, _ int) float64 { return tr.Seats[i].Utility })
}

func profits(ss []seatTrial) []float64 {
	return lo.Map(ss, func(s seatTrial, _ int) float64 { return s.Profit })
}

func summarizeSeats(ss []seatTrial) stats.AggregateStats {
	if len(ss) == 0 {
		return stats.AggregateStats{}
	}
	a := stats.Summarize(profits(ss))
	rounds := lo.SumBy(ss, func(s seatTrial) int { return s.rounds })
	a.WinRate = stats.Proportion(lo.SumBy(ss, func(s seatTrial) int { return s.Wins }), rounds)
	a.DealInRate = stats.Proportion(lo.SumBy(ss, func(s seatTrial) int { return s.DealIns }), rounds)
	a.FanHistogram = stats.FanHistogram(lo.FlatMap(ss, func(s seatTrial, _ int) []int { return s.FanSamples }))
	return a
}
