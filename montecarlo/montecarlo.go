// Package montecarlo runs the single-seat simulation: one round at a time
// within a trial, many independent trials in parallel.
package montecarlo

import (
	"context"
	"encoding/binary"
	"errors"
	"expvar"
	"runtime"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/fansim/errs"
	"github.com/domino14/fansim/scoring"
	"github.com/domino14/fansim/stats"
	"github.com/domino14/fansim/strategy"
	"github.com/domino14/fansim/variables"
)

/*
	How to simulate:

	For trial in trials (parallel, each with its own seeded sampler):
		For round in rounds (sequential):
			sample variables
			let the policy decide
			score, add to the trial's running totals
			if the bankroll floor is hit, the trial is ruined and the
			remaining rounds are still sampled but count for nothing

	Trial i's generator is seeded from (baseSeed, i) alone, so the result
	slice does not depend on the thread count or on scheduling.
*/

var TrialCounter *expvar.Int

func init() {
	TrialCounter = expvar.NewInt("fansimTrials")
}

// TrialSeed derives the two PCG seed words of trial i.
func TrialSeed(baseSeed int64, trial int) (uint64, uint64) {
	var buf [17]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(baseSeed))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(trial))
	s1 := xxhash.Sum64(buf[:])
	buf[16] = 1
	s2 := xxhash.Sum64(buf[:])
	return s1, s2
}

// TrialResult is one trial's running totals.
type TrialResult struct {
	TotalProfit   float64
	TotalUtility  float64
	Rounds        int
	RoundsWon     int
	RoundsDealtIn int
	RoundsFolded  int
	RoundsMissed  int
	// FanSamples holds the fan of every declared win, in round order.
	FanSamples []int

	Ruined bool
	// RuinRound is the index of the round that hit the floor, or -1.
	RuinRound   int
	MaxDrawdown float64
	// RoundProfit runs over every round's profit, absorbed rounds included.
	RoundProfit stats.Statistic
}

// SimulateRound samples one round from s and lets pol decide it. The deal-in
// risk is scaled by riskScale, which models the rest of the table.
func SimulateRound(pol strategy.Policy, p strategy.Params, s *variables.Sampler,
	riskScale float64) strategy.Outcome {

	v := s.Sample()
	if riskScale != 1 {
		v = v.WithRiskScale(riskScale)
	}
	return pol.Decide(v, p)
}

// SimulateTrial plays rounds rounds in order. Once cumulative profit falls
// to -InitialBankroll the trial is ruined: that round's loss is truncated
// at the floor, its utility is taken from the truncated loss, and every
// later round is recorded as zero.
func SimulateTrial(pol strategy.Policy, p strategy.Params, rounds int,
	s *variables.Sampler, riskScale float64) TrialResult {

	res := TrialResult{Rounds: rounds, RuinRound: -1}
	var peak float64
	for r := 0; r < rounds; r++ {
		// Always sample, so ruin does not shift the stream.
		o := SimulateRound(pol, p, s, riskScale)
		if res.Ruined {
			res.RoundProfit.Push(0)
			continue
		}
		profit, utility := o.Profit, o.Utility
		if p.InitialBankroll > 0 && res.TotalProfit+profit <= -p.InitialBankroll {
			profit = -p.InitialBankroll - res.TotalProfit
			// Only the money term changes; regret and fold costs stay.
			utility += scoring.Utility(profit, p.Alpha) - scoring.Utility(o.Profit, p.Alpha)
			res.Ruined = true
			res.RuinRound = r
		}
		res.TotalProfit += profit
		res.RoundProfit.Push(profit)
		res.TotalUtility += utility
		if o.Won {
			res.RoundsWon++
			res.FanSamples = append(res.FanSamples, o.Fan)
		}
		if o.DealIn {
			res.RoundsDealtIn++
		}
		if o.Folded {
			res.RoundsFolded++
		}
		if o.Missed {
			res.RoundsMissed++
		}
		peak = max(peak, res.TotalProfit)
		res.MaxDrawdown = max(res.MaxDrawdown, peak-res.TotalProfit)
	}
	return res
}

// Simulator holds the settings shared by every trial of a run.
type Simulator struct {
	dist      variables.Distribution
	threads   int
	riskScale float64
}

func NewSimulator() *Simulator {
	return &Simulator{
		dist:      variables.DefaultDistribution(),
		threads:   runtime.NumCPU(),
		riskScale: 1,
	}
}

func (s *Simulator) SetThreads(threads int) {
	s.threads = max(threads, 1)
}

func (s *Simulator) Threads() int {
	return s.threads
}

func (s *Simulator) SetDistribution(d variables.Distribution) {
	s.dist = d
}

// SetRiskScale multiplies every sampled deal-in risk by c.
func (s *Simulator) SetRiskScale(c float64) {
	s.riskScale = c
}

// RunTrials validates its inputs, then runs trials independent trials of
// rounds rounds each. Trial i always lands in position i.
func (s *Simulator) RunTrials(ctx context.Context, pol strategy.Policy, p strategy.Params,
	trials, rounds int, baseSeed int64) ([]TrialResult, error) {

	logger := zerolog.Ctx(ctx)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.dist.Validate(); err != nil {
		return nil, err
	}
	if err := p.ValidateReach(pol.Role(), s.dist.MaxFan); err != nil {
		return nil, err
	}
	if trials < 1 || rounds < 1 {
		return nil, errs.Configf("need at least one trial and one round, got %d x %d", trials, rounds)
	}
	if s.riskScale < 0 {
		return nil, errs.Configf("risk scale must be non-negative, got %v", s.riskScale)
	}
	logger.Debug().Str("policy", pol.Name()).Int("trials", trials).Int("rounds", rounds).
		Int64("seed", baseSeed).Int("threads", s.threads).Msg("run-trials-start")

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
			s1, s2 := TrialSeed(baseSeed, i)
			sampler, err := variables.NewSampler(s.dist, s1, s2)
			if err != nil {
				return err
			}
			results[i] = SimulateTrial(pol, p, rounds, sampler, s.riskScale)
			TrialCounter.Add(1)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Debug().AnErr("ctxErr", err).Msg("run-trials-canceled")
		}
		return nil, err
	}
	logger.Debug().Str("policy", pol.Name()).Msg("run-trials-done")
	return results, nil
}

// RunTrials runs with the default distribution on every CPU.
func RunTrials(ctx context.Context, pol strategy.Policy, p strategy.Params,
	trials, rounds int, baseSeed int64) ([]TrialResult, error) {
	return NewSimulator().RunTrials(ctx, pol, p, trials, rounds, baseSeed)
}
