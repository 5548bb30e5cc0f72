// Package variables draws the per-round random state of the reduced round
// model: hand quality, fan potential, deal-in risk, threat level and the
// kong event.
package variables

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/domino14/fansim/errs"
)

// Distribution holds the shape of every per-round draw.
type Distribution struct {
	// Q ~ Beta(QualityA, QualityB)
	QualityA float64
	QualityB float64
	// T ~ Beta(ThreatA, ThreatB)
	ThreatA float64
	ThreatB float64

	// F = round(FanScale*Q + N(0, FanNoise)), clamped to [0, MaxFan]
	FanScale float64
	FanNoise float64
	MaxFan   int

	// R = RiskFloor + RiskSlope*T, clamped to [0, 1]
	RiskFloor float64
	RiskSlope float64

	KongProb  float64
	KongBonus int
}

// DefaultDistribution returns the distribution used by all experiments.
func DefaultDistribution() Distribution {
	return Distribution{
		QualityA:  2,
		QualityB:  2,
		ThreatA:   2,
		ThreatB:   5,
		FanScale:  3,
		FanNoise:  0.75,
		MaxFan:    8,
		RiskFloor: 0.05,
		RiskSlope: 0.6,
		KongProb:  0.2,
		KongBonus: 1,
	}
}

func (d Distribution) Validate() error {
	if d.QualityA <= 0 || d.QualityB <= 0 || d.ThreatA <= 0 || d.ThreatB <= 0 {
		return errs.Configf("beta shape parameters must be positive")
	}
	if d.FanScale < 0 || d.FanNoise < 0 {
		return errs.Configf("fan scale and noise must be non-negative")
	}
	if d.MaxFan < 1 {
		return errs.Configf("max fan must be >= 1, got %d", d.MaxFan)
	}
	if d.KongProb < 0 || d.KongProb > 1 {
		return errs.Configf("kong probability %v outside [0, 1]", d.KongProb)
	}
	if d.KongBonus < 0 {
		return errs.Configf("kong bonus must be non-negative")
	}
	if d.RiskFloor < 0 || d.RiskFloor > 1 || d.RiskSlope < 0 {
		return errs.Configf("risk floor must lie in [0, 1] and slope must be non-negative")
	}
	return nil
}

// Rolls are uniform draws taken with the rest of the round so that policies
// stay pure functions of a Variables value.
type Rolls struct {
	// Complete < Q means the hand can be completed this round.
	Complete float64
	// Hazard < R means a chasing seat discards into an opponent.
	Hazard float64
	// Source < R means a win came off a discard rather than a self-draw.
	Source float64
	// Chase is the roll a seat that keeps drawing on a hand it may not
	// declare uses to decide whether to press on.
	Chase float64
}

// Variables is one round's random state. It is a value; nothing holds on
// to it after the round is scored.
type Variables struct {
	Q float64
	F int
	R float64
	T float64
	K bool

	Rolls Rolls
	// OpponentFan is the fan of the hand this seat would deal into.
	OpponentFan int

	// KongBonus is the fan K adds when set; MaxFan caps TotalFan, zero
	// meaning no cap.
	KongBonus int
	MaxFan    int
	// FanGrowth multiplies the hand's fan before the cap; values at or
	// below one leave it alone.
	FanGrowth float64
}

// TotalFan is the fan potential plus any kong bonus, grown and capped.
func (v Variables) TotalFan() int {
	f := v.F
	if v.K {
		f += v.KongBonus
	}
	if v.FanGrowth > 1 {
		f = int(float64(f) * v.FanGrowth)
	}
	if v.MaxFan > 0 && f > v.MaxFan {
		f = v.MaxFan
	}
	return f
}

// Ready reports whether the hand can be completed this round.
func (v Variables) Ready() bool {
	return v.Rolls.Complete < v.Q
}

// WithRiskScale returns a copy whose deal-in risk is multiplied by c.
func (v Variables) WithRiskScale(c float64) Variables {
	v.R = clamp01(v.R * c)
	return v
}

// WithFanGrowth returns a copy whose fan is multiplied by g and truncated.
func (v Variables) WithFanGrowth(g float64) Variables {
	v.FanGrowth = g
	return v
}

// Sampler produces Variables from a single seeded generator. It is not
// safe for concurrent use; give every trial its own.
type Sampler struct {
	dist Distribution
	rng  *rand.Rand

	quality distuv.Beta
	threat  distuv.Beta
	noise   distuv.Normal
	kong    distuv.Bernoulli
}

// NewSampler returns a sampler whose stream is fully determined by the two
// seed words.
func NewSampler(dist Distribution, seed1, seed2 uint64) (*Sampler, error) {
	if err := dist.Validate(); err != nil {
		return nil, err
	}
	src := rand.NewPCG(seed1, seed2)
	return &Sampler{
		dist:    dist,
		rng:     rand.New(src),
		quality: distuv.Beta{Alpha: dist.QualityA, Beta: dist.QualityB, Src: src},
		threat:  distuv.Beta{Alpha: dist.ThreatA, Beta: dist.ThreatB, Src: src},
		noise:   distuv.Normal{Mu: 0, Sigma: dist.FanNoise, Src: src},
		kong:    distuv.Bernoulli{P: dist.KongProb, Src: src},
	}, nil
}

// Rand exposes the underlying generator for draws that are not part of a
// seat's variables, such as picking the discarder at a table.
func (s *Sampler) Rand() *rand.Rand {
	return s.rng
}

func (s *Sampler) fan(q float64) int {
	f := s.dist.FanScale*q + s.sampleNoise()
	return clampInt(int(math.Round(f)), 0, s.dist.MaxFan)
}

func (s *Sampler) sampleNoise() float64 {
	if s.dist.FanNoise == 0 {
		return 0
	}
	return s.noise.Rand()
}

// Sample draws one round. Draw order is fixed so that the stream does not
// depend on what callers later do with the values.
func (s *Sampler) Sample() Variables {
	q := s.quality.Rand()
	t := s.threat.Rand()
	f := s.fan(q)
	k := s.kong.Rand() == 1

	rolls := Rolls{
		Complete: s.rng.Float64(),
		Hazard:   s.rng.Float64(),
		Source:   s.rng.Float64(),
	}
	oppFan := s.fan(s.quality.Rand())
	rolls.Chase = s.rng.Float64()

	return Variables{
		Q:           q,
		F:           f,
		R:           clamp01(s.dist.RiskFloor + s.dist.RiskSlope*t),
		T:           t,
		K:           k,
		Rolls:       rolls,
		OpponentFan: oppFan,
		KongBonus:   s.dist.KongBonus,
		MaxFan:      s.dist.MaxFan,
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
