package config

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/fansim/errs"
	"github.com/domino14/fansim/experiment"
	"github.com/domino14/fansim/strategy"
	"github.com/domino14/fansim/variables"
)

const (
	ConfigBasePoints       = "base-points"
	ConfigFanMin           = "fan-min"
	ConfigTFanThreshold    = "t-fan-threshold"
	ConfigAlpha            = "alpha"
	ConfigPenaltyDealIn    = "penalty-deal-in"
	ConfigCautionThreshold = "caution-threshold"
	ConfigRoundsPerTrial   = "rounds-per-trial"
	ConfigTrials           = "trials"
	ConfigRandomSeed       = "random-seed"
	ConfigInitialBankroll  = "initial-bankroll"
	ConfigTableTrials      = "table-trials"
	ConfigThreads          = "threads"
	ConfigDebug            = "debug"
	ConfigFormat           = "format"
	ConfigConfig           = "config"
)

const EnvPrefix = "FANSIM"

type Config struct {
	*viper.Viper
	// SeedGenerated is set when no seed was configured and one was drawn.
	SeedGenerated bool
}

// DefaultConfig is the configuration with every default and nothing read
// from flags, the environment or a file.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	p := strategy.DefaultParams()
	o := experiment.DefaultOptions()
	c.SetDefault(ConfigBasePoints, p.BasePoints)
	c.SetDefault(ConfigFanMin, p.FanMin)
	c.SetDefault(ConfigTFanThreshold, p.TFanThreshold)
	c.SetDefault(ConfigAlpha, p.Alpha)
	c.SetDefault(ConfigPenaltyDealIn, p.PenaltyDealIn)
	c.SetDefault(ConfigCautionThreshold, p.CautionThreshold)
	c.SetDefault(ConfigInitialBankroll, p.InitialBankroll)
	c.SetDefault(ConfigRoundsPerTrial, o.Rounds)
	c.SetDefault(ConfigTrials, o.Trials)
	c.SetDefault(ConfigTableTrials, o.TableTrials)
	c.SetDefault(ConfigThreads, runtime.NumCPU())
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigFormat, "text")
}

// Load reads flags from args, then FANSIM_* environment variables, then the
// YAML file named by --config. Earlier sources win. It returns the
// positional arguments left after the flags.
func (c *Config) Load(args []string) ([]string, error) {
	if c.Viper == nil {
		c.Viper = viper.New()
	}
	c.setDefaults()

	fs := pflag.NewFlagSet("fansim", pflag.ContinueOnError)
	fs.Float64(ConfigBasePoints, 0, "points of a zero-fan hand (0.5-4)")
	fs.Int(ConfigFanMin, 0, "smallest fan the defensive player declares on")
	fs.Int(ConfigTFanThreshold, 0, "fan the aggressive player chases to (2-6)")
	fs.Float64(ConfigAlpha, 0, "relative risk aversion of the utility curve (0-1)")
	fs.Float64(ConfigPenaltyDealIn, 0, "multiplier paid by the player who deals in (1-5)")
	fs.Float64(ConfigCautionThreshold, 0, "deal-in risk above which a defensive player passes marginal wins")
	fs.Int(ConfigRoundsPerTrial, 0, "rounds in a trial (50-400)")
	fs.Int(ConfigTrials, 0, "single-seat trials (200-5000)")
	fs.Int64(ConfigRandomSeed, 0, "base seed; a random one is drawn when unset")
	fs.Float64(ConfigInitialBankroll, 0, "bankroll a trial can lose before it is ruined (200-5000)")
	fs.Int(ConfigTableTrials, 0, "four-seat table trials (200-2000)")
	fs.Int(ConfigThreads, 0, "parallel trials")
	fs.Bool(ConfigDebug, false, "debug logging")
	fs.String(ConfigFormat, "", "output format: text or yaml")
	fs.String(ConfigConfig, "", "YAML file of settings")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	// Only flags that were given override; unset ones fall through to the
	// defaults above.
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		if err := c.BindPFlag(f.Name, f); err != nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	c.SetEnvPrefix(EnvPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if path := c.GetString(ConfigConfig); path != "" {
		if err := c.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if !c.IsSet(ConfigRandomSeed) {
		seed := int64(frand.Uint64n(math.MaxInt64))
		c.Set(ConfigRandomSeed, seed)
		c.SeedGenerated = true
		log.Info().Int64("seed", seed).Msg("no random seed configured; drew one")
	}
	return fs.Args(), nil
}

// mergeFile reads a YAML settings file. Keys may be written in snake_case.
func (c *Config) mergeFile(path string) error {
	bts, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.MergeYAML(bts)
}

// MergeYAML merges settings from a YAML document, under flags and the
// environment.
func (c *Config) MergeYAML(bts []byte) error {
	raw := map[string]any{}
	if err := yaml.Unmarshal(bts, &raw); err != nil {
		return fmt.Errorf("%w: reading settings: %v", errs.ErrConfiguration, err)
	}
	settings := make(map[string]any, len(raw))
	for k, v := range raw {
		settings[strings.ReplaceAll(strings.ToLower(k), "_", "-")] = v
	}
	return c.MergeConfigMap(settings)
}

// Seed is the configured base seed.
func (c *Config) Seed() int64 {
	return c.GetInt64(ConfigRandomSeed)
}

type floatRange struct {
	key       string
	low, high float64
}

type intRange struct {
	key       string
	low, high int
}

func (c *Config) check() error {
	for _, r := range []floatRange{
		{ConfigBasePoints, 0.5, 4},
		{ConfigAlpha, 0, 1},
		{ConfigPenaltyDealIn, 1, 5},
		{ConfigCautionThreshold, 0, 1},
		{ConfigInitialBankroll, 200, 5000},
	} {
		if v := c.GetFloat64(r.key); v < r.low || v > r.high {
			return errs.Configf("%s = %v outside [%v, %v]", r.key, v, r.low, r.high)
		}
	}
	for _, r := range []intRange{
		{ConfigFanMin, 1, math.MaxInt},
		{ConfigTFanThreshold, 2, 6},
		{ConfigRoundsPerTrial, 50, 400},
		{ConfigTrials, 200, 5000},
		{ConfigTableTrials, 200, 2000},
		{ConfigThreads, 1, math.MaxInt},
	} {
		if err := c.checkIntegral(r.key); err != nil {
			return err
		}
		if v := c.GetInt(r.key); v < r.low || v > r.high {
			return errs.Configf("%s = %d outside [%d, %d]", r.key, v, r.low, r.high)
		}
	}
	switch f := c.GetString(ConfigFormat); f {
	case "text", "yaml":
	default:
		return errs.Configf("unknown format %q", f)
	}
	return nil
}

// checkIntegral rejects a fractional value for an integer key. GetInt
// would otherwise truncate it silently.
func (c *Config) checkIntegral(key string) error {
	f, err := cast.ToFloat64E(c.Get(key))
	if err != nil {
		return errs.Configf("%s: %v", key, err)
	}
	if f != math.Trunc(f) {
		return errs.Configf("%s = %v is not a whole number", key, f)
	}
	return nil
}

// Params returns the validated strategy parameters.
func (c *Config) Params() (strategy.Params, error) {
	if err := c.check(); err != nil {
		return strategy.Params{}, err
	}
	p := strategy.Params{
		FanMin:           c.GetInt(ConfigFanMin),
		TFanThreshold:    c.GetInt(ConfigTFanThreshold),
		PenaltyDealIn:    c.GetFloat64(ConfigPenaltyDealIn),
		BasePoints:       c.GetFloat64(ConfigBasePoints),
		Alpha:            c.GetFloat64(ConfigAlpha),
		CautionThreshold: c.GetFloat64(ConfigCautionThreshold),
		InitialBankroll:  c.GetFloat64(ConfigInitialBankroll),
	}
	return p, p.Validate()
}

// SimOptions returns everything an experiment needs.
func (c *Config) SimOptions() (experiment.Options, error) {
	p, err := c.Params()
	if err != nil {
		return experiment.Options{}, err
	}
	return experiment.Options{
		Params:       p,
		Distribution: variables.DefaultDistribution(),
		Trials:       c.GetInt(ConfigTrials),
		Rounds:       c.GetInt(ConfigRoundsPerTrial),
		TableTrials:  c.GetInt(ConfigTableTrials),
		Seed:         c.Seed(),
		Threads:      c.GetInt(ConfigThreads),
	}, nil
}
