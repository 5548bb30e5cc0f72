package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/fansim/config"
	"github.com/domino14/fansim/experiment"
)

var (
	GitVersion string
)

const usage = `usage: fansim [flags] <experiment>

experiments:
  compare      defensive vs aggressive profit
  neutral      each policy against three neutral players
  utility      defensive vs aggressive utility
  composition  single-seat profit as the table turns defensive
  table        four-seat table at every composition
  sensitivity  penalty, alpha, threshold and base point sweeps
  demo         one trial of each
`

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}
	logger := zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	log.Logger = logger

	cfg := &config.Config{}
	rest, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprint(os.Stderr, usage)
		log.Fatal().Err(err).Msg("bad-config")
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Str("version", GitVersion).Msg("Debug logging is on")

	if len(rest) != 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	opts, err := cfg.SimOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	result, err := run(ctx, rest[0], opts)
	if err != nil {
		stop()
		log.Fatal().Err(err).Str("experiment", rest[0]).Msg("experiment-failed")
	}
	log.Info().Str("experiment", rest[0]).Int64("seed", opts.Seed).
		Dur("elapsed", time.Since(start)).Msg("experiment-done")

	if cfg.GetString(config.ConfigFormat) == "yaml" {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			log.Fatal().Err(err).Msg("encode-failed")
		}
		enc.Close()
		return
	}
	if err := writeText(os.Stdout, opts, result); err != nil {
		log.Fatal().Err(err).Msg("write-failed")
	}
}

func run(ctx context.Context, name string, opts experiment.Options) (any, error) {
	switch name {
	case "compare":
		return experiment.Compare(ctx, opts)
	case "neutral":
		return experiment.NeutralTable(ctx, opts)
	case "utility":
		return experiment.UtilityComparison(ctx, opts)
	case "composition":
		return experiment.CompositionSweep(ctx, opts)
	case "table":
		return experiment.TableSweep(ctx, opts)
	case "sensitivity":
		return experiment.Sensitivity(ctx, opts)
	case "demo":
		return experiment.Demo(ctx, opts)
	}
	return nil, fmt.Errorf("unknown experiment %q", name)
}
