package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/domino14/fansim/experiment"
	"github.com/domino14/fansim/stats"
	"github.com/domino14/fansim/table"
)

const (
	histBins  = 8
	histWidth = 40
)

func writeText(w io.Writer, opts experiment.Options, result any) error {
	var ss strings.Builder
	printer := message.NewPrinter(language.English)
	fmt.Fprintf(&ss, "seed %d, ", opts.Seed)
	printer.Fprintf(&ss, "%d trials x %d rounds\n\n", opts.Trials, opts.Rounds)
	switch r := result.(type) {
	case *experiment.Comparison:
		writeComparison(&ss, r)
	case *experiment.CompositionResult:
		writeComposition(&ss, r)
	case *experiment.TableSweepResult:
		writeTables(&ss, r)
	case *experiment.SensitivityResult:
		writeSensitivity(&ss, r)
	case *experiment.DemoResult:
		writeDemo(&ss, r)
	default:
		return fmt.Errorf("cannot print %T", result)
	}
	if _, err := io.WriteString(w, ss.String()); err != nil {
		return err
	}
	for _, h := range histograms(result) {
		fmt.Fprintf(w, "\nfan distribution, %s:\n", h.name)
		if err := histogram.Fprint(w, h.hist, histogram.Linear(histWidth)); err != nil {
			return err
		}
	}
	return nil
}

func writeAggregate(ss *strings.Builder, label string, a stats.AggregateStats) {
	fmt.Fprintf(ss, "%-12s%12.2f  [%10.2f, %10.2f]  sd %9.2f  win %6.4f  deal-in %6.4f",
		label, a.Mean, a.CILow, a.CIHigh, a.StdDev, a.WinRate, a.DealInRate)
	if a.RuinRate > 0 {
		fmt.Fprintf(ss, "  ruin %6.4f", a.RuinRate)
	}
	if a.Degenerate {
		fmt.Fprint(ss, "  (degenerate)")
	}
	fmt.Fprintln(ss)
}

func writeComparison(ss *strings.Builder, c *experiment.Comparison) {
	fmt.Fprintf(ss, "%-12s%12s  %-26s\n", "Policy", "Mean "+c.Measure, "95% CI")
	pick := func(r experiment.RoleSummary) stats.AggregateStats {
		if c.Measure == "utility" {
			return r.Utility
		}
		return r.Profit
	}
	writeAggregate(ss, c.Defensive.Policy, pick(c.Defensive))
	writeAggregate(ss, c.Aggressive.Policy, pick(c.Aggressive))
	fmt.Fprintf(ss, "\nmean fan: %s %.2f, %s %.2f\n",
		c.Defensive.Policy, c.Defensive.MeanFan, c.Aggressive.Policy, c.Aggressive.MeanFan)
	fmt.Fprintf(ss, "Welch t = %.4f, df = %.1f, p = %.4g", c.Test.T, c.Test.DF, c.Test.P)
	if c.Significant {
		fmt.Fprint(ss, " (significant)")
	}
	fmt.Fprintln(ss)
}

func writeFit(ss *strings.Builder, label string, r stats.Regression) {
	fmt.Fprintf(ss, "%-12sslope %10.3f  intercept %10.3f  R^2 %.4f\n", label, r.Slope, r.Intercept, r.RSquared)
}

func writeComposition(ss *strings.Builder, c *experiment.CompositionResult) {
	for _, p := range c.Points {
		fmt.Fprintf(ss, "theta %.2f (risk x%.3f)\n", p.Theta, p.RiskScale)
		writeAggregate(ss, p.Defensive.Policy, p.Defensive.Profit)
		writeAggregate(ss, p.Aggressive.Policy, p.Aggressive.Profit)
	}
	fmt.Fprintln(ss)
	writeFit(ss, "DEF fit", c.DefensiveFit)
	writeFit(ss, "AGG fit", c.AggressiveFit)
}

func writeTables(ss *strings.Builder, c *experiment.TableSweepResult) {
	for _, t := range c.Tables {
		fmt.Fprintf(ss, "theta %d: %d trials\n", t.Theta, t.Trials)
		for _, s := range t.Seats {
			writeAggregate(ss, fmt.Sprintf("seat %d %.3s", s.Seat, s.Role), s.Stats)
		}
		writeAggregate(ss, "dealer", t.Dealer)
		writeAggregate(ss, "non-dealer", t.NonDealer)
		if t.RoleTest != nil {
			fmt.Fprintf(ss, "DEF vs AGG: t = %.4f, p = %.4g\n", t.RoleTest.T, t.RoleTest.P)
		}
		fmt.Fprintln(ss)
	}
	writeFit(ss, "DEF fit", c.DefensiveFit)
	writeFit(ss, "AGG fit", c.AggressiveFit)
}

func writeSweep(ss *strings.Builder, sw experiment.Sweep, utility bool) {
	fmt.Fprintf(ss, "%s:\n", sw.Param)
	pick := func(r experiment.RoleSummary) stats.AggregateStats {
		if utility {
			return r.Utility
		}
		return r.Profit
	}
	for _, p := range sw.Points {
		if p.Defensive != nil {
			writeAggregate(ss, fmt.Sprintf("%g %s", p.Value, p.Defensive.Policy), pick(*p.Defensive))
		}
		writeAggregate(ss, fmt.Sprintf("%g %s", p.Value, p.Aggressive.Policy), pick(p.Aggressive))
	}
	fmt.Fprintln(ss)
}

func writeSensitivity(ss *strings.Builder, c *experiment.SensitivityResult) {
	fmt.Fprintf(ss, "%d trials per point\n\n", c.Trials)
	writeSweep(ss, c.Penalty, false)
	writeSweep(ss, c.Alpha, true)
	writeSweep(ss, c.Threshold, false)
	writeSweep(ss, c.BasePoints, false)
	for _, p := range c.Threshold.Points {
		fmt.Fprintf(ss, "threshold %g: mean fan %.2f, utility %.2f\n",
			p.Value, p.Aggressive.MeanFan, p.Aggressive.Utility.Mean)
	}
}

func writeDemo(ss *strings.Builder, d *experiment.DemoResult) {
	fmt.Fprintf(ss, "%-8s%12s%12s%10s%10s%10s%10s%10s\n", "Policy", "Profit", "Utility",
		"Mean fan", "Win rate", "Round sd", "Best", "Worst")
	for _, t := range []experiment.DemoTrial{d.Defensive, d.Aggressive} {
		fmt.Fprintf(ss, "%-8s%12.2f%12.2f%10.2f%10.4f%10.2f%10.2f%10.2f", t.Policy, t.Profit, t.Utility,
			t.MeanFan, t.WinRate, t.RoundStdDev, t.BestRound, t.WorstRound)
		if t.Ruined {
			fmt.Fprint(ss, "  ruined")
		}
		fmt.Fprintln(ss)
	}
}

type namedHist struct {
	name string
	hist histogram.Histogram
}

// histograms collects the fan distributions worth plotting for result.
func histograms(result any) []namedHist {
	var out []namedHist
	add := func(name string, h stats.Histogram) {
		if vals := h.Values(); len(vals) > 0 {
			out = append(out, namedHist{name: name, hist: histogram.Hist(histBins, vals)})
		}
	}
	addFans := func(name string, fans []int) {
		vals := make([]float64, len(fans))
		for i, f := range fans {
			vals[i] = float64(f)
		}
		if len(vals) > 0 {
			out = append(out, namedHist{name: name, hist: histogram.Hist(histBins, vals)})
		}
	}
	switch r := result.(type) {
	case *experiment.Comparison:
		add(r.Defensive.Policy, r.Defensive.Profit.FanHistogram)
		add(r.Aggressive.Policy, r.Aggressive.Profit.FanHistogram)
	case *experiment.TableSweepResult:
		for _, t := range r.Tables {
			if t.Theta == table.Seats/2 {
				add("balanced table, all seats", t.All.FanHistogram)
			}
		}
	case *experiment.DemoResult:
		addFans(r.Defensive.Policy, r.Defensive.FanSamples)
		addFans(r.Aggressive.Policy, r.Aggressive.FanSamples)
	}
	return out
}
