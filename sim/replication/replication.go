// Package replication runs independent replications of the single-server
// simulation in parallel and aggregates their reports.
//
// Each replication owns its Simulator and its *rand.Rand; the only shared
// state is the result slot indexed by replication number.
package replication

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inference-sim/mm1-sim/sim"
)

// DefaultConfidence is the two-sided confidence level of reported intervals.
const DefaultConfidence = 0.95

// Result is the outcome of one replication.
type Result struct {
	Index  int        `yaml:"index"`
	Report sim.Report `yaml:"report"`
}

// Estimate is a point estimate with a confidence-interval half-width.
type Estimate struct {
	Mean      float64 `yaml:"mean"`
	StdDev    float64 `yaml:"std_dev"`
	HalfWidth float64 `yaml:"half_width"`
}

// Contains reports whether v lies in [Mean-HalfWidth, Mean+HalfWidth].
func (e Estimate) Contains(v float64) bool {
	return math.Abs(v-e.Mean) <= e.HalfWidth
}

// Summary aggregates the reports of all replications.
type Summary struct {
	Replications  int      `yaml:"replications"`
	Confidence    float64  `yaml:"confidence"`
	AvgDelay      Estimate `yaml:"avg_delay"`
	AvgNumInQueue Estimate `yaml:"avg_num_in_queue"`
	Utilization   Estimate `yaml:"utilization"`
	EndTime       Estimate `yaml:"end_time"`
	Results       []Result `yaml:"results"`
}

// Options controls a replication batch.
type Options struct {
	Replications int // number of independent runs (must be > 0)
	Workers      int // concurrent runs; 0 = GOMAXPROCS
}

// Run executes opts.Replications independent simulations of cfg. Replication i
// draws from sim.NewStream(key, sim.StreamReplication(i)), so the
// outcome does not depend on scheduling or on opts.Workers.
// The first fatal replication cancels the rest and its error is returned.
func Run(ctx context.Context, cfg sim.Config, key sim.SimulationKey, opts Options) (*Summary, error) {
	if opts.Replications <= 0 {
		return nil, fmt.Errorf("replications must be > 0, got %d", opts.Replications)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, opts.Replications)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < opts.Replications; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := sim.NewSimulator(cfg, sim.NewStream(key, sim.StreamReplication(i)))
			if err != nil {
				return err
			}
			report, err := s.Run()
			if err != nil {
				return fmt.Errorf("replication %d: %w", i, err)
			}
			results[i] = Result{Index: i, Report: report}
			logrus.Debugf("replication %d done: avg delay=%.4f, utilization=%.4f", i, report.AvgDelay, report.Utilization)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Summarize(results, DefaultConfidence), nil
}

// Summarize computes per-metric means, standard deviations and Student-t
// confidence half-widths at the given confidence level.
func Summarize(results []Result, confidence float64) *Summary {
	s := &Summary{
		Replications: len(results),
		Confidence:   confidence,
		Results:      results,
	}
	if len(results) == 0 {
		return s
	}

	delays := make([]float64, len(results))
	inQueue := make([]float64, len(results))
	util := make([]float64, len(results))
	end := make([]float64, len(results))
	for i, r := range results {
		delays[i] = r.Report.AvgDelay
		inQueue[i] = r.Report.AvgNumInQueue
		util[i] = r.Report.Utilization
		end[i] = r.Report.EndTime
	}

	s.AvgDelay = estimate(delays, confidence)
	s.AvgNumInQueue = estimate(inQueue, confidence)
	s.Utilization = estimate(util, confidence)
	s.EndTime = estimate(end, confidence)
	return s
}

func estimate(xs []float64, confidence float64) Estimate {
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		return Estimate{Mean: mean}
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(len(xs) - 1)}
	q := t.Quantile(1 - (1-confidence)/2)
	return Estimate{
		Mean:      mean,
		StdDev:    std,
		HalfWidth: q * std / math.Sqrt(float64(len(xs))),
	}
}
