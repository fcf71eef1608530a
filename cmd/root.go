package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	sim "github.com/inference-sim/mm1-sim/sim"
	"github.com/inference-sim/mm1-sim/sim/replication"
	"github.com/inference-sim/mm1-sim/sim/trace"
)

var (
	// CLI flags for the queueing model
	meanInterarrival float64 // Mean interarrival time (minutes)
	meanService      float64 // Mean service time (minutes)
	numCustomers     int     // Number of customer delays to observe
	queueLimit       int     // Waiting-line capacity
	seed             int64   // Seed for the uniform random stream

	// CLI flags for configuration sources and output
	inputPath       string // Classic one-line input file
	configPath      string // YAML config file
	outputPath      string // Report destination ("" or "-" = stdout)
	logLevel        string // Log verbosity level
	compareAnalytic bool   // Append steady-state M/M/1 values to the report

	// CLI flags for tracing
	traceLevel     string // "none" or "events"
	traceOutPath   string // YAML trace destination
	maxTraceEvents int    // Cap on stored trace records

	// CLI flags for replications
	numReplications int // Independent replications
	numWorkers      int // Concurrent replications (0 = GOMAXPROCS)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "mm1-sim",
	Short: "Discrete-event simulator for a single-server queueing system",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes one simulation using parameters from flags, env and files
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the single-server queueing simulation",
	Run: func(cmd *cobra.Command, args []string) {
		params, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}
		out, err := openOutput(outputPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		if err := runSimulation(params, out); err != nil {
			atexit.Exit(sim.ExitCode(err))
		}
	},
}

// replicateCmd executes independent replications in parallel
var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Run independent replications and report confidence intervals",
	Run: func(cmd *cobra.Command, args []string) {
		params, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		out, err := openOutput(outputPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		if err := runReplications(cmd.Context(), params, out); err != nil {
			atexit.Exit(sim.ExitCode(err))
		}
	},
}

// analyticCmd prints steady-state M/M/1 expectations without simulating
var analyticCmd = &cobra.Command{
	Use:   "analytic",
	Short: "Print steady-state M/M/1 measures for the configured load",
	Run: func(cmd *cobra.Command, args []string) {
		params, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		a, err := sim.AnalyticMM1(params.Sim.MeanInterarrival, params.Sim.MeanService)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := writeAnalytic(os.Stdout, a); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// runSimulation performs one run and writes its report to out. A fatal
// condition writes the diagnostic instead and is returned to the caller.
func runSimulation(params runParams, out io.Writer) error {
	runID := xid.New().String()
	log := logrus.WithField("run_id", runID)
	if rho := params.Sim.TrafficIntensity(); rho >= 1 {
		log.Warnf("Traffic intensity %.3f >= 1: the line will grow without bound", rho)
	}

	if err := writeHeader(out, params.Sim); err != nil {
		return err
	}

	var et *trace.EventTrace
	var opts []sim.Option
	if trace.TraceLevel(traceLevel) == trace.TraceLevelEvents {
		et = trace.NewEventTrace(trace.TraceConfig{Level: trace.TraceLevelEvents, MaxEvents: maxTraceEvents})
		opts = append(opts, sim.WithTrace(et))
	}

	src := sim.NewStream(sim.NewSimulationKey(params.Seed), sim.StreamWorkload)
	s, err := sim.NewSimulator(params.Sim, src, opts...)
	if err != nil {
		return err
	}

	startTime := time.Now()
	report, runErr := s.Run()
	log.Infof("Simulation finished in %v (state=%s)", time.Since(startTime), s.State())

	if traceOutPath != "" && et != nil {
		doc := traceFile{RunID: runID, Summary: trace.Summarize(et), Trace: et}
		if err := writeYAML(traceOutPath, doc); err != nil {
			log.Errorf("Failed to write trace: %v", err)
		}
	}

	if runErr != nil {
		log.Errorf("Simulation aborted: %v", runErr)
		if err := writeDiagnostic(out, runErr); err != nil {
			log.Errorf("Failed to write diagnostic: %v", err)
		}
		return runErr
	}

	if err := report.Print(out); err != nil {
		return err
	}
	if compareAnalytic {
		if a, err := sim.AnalyticMM1(params.Sim.MeanInterarrival, params.Sim.MeanService); err == nil {
			if err := writeAnalytic(out, a); err != nil {
				return err
			}
		} else {
			log.Warnf("No analytic comparison: %v", err)
		}
	}
	log.Info("Simulation complete.")
	return nil
}

// runReplications runs numReplications independent simulations and writes
// the aggregate summary to out.
func runReplications(ctx context.Context, params runParams, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logrus.WithField("batch_id", xid.New().String())

	if err := writeHeader(out, params.Sim); err != nil {
		return err
	}
	summary, err := replication.Run(ctx, params.Sim, sim.NewSimulationKey(params.Seed),
		replication.Options{Replications: numReplications, Workers: numWorkers})
	if err != nil {
		log.Errorf("Replications aborted: %v", err)
		if werr := writeDiagnostic(out, err); werr != nil {
			log.Errorf("Failed to write diagnostic: %v", werr)
		}
		return err
	}
	if err := writeSummary(out, summary); err != nil {
		return err
	}
	if compareAnalytic {
		if a, err := sim.AnalyticMM1(params.Sim.MeanInterarrival, params.Sim.MeanService); err == nil {
			if err := writeAnalytic(out, a); err != nil {
				return err
			}
			if err := writeCoverage(out, summary, a); err != nil {
				return err
			}
		} else {
			log.Warnf("No analytic comparison: %v", err)
		}
	}
	log.Infof("%d replications complete.", summary.Replications)
	return nil
}

// Execute runs the CLI root command. Registered atexit handlers run on every
// exit path, including fatal simulation conditions.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(sim.ExitFailure)
	}
	atexit.Exit(0)
}

// addModelFlags registers the queueing-model and config-source flags on cmd.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&meanInterarrival, keyMeanInterarrival, 1.0, "Mean interarrival time (minutes)")
	cmd.Flags().Float64Var(&meanService, keyMeanService, 0.5, "Mean service time (minutes)")
	cmd.Flags().IntVar(&numCustomers, keyCustomers, 1000, "Number of customer delays to observe")
	cmd.Flags().IntVar(&queueLimit, keyQueueLimit, sim.DefaultQueueLimit, "Waiting-line capacity")
	cmd.Flags().Int64Var(&seed, keySeed, 42, "Seed for the uniform random stream")
	cmd.Flags().StringVar(&inputPath, "input", "", "Classic input file: '<mean interarrival> <mean service> <customers>'")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	addModelFlags(runCmd)
	runCmd.Flags().StringVar(&outputPath, "output", "", "Report file (default stdout)")
	runCmd.Flags().BoolVar(&compareAnalytic, "compare-analytic", false, "Append steady-state M/M/1 values to the report")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Trace verbosity: none, events")
	runCmd.Flags().StringVar(&traceOutPath, "trace-out", "", "Write the event trace and its summary as YAML")
	runCmd.Flags().IntVar(&maxTraceEvents, "max-trace-events", 0, "Maximum stored trace records (0 = unbounded)")

	addModelFlags(replicateCmd)
	replicateCmd.Flags().StringVar(&outputPath, "output", "", "Report file (default stdout)")
	replicateCmd.Flags().BoolVar(&compareAnalytic, "compare-analytic", false, "Append steady-state M/M/1 values to the report")
	replicateCmd.Flags().IntVar(&numReplications, "replications", 10, "Number of independent replications")
	replicateCmd.Flags().IntVar(&numWorkers, "workers", 0, "Concurrent replications (0 = GOMAXPROCS)")

	addModelFlags(analyticCmd)

	rootCmd.AddCommand(runCmd, replicateCmd, analyticCmd)
}
