package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tebeka/atexit"
	"gopkg.in/yaml.v3"

	sim "github.com/inference-sim/mm1-sim/sim"
	"github.com/inference-sim/mm1-sim/sim/replication"
	"github.com/inference-sim/mm1-sim/sim/trace"
)

// openOutput returns stdout for "" or "-", otherwise a buffered file that is
// flushed and closed by an atexit handler, so diagnostics survive a fatal exit.
func openOutput(path string) (io.Writer, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	atexit.Register(func() {
		if err := w.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "flush %s: %v\n", path, err)
		}
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close %s: %v\n", path, err)
		}
	})
	return w, nil
}

// writeHeader echoes the run parameters in the classic report layout.
func writeHeader(w io.Writer, cfg sim.Config) error {
	_, err := fmt.Fprintf(w, "Single-server queueing system\n\n"+
		"Mean interarrival time%11.3f minutes\n\n"+
		"Mean service time%16.3f minutes\n\n"+
		"Number of customers%14d\n\n",
		cfg.MeanInterarrival, cfg.MeanService, cfg.NumDelaysRequired)
	return err
}

// writeDiagnostic writes the abort line for a fatal condition.
func writeDiagnostic(w io.Writer, err error) error {
	var fe *sim.FatalError
	if !errors.As(err, &fe) {
		_, werr := fmt.Fprintf(w, "\nSimulation failed: %v\n", err)
		return werr
	}
	var werr error
	switch fe.Condition {
	case sim.ConditionEventListEmpty:
		_, werr = fmt.Fprintf(w, "\nEvent list empty at time %f\n", fe.Time)
	case sim.ConditionQueueOverflow:
		_, werr = fmt.Fprintf(w, "\nOverflow of the array time_arrival at time %f\n", fe.Time)
	default:
		_, werr = fmt.Fprintf(w, "\n%v\n", fe)
	}
	return werr
}

// writeAnalytic appends the steady-state M/M/1 values next to the simulated ones.
func writeAnalytic(w io.Writer, a sim.Analytic) error {
	_, err := fmt.Fprintf(w, "\nSteady-state M/M/1 (rho=%.3f)\n\n"+
		"Expected delay in queue%10.3f minutes\n\n"+
		"Expected number in queue%9.3f\n\n"+
		"Expected utilization%13.3f\n",
		a.Rho, a.AvgDelay, a.AvgNumInQueue, a.Utilization)
	return err
}

// writeSummary prints a replication summary as mean ± half-width per measure.
func writeSummary(w io.Writer, s *replication.Summary) error {
	_, err := fmt.Fprintf(w, "\nReplications%21d\n\n"+
		"Average delay in queue%11.3f ± %.3f minutes\n\n"+
		"Average number in queue%10.3f ± %.3f\n\n"+
		"Server utilization%15.3f ± %.3f\n\n"+
		"Time simulation ended%12.3f ± %.3f minutes\n",
		s.Replications,
		s.AvgDelay.Mean, s.AvgDelay.HalfWidth,
		s.AvgNumInQueue.Mean, s.AvgNumInQueue.HalfWidth,
		s.Utilization.Mean, s.Utilization.HalfWidth,
		s.EndTime.Mean, s.EndTime.HalfWidth)
	return err
}

// writeCoverage reports whether each steady-state value falls inside the
// replication confidence interval.
func writeCoverage(w io.Writer, s *replication.Summary, a sim.Analytic) error {
	inside := func(e replication.Estimate, v float64) string {
		if e.Contains(v) {
			return "inside"
		}
		return "outside"
	}
	_, err := fmt.Fprintf(w, "\nSteady state vs %.0f%% interval\n\n"+
		"Delay in queue%19s\n\n"+
		"Number in queue%18s\n\n"+
		"Utilization%22s\n",
		s.Confidence*100,
		inside(s.AvgDelay, a.AvgDelay),
		inside(s.AvgNumInQueue, a.AvgNumInQueue),
		inside(s.Utilization, a.Utilization))
	return err
}

// traceFile is the YAML document written by --trace-out.
type traceFile struct {
	RunID   string              `yaml:"run_id"`
	Summary *trace.TraceSummary `yaml:"summary"`
	Trace   *trace.EventTrace   `yaml:"trace"`
}

// writeYAML encodes v to path.
func writeYAML(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
