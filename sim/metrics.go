// Accumulates the running totals of a simulation run: customer delays and the
// time-weighted areas under the queue-length and server-busy step functions.

package sim

import (
	"fmt"
	"io"
)

// Statistics holds the running totals for one simulation run.
type Statistics struct {
	NumDelayed     int     // Customers whose queueing delay is complete
	TotalDelay     float64 // Sum of individual delays in queue
	MaxDelay       float64 // Largest single delay observed
	AreaNumInQueue float64 // Integral of number-in-queue over time
	AreaServerBusy float64 // Integral of the server-busy indicator over time
	TimeLastEvent  float64 // Clock value at the previous area update
	MaxNumInQueue  int     // Peak waiting-line length
	NumArrivals    int     // Arrival events dispatched
	NumDepartures  int     // Departure events dispatched
}

// UpdateAreas integrates the state that held during (TimeLastEvent, now].
// It must run after the clock advance and before the event mutates state.
func (s *Statistics) UpdateAreas(now float64, numInQueue int, busy bool) {
	elapsed := now - s.TimeLastEvent
	s.TimeLastEvent = now

	s.AreaNumInQueue += float64(numInQueue) * elapsed
	if busy {
		s.AreaServerBusy += elapsed
	}
}

// RecordDelay adds one completed queueing delay.
func (s *Statistics) RecordDelay(delay float64) {
	s.TotalDelay += delay
	s.NumDelayed++
	if delay > s.MaxDelay {
		s.MaxDelay = delay
	}
}

// ObserveQueueLength tracks the peak waiting-line length.
func (s *Statistics) ObserveQueueLength(n int) {
	if n > s.MaxNumInQueue {
		s.MaxNumInQueue = n
	}
}

// Report is the set of summary measures handed to the report writer.
type Report struct {
	NumDelayed    int     `yaml:"num_delayed" json:"num_delayed"`
	AvgDelay      float64 `yaml:"avg_delay" json:"avg_delay"`
	MaxDelay      float64 `yaml:"max_delay" json:"max_delay"`
	AvgNumInQueue float64 `yaml:"avg_num_in_queue" json:"avg_num_in_queue"`
	MaxNumInQueue int     `yaml:"max_num_in_queue" json:"max_num_in_queue"`
	Utilization   float64 `yaml:"utilization" json:"utilization"`
	EndTime       float64 `yaml:"end_time" json:"end_time"`
}

// Report derives the summary measures at clock value end.
// Ratios with a zero denominator are reported as 0.
func (s *Statistics) Report(end float64) Report {
	r := Report{
		NumDelayed:    s.NumDelayed,
		MaxDelay:      s.MaxDelay,
		MaxNumInQueue: s.MaxNumInQueue,
		EndTime:       end,
	}
	if s.NumDelayed > 0 {
		r.AvgDelay = s.TotalDelay / float64(s.NumDelayed)
	}
	if end > 0 {
		r.AvgNumInQueue = s.AreaNumInQueue / end
		r.Utilization = s.AreaServerBusy / end
	}
	return r
}

// Print writes the summary measures in the classic single-server report layout.
func (r Report) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"\n\nAverage delay in queue%11.3f minutes\n\n"+
			"Average number in queue%10.3f\n\n"+
			"Server utilization%15.3f\n\n"+
			"Time simulation ended%12.3f minutes\n",
		r.AvgDelay, r.AvgNumInQueue, r.Utilization, r.EndTime)
	return err
}
