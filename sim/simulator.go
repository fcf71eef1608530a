// sim/simulator.go
package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/mm1-sim/sim/trace"
)

// ServerState is the status of the single server.
type ServerState int

const (
	ServerIdle ServerState = iota
	ServerBusy
)

func (s ServerState) String() string {
	if s == ServerBusy {
		return "busy"
	}
	return "idle"
}

// RunState is the lifecycle state of a Simulator.
type RunState int

const (
	StateInitializing RunState = iota
	StateRunning
	StateTerminatedNormal
	StateTerminatedFatal
)

func (s RunState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateTerminatedNormal:
		return "terminated-normal"
	case StateTerminatedFatal:
		return "terminated-fatal"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// ErrTerminated is returned by Step once the run has ended.
var ErrTerminated = errors.New("simulation already terminated")

// Simulator is the core object that holds simulation time, system state, and
// the event loop of one M/M/1 run. It is not safe for concurrent use; run
// independent replications on independent Simulators.
type Simulator struct {
	Clock float64

	cfg    Config
	src    UniformSource
	events EventList
	queue  *WaitingLine
	server ServerState
	stats  Statistics
	state  RunState
	trace  *trace.EventTrace

	// Last dispatched event, used for logging and tracing.
	lastKind EventKind
}

// Option customises a Simulator at construction.
type Option func(*Simulator)

// WithTrace attaches an event trace recorder.
func WithTrace(et *trace.EventTrace) Option {
	return func(s *Simulator) { s.trace = et }
}

// NewSimulator validates cfg and returns a Simulator in StateInitializing:
// server idle, line empty, first arrival scheduled, no departure pending.
// src supplies every uniform draw of the run.
func NewSimulator(cfg Config, src UniformSource, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	if src == nil {
		return nil, errors.New("invalid simulation config: uniform source must not be nil")
	}
	s := &Simulator{
		Clock:  0,
		cfg:    cfg,
		src:    src,
		queue:  NewWaitingLine(cfg.queueLimit()),
		server: ServerIdle,
		state:  StateInitializing,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.events.Schedule(EventArrival, s.Clock+Exponential(s.src, cfg.MeanInterarrival))
	s.events.Cancel(EventDeparture)
	return s, nil
}

// Run steps the simulation until the required number of delays is observed.
// On a fatal condition it returns the partial report together with a *FatalError.
func (sim *Simulator) Run() (Report, error) {
	logrus.Infof("Starting simulation: mean interarrival=%.3f, mean service=%.3f, delays required=%d, queue limit=%d",
		sim.cfg.MeanInterarrival, sim.cfg.MeanService, sim.cfg.NumDelaysRequired, sim.queue.Cap())

	for !sim.Done() {
		if err := sim.Step(); err != nil {
			logrus.Errorf("[t=%.6f] Simulation aborted: %v", sim.Clock, err)
			return sim.Report(), err
		}
	}
	sim.state = StateTerminatedNormal
	logrus.Infof("[t=%.6f] Simulation ended after %d delays", sim.Clock, sim.stats.NumDelayed)
	return sim.Report(), nil
}

// Done reports whether the required number of delays has been observed.
func (sim *Simulator) Done() bool {
	return sim.stats.NumDelayed >= sim.cfg.NumDelaysRequired
}

// Step performs one time advance, area update and event dispatch.
func (sim *Simulator) Step() error {
	switch sim.state {
	case StateTerminatedNormal, StateTerminatedFatal:
		return ErrTerminated
	case StateInitializing:
		sim.state = StateRunning
	}

	kind, err := sim.timing()
	if err != nil {
		return sim.fail(err)
	}
	sim.stats.UpdateAreas(sim.Clock, sim.queue.Len(), sim.server == ServerBusy)

	logrus.Debugf("[t=%.6f] Executing %s (in queue=%d, server=%s)", sim.Clock, kind, sim.queue.Len(), sim.server)
	var delay float64
	var served bool
	switch kind {
	case EventArrival:
		delay, served, err = sim.arrive()
	case EventDeparture:
		delay, served = sim.depart()
	}
	if err != nil {
		return sim.fail(err)
	}
	sim.lastKind = kind

	sim.trace.RecordEvent(trace.EventRecord{
		Clock:      sim.Clock,
		Kind:       kind.String(),
		NumInQueue: sim.queue.Len(),
		ServerBusy: sim.server == ServerBusy,
		Delay:      delay,
		Served:     served,
	})
	return nil
}

// timing advances the clock to the earliest pending event.
func (sim *Simulator) timing() (EventKind, error) {
	kind, t, ok := sim.events.NextEvent()
	if !ok {
		return EventNone, &FatalError{Condition: ConditionEventListEmpty, Time: sim.Clock}
	}
	sim.Clock = t
	return kind, nil
}

// arrive handles a customer arrival. It reports the delay of the customer
// when that customer goes straight into service.
func (sim *Simulator) arrive() (delay float64, served bool, err error) {
	sim.stats.NumArrivals++
	sim.events.Schedule(EventArrival, sim.Clock+Exponential(sim.src, sim.cfg.MeanInterarrival))

	if sim.server == ServerBusy {
		if err := sim.queue.PushBack(sim.Clock); err != nil {
			return 0, false, &FatalError{Condition: ConditionQueueOverflow, Time: sim.Clock}
		}
		sim.stats.ObserveQueueLength(sim.queue.Len())
		return 0, false, nil
	}

	sim.stats.RecordDelay(0)
	sim.server = ServerBusy
	sim.events.Schedule(EventDeparture, sim.Clock+Exponential(sim.src, sim.cfg.MeanService))
	return 0, true, nil
}

// depart handles a service completion. It reports the delay of the next
// customer taken from the line, if any.
func (sim *Simulator) depart() (delay float64, served bool) {
	sim.stats.NumDepartures++

	arrival, ok := sim.queue.PopFront()
	if !ok {
		sim.server = ServerIdle
		sim.events.Cancel(EventDeparture)
		return 0, false
	}

	delay = sim.Clock - arrival
	sim.stats.RecordDelay(delay)
	sim.events.Schedule(EventDeparture, sim.Clock+Exponential(sim.src, sim.cfg.MeanService))
	return delay, true
}

func (sim *Simulator) fail(err error) error {
	sim.state = StateTerminatedFatal
	return err
}

// Report returns the summary measures at the current clock.
func (sim *Simulator) Report() Report {
	return sim.stats.Report(sim.Clock)
}

// State returns the lifecycle state.
func (sim *Simulator) State() RunState { return sim.state }

// Server returns the current server status.
func (sim *Simulator) Server() ServerState { return sim.server }

// Stats returns a copy of the running totals.
func (sim *Simulator) Stats() Statistics { return sim.stats }

// Queue exposes the waiting line for inspection.
func (sim *Simulator) Queue() *WaitingLine { return sim.queue }

// Events exposes the future-event list. Mutating it is intended for
// fault-injection tests only.
func (sim *Simulator) Events() *EventList { return &sim.events }

// LastEvent returns the kind of the most recently dispatched event.
func (sim *Simulator) LastEvent() EventKind { return sim.lastKind }
