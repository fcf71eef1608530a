// Package sim provides the discrete-event simulation engine for a single-server
// (M/M/1) queue.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - event.go: the two-entry future-event list (arrival, departure) and earliest-event selection
//   - queue.go: the bounded FIFO waiting line of arrival timestamps
//   - metrics.go: running totals and time-weighted area accumulation
//   - simulator.go: time advance, area update and arrival/departure dispatch
//
// # Time advance
//
// Every Step advances Clock to the earliest pending event, integrates queue
// length and server status over the interval just elapsed, and only then lets
// the event change state. Ties between an arrival and a departure at the same
// instant are resolved in favour of the arrival.
//
// # Failures
//
// Two conditions end a run: an empty event list and a waiting-line overflow.
// Both are returned as *FatalError; ExitCode maps them to the classic exit
// statuses. Nothing in this package terminates the process.
//
// # Randomness
//
// All draws come from an injected UniformSource. NewStream derives
// reproducible *rand.Rand streams from one seed for single runs and for
// independent replications (see sim/replication).
package sim
