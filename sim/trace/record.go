// Package trace provides per-event recording of a simulation run for offline analysis.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

// EventRecord captures the system state right after one event was dispatched.
type EventRecord struct {
	Seq        int     `yaml:"seq"`
	Clock      float64 `yaml:"clock"`
	Kind       string  `yaml:"kind"`
	NumInQueue int     `yaml:"num_in_queue"`
	ServerBusy bool    `yaml:"server_busy"`
	Delay      float64 `yaml:"delay,omitempty"` // delay of the customer who entered service, if any
	Served     bool    `yaml:"served,omitempty"`
}
