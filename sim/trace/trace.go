package trace

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every dispatched arrival and departure.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level     TraceLevel `yaml:"level"`
	MaxEvents int        `yaml:"max_events"` // 0 = unbounded; later events are counted but not stored
}

// EventTrace collects event records during a simulation run.
type EventTrace struct {
	Config  TraceConfig   `yaml:"config"`
	Events  []EventRecord `yaml:"events"`
	Dropped int           `yaml:"dropped"`
}

// NewEventTrace creates an EventTrace ready for recording.
func NewEventTrace(config TraceConfig) *EventTrace {
	return &EventTrace{
		Config: config,
		Events: make([]EventRecord, 0),
	}
}

// Enabled reports whether records should be collected at all.
func (et *EventTrace) Enabled() bool {
	return et != nil && et.Config.Level == TraceLevelEvents
}

// RecordEvent appends an event record, assigning its sequence number.
func (et *EventTrace) RecordEvent(record EventRecord) {
	if !et.Enabled() {
		return
	}
	record.Seq = len(et.Events) + et.Dropped
	if et.Config.MaxEvents > 0 && len(et.Events) >= et.Config.MaxEvents {
		et.Dropped++
		return
	}
	et.Events = append(et.Events, record)
}
