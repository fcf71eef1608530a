package trace

// TraceSummary aggregates statistics from an EventTrace.
type TraceSummary struct {
	TotalEvents       int            `yaml:"total_events"`
	KindDistribution  map[string]int `yaml:"kind_distribution"` // event kind → count
	MaxNumInQueue     int            `yaml:"max_num_in_queue"`
	CustomersServed   int            `yaml:"customers_served"`
	MeanRecordedDelay float64        `yaml:"mean_recorded_delay"`
	FirstClock        float64        `yaml:"first_clock"`
	LastClock         float64        `yaml:"last_clock"`
}

// Summarize computes aggregate statistics from an EventTrace.
// Safe for nil or empty traces (returns zero-value fields).
// Only stored records contribute; dropped events are not visible here.
func Summarize(et *EventTrace) *TraceSummary {
	summary := &TraceSummary{
		KindDistribution: make(map[string]int),
	}
	if et == nil || len(et.Events) == 0 {
		return summary
	}

	summary.TotalEvents = len(et.Events)
	summary.FirstClock = et.Events[0].Clock
	summary.LastClock = et.Events[len(et.Events)-1].Clock

	totalDelay := 0.0
	for _, e := range et.Events {
		summary.KindDistribution[e.Kind]++
		if e.NumInQueue > summary.MaxNumInQueue {
			summary.MaxNumInQueue = e.NumInQueue
		}
		if e.Served {
			summary.CustomersServed++
			totalDelay += e.Delay
		}
	}
	if summary.CustomersServed > 0 {
		summary.MeanRecordedDelay = totalDelay / float64(summary.CustomersServed)
	}

	return summary
}
