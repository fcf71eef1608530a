package sim

import (
	"fmt"
	"math"
)

// Config groups the run parameters of a single-server simulation.
type Config struct {
	MeanInterarrival  float64 // mean time between arrivals, minutes (must be > 0)
	MeanService       float64 // mean service time, minutes (must be > 0)
	NumDelaysRequired int     // run ends once this many customers completed their delay (must be > 0)
	QueueLimit        int     // waiting-line capacity (0 = DefaultQueueLimit)
}

// NewConfig creates a Config with the default queue limit.
func NewConfig(meanInterarrival, meanService float64, numDelaysRequired int) Config {
	return Config{
		MeanInterarrival:  meanInterarrival,
		MeanService:       meanService,
		NumDelaysRequired: numDelaysRequired,
		QueueLimit:        DefaultQueueLimit,
	}
}

// Validate rejects configurations the engine cannot run.
func (c Config) Validate() error {
	if !(c.MeanInterarrival > 0) || math.IsInf(c.MeanInterarrival, 0) {
		return fmt.Errorf("mean interarrival time must be a positive finite number, got %v", c.MeanInterarrival)
	}
	if !(c.MeanService > 0) || math.IsInf(c.MeanService, 0) {
		return fmt.Errorf("mean service time must be a positive finite number, got %v", c.MeanService)
	}
	if c.NumDelaysRequired <= 0 {
		return fmt.Errorf("number of delays required must be > 0, got %d", c.NumDelaysRequired)
	}
	if c.QueueLimit < 0 {
		return fmt.Errorf("queue limit must be >= 0, got %d", c.QueueLimit)
	}
	return nil
}

// TrafficIntensity returns rho = MeanService / MeanInterarrival.
func (c Config) TrafficIntensity() float64 {
	return c.MeanService / c.MeanInterarrival
}

func (c Config) queueLimit() int {
	if c.QueueLimit == 0 {
		return DefaultQueueLimit
	}
	return c.QueueLimit
}
