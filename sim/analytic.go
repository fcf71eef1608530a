package sim

import "fmt"

// Analytic holds the steady-state M/M/1 measures for a given load.
type Analytic struct {
	Rho           float64 `yaml:"rho" json:"rho"`                           // traffic intensity
	AvgDelay      float64 `yaml:"avg_delay" json:"avg_delay"`               // Wq
	AvgNumInQueue float64 `yaml:"avg_num_in_queue" json:"avg_num_in_queue"` // Lq
	Utilization   float64 `yaml:"utilization" json:"utilization"`
}

// AnalyticMM1 returns the steady-state expectations for an M/M/1 queue with
// the given mean interarrival and mean service times. rho must be below 1.
//
//	rho = Ts / Ta
//	Wq  = rho * Ts / (1 - rho)
//	Lq  = rho^2 / (1 - rho)
func AnalyticMM1(meanInterarrival, meanService float64) (Analytic, error) {
	if meanInterarrival <= 0 || meanService <= 0 {
		return Analytic{}, fmt.Errorf("mean times must be > 0, got interarrival=%v service=%v", meanInterarrival, meanService)
	}
	rho := meanService / meanInterarrival
	if rho >= 1 {
		return Analytic{}, fmt.Errorf("queue is unstable: rho=%.4f >= 1", rho)
	}
	return Analytic{
		Rho:           rho,
		AvgDelay:      rho * meanService / (1 - rho),
		AvgNumInQueue: rho * rho / (1 - rho),
		Utilization:   rho,
	}, nil
}
