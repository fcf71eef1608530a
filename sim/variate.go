package sim

import "math"

const (
	// uniformEpsilon keeps the uniform draw strictly inside (0,1) so the
	// logarithm below never sees 0.
	uniformEpsilon = 1.0e-10

	// MaxVariate caps exponential draws. Values at this cap behave as
	// "practically never" in earliest-event comparisons.
	MaxVariate = 1.0e30
)

// UniformSource yields uniform draws on [0,1). *rand.Rand satisfies it;
// tests inject scripted sources to pin exact sequences.
type UniformSource interface {
	Float64() float64
}

// Exponential returns an exponentially distributed duration with the given
// mean, by inverse-transform sampling on one draw from src.
// The result is never negative and never exceeds MaxVariate.
func Exponential(src UniformSource, mean float64) float64 {
	u := src.Float64()
	if u <= 0 {
		u = uniformEpsilon
	} else if u >= 1 {
		u = 1 - uniformEpsilon
	}

	d := -mean * math.Log(1-u)
	if d > MaxVariate {
		return MaxVariate
	}
	return d
}
