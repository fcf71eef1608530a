// Package testutil provides shared test infrastructure for the mm1 simulator.
// It consolidates scripted random sources and float assertion helpers used
// across sim/ and its sub-package tests.
package testutil

import (
	"math"
	"testing"
)

// ScriptedSource replays a fixed sequence of uniform draws, cycling when exhausted.
// It satisfies sim.UniformSource.
type ScriptedSource struct {
	Values []float64
	next   int
}

// NewScriptedSource returns a source that yields values in order.
func NewScriptedSource(values ...float64) *ScriptedSource {
	return &ScriptedSource{Values: values}
}

// Float64 returns the next scripted value.
func (s *ScriptedSource) Float64() float64 {
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}

// Draws returns how many values have been consumed.
func (s *ScriptedSource) Draws() int {
	return s.next
}

// UniformForDuration returns the uniform draw u for which
// -mean*ln(1-u) == d, i.e. the inverse of the exponential transform.
func UniformForDuration(d, mean float64) float64 {
	return 1 - math.Exp(-d/mean)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
