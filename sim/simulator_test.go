package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/mm1-sim/sim/internal/testutil"
	"github.com/inference-sim/mm1-sim/sim/trace"
)

// scriptedRun returns a simulator whose draws yield, in order:
//
//	first arrival at 1.0
//	t=1.0 arrival:   next arrival +0.5, service 2.0  (departure at 3.0)
//	t=1.5 arrival:   next arrival +1.0               (queued)
//	t=2.5 arrival:   next arrival +2.0               (queued)
//	t=3.0 departure: service 0.5                     (delay 1.5)
//	t=3.5 departure: service 0.25                    (delay 1.0)
func scriptedRun(t *testing.T, target int, opts ...Option) *Simulator {
	t.Helper()
	u := testutil.UniformForDuration
	src := testutil.NewScriptedSource(
		u(1.0, 1.0),
		u(0.5, 1.0), u(2.0, 0.5),
		u(1.0, 1.0),
		u(2.0, 1.0),
		u(0.5, 0.5),
		u(0.25, 0.5),
	)
	s, err := NewSimulator(Config{MeanInterarrival: 1.0, MeanService: 0.5, NumDelaysRequired: target, QueueLimit: 10}, src, opts...)
	require.NoError(t, err)
	return s
}

func TestNewSimulator_InitialState(t *testing.T) {
	// GIVEN a freshly built simulator
	s := scriptedRun(t, 3)

	// THEN it is initializing, idle, empty, with one arrival pending
	assert.Equal(t, StateInitializing, s.State())
	assert.Equal(t, ServerIdle, s.Server())
	assert.Equal(t, 0, s.Queue().Len())
	assert.Equal(t, 0.0, s.Clock)
	assert.InDelta(t, 1.0, s.Events().Time(EventArrival), 1e-9)
	assert.False(t, s.Events().IsScheduled(EventDeparture))
	assert.Equal(t, Statistics{}, s.Stats())
}

func TestNewSimulator_InvalidConfig(t *testing.T) {
	_, err := NewSimulator(NewConfig(0, 1, 1), testutil.NewScriptedSource(0.5))
	assert.Error(t, err)

	_, err = NewSimulator(NewConfig(1, 1, 1), nil)
	assert.Error(t, err)
}

func TestSimulator_ScriptedRun_HandComputedTotals(t *testing.T) {
	// GIVEN the scripted draw sequence and a target of 3 delays
	s := scriptedRun(t, 3)

	// WHEN the run completes
	r, err := s.Run()
	require.NoError(t, err)

	// THEN the totals match the hand-simulated trajectory
	assert.Equal(t, StateTerminatedNormal, s.State())
	assert.Equal(t, 3, r.NumDelayed)
	assert.InDelta(t, 3.5, r.EndTime, 1e-9)
	assert.InDelta(t, (0+1.5+1.0)/3, r.AvgDelay, 1e-9)
	assert.InDelta(t, 2.5/3.5, r.AvgNumInQueue, 1e-9)
	assert.InDelta(t, 2.5/3.5, r.Utilization, 1e-9)
	assert.InDelta(t, 1.5, r.MaxDelay, 1e-9)
	assert.Equal(t, 2, r.MaxNumInQueue)

	st := s.Stats()
	assert.Equal(t, 3, st.NumArrivals)
	assert.Equal(t, 2, st.NumDepartures)
	assert.Equal(t, 0, s.Queue().Len())
}

func TestSimulator_Step_AreasUseStateBeforeEvent(t *testing.T) {
	// GIVEN the scripted run after the first two arrivals (server busy, one waiting)
	s := scriptedRun(t, 100)
	require.NoError(t, s.Step())
	require.NoError(t, s.Step())
	require.Equal(t, 1, s.Queue().Len())

	// WHEN the third arrival at t=2.5 is processed
	require.NoError(t, s.Step())

	// THEN the queue area counts one customer over (1.5, 2.5], not two
	st := s.Stats()
	assert.InDelta(t, 1.0, st.AreaNumInQueue, 1e-9)
	assert.InDelta(t, 1.5, st.AreaServerBusy, 1e-9)
	assert.Equal(t, 2, s.Queue().Len())
}

func TestSimulator_DepartureWithEmptyLine_GoesIdle(t *testing.T) {
	// GIVEN service completes before the next arrival
	u := testutil.UniformForDuration
	src := testutil.NewScriptedSource(
		u(1.0, 1.0),            // first arrival at 1.0
		u(5.0, 1.0), u(1.0, 1), // next arrival at 6.0, departure at 2.0
	)
	s, err := NewSimulator(Config{MeanInterarrival: 1, MeanService: 1, NumDelaysRequired: 10}, src)
	require.NoError(t, err)
	require.NoError(t, s.Step())
	require.Equal(t, ServerBusy, s.Server())

	// WHEN the departure fires
	require.NoError(t, s.Step())

	// THEN the server is idle and no departure is pending
	assert.Equal(t, EventDeparture, s.LastEvent())
	assert.Equal(t, ServerIdle, s.Server())
	assert.False(t, s.Events().IsScheduled(EventDeparture))
	assert.Equal(t, NotScheduled, s.Events().Time(EventDeparture))
}

func TestSimulator_Invariants_HoldEveryStep(t *testing.T) {
	// GIVEN a seeded run near saturation
	src := rand.New(rand.NewSource(11))
	s, err := NewSimulator(Config{MeanInterarrival: 1.0, MeanService: 0.9, NumDelaysRequired: 2000, QueueLimit: 10000}, src)
	require.NoError(t, err)

	prevClock := 0.0
	prev := s.Stats()
	for !s.Done() {
		require.NoError(t, s.Step())
		st := s.Stats()

		// clock and areas never decrease
		require.GreaterOrEqual(t, s.Clock, prevClock)
		require.GreaterOrEqual(t, st.AreaNumInQueue, prev.AreaNumInQueue)
		require.GreaterOrEqual(t, st.AreaServerBusy, prev.AreaServerBusy)
		require.GreaterOrEqual(t, st.TotalDelay, prev.TotalDelay)

		// busy <=> departure pending
		require.Equal(t, s.Server() == ServerBusy, s.Events().IsScheduled(EventDeparture))
		// arrivals are always pending
		require.True(t, s.Events().IsScheduled(EventArrival))
		// busy area never exceeds elapsed time
		require.LessOrEqual(t, st.AreaServerBusy, s.Clock+1e-9)

		prevClock, prev = s.Clock, st
	}

	assert.Equal(t, 2000, s.Stats().NumDelayed)
}

func TestSimulator_Run_CompletesExactlyTarget(t *testing.T) {
	for _, target := range []int{1, 2, 17, 500} {
		s, err := NewSimulator(NewConfig(1.0, 0.8, target), rand.New(rand.NewSource(int64(target))))
		require.NoError(t, err)
		r, err := s.Run()
		require.NoError(t, err)
		assert.Equal(t, target, r.NumDelayed, "target %d", target)
	}
}

func TestSimulator_QueueOverflow_IsFatal(t *testing.T) {
	// GIVEN a line of capacity 3 and service effectively infinite:
	// every draw is 0.5, so arrivals come every ln2 and service is capped at 1e30
	src := testutil.NewScriptedSource(0.5)
	s, err := NewSimulator(Config{MeanInterarrival: 1.0, MeanService: 1e40, NumDelaysRequired: 1000, QueueLimit: 3}, src)
	require.NoError(t, err)

	// WHEN the run proceeds
	r, err := s.Run()

	// THEN the fifth arrival overflows the line
	var fe *FatalError
	require.True(t, errors.As(err, &fe), "want *FatalError, got %v", err)
	assert.Equal(t, ConditionQueueOverflow, fe.Condition)
	assert.InDelta(t, 5*math.Ln2, fe.Time, 1e-9)
	assert.Equal(t, ExitQueueOverflow, ExitCode(err))
	assert.Equal(t, StateTerminatedFatal, s.State())

	// and the state was not corrupted by the rejected push
	assert.Equal(t, 3, s.Queue().Len())
	assert.Equal(t, 1, r.NumDelayed)
	assert.Equal(t, ServerBusy, s.Server())
	assert.Equal(t, MaxVariate+math.Ln2, s.Events().Time(EventDeparture))
}

func TestSimulator_ClearedEventList_IsFatalAtNextAdvance(t *testing.T) {
	// GIVEN a run in progress
	s, err := NewSimulator(NewConfig(1.0, 0.5, 1000), rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Step())
	}
	clock := s.Clock

	// WHEN both schedules are cleared by direct injection
	s.Events().Clear()
	err = s.Step()

	// THEN the next time advance reports an empty event list at the current time
	var fe *FatalError
	require.True(t, errors.As(err, &fe), "want *FatalError, got %v", err)
	assert.Equal(t, ConditionEventListEmpty, fe.Condition)
	assert.Equal(t, clock, fe.Time)
	assert.Equal(t, clock, s.Clock)
	assert.Equal(t, ExitEventListEmpty, ExitCode(err))
	assert.Equal(t, StateTerminatedFatal, s.State())
}

func TestSimulator_StepAfterTermination(t *testing.T) {
	s := scriptedRun(t, 1)
	_, err := s.Run()
	require.NoError(t, err)
	assert.ErrorIs(t, s.Step(), ErrTerminated)
}

func TestSimulator_FirstStep_EntersRunning(t *testing.T) {
	s := scriptedRun(t, 10)
	require.NoError(t, s.Step())
	assert.Equal(t, StateRunning, s.State())
}

func TestSimulator_EndToEnd_HalfLoad(t *testing.T) {
	// GIVEN mean interarrival 1.0, mean service 0.5, 1000 delays, seed 42
	src := NewStream(NewSimulationKey(42), StreamWorkload)
	s, err := NewSimulator(NewConfig(1.0, 0.5, 1000), src)
	require.NoError(t, err)

	// WHEN the run completes
	r, err := s.Run()
	require.NoError(t, err)

	// THEN measures are sane and near the analytic M/M/1 values (Wq = 0.5).
	// The band of +/-0.35 is about four standard errors of a 1000-customer
	// average at rho = 0.5.
	want, err := AnalyticMM1(1.0, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 1000, r.NumDelayed)
	assert.Greater(t, r.EndTime, 0.0)
	assert.Greater(t, r.Utilization, 0.0)
	assert.Less(t, r.Utilization, 1.0)
	assert.InDelta(t, want.Utilization, r.Utilization, 0.2)
	assert.GreaterOrEqual(t, r.AvgDelay, 0.0)
	assert.GreaterOrEqual(t, r.AvgNumInQueue, 0.0)
	assert.InDelta(t, want.AvgDelay, r.AvgDelay, 0.35)
}

func TestSimulator_Determinism_BitIdentical(t *testing.T) {
	// GIVEN two runs with the same seed and parameters
	run := func() (Report, float64) {
		src := NewStream(NewSimulationKey(2024), StreamWorkload)
		s, err := NewSimulator(NewConfig(1.0, 0.7, 800), src)
		require.NoError(t, err)
		r, err := s.Run()
		require.NoError(t, err)
		return r, s.Clock
	}

	r1, c1 := run()
	r2, c2 := run()

	// THEN totals and clock match exactly
	assert.Equal(t, r1, r2)
	assert.Equal(t, math.Float64bits(c1), math.Float64bits(c2))
}

func TestSimulator_WithTrace_RecordsEveryEvent(t *testing.T) {
	// GIVEN a traced scripted run
	et := trace.NewEventTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
	s := scriptedRun(t, 3, WithTrace(et))

	// WHEN it completes
	_, err := s.Run()
	require.NoError(t, err)

	// THEN each dispatched event has a record
	require.Len(t, et.Events, 5)
	kinds := []string{"arrival", "arrival", "arrival", "departure", "departure"}
	for i, e := range et.Events {
		assert.Equal(t, kinds[i], e.Kind, "event %d", i)
	}
	assert.True(t, et.Events[3].Served)
	assert.InDelta(t, 1.5, et.Events[3].Delay, 1e-9)

	summary := trace.Summarize(et)
	assert.Equal(t, 2, summary.MaxNumInQueue)
	assert.Equal(t, 3, summary.CustomersServed)
}
