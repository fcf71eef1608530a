package sim

import (
	"errors"
	"fmt"
)

// FatalCondition names an unrecoverable condition detected by the engine.
type FatalCondition int

const (
	// ConditionEventListEmpty: no event kind held a scheduled time at a time advance.
	ConditionEventListEmpty FatalCondition = iota + 1
	// ConditionQueueOverflow: an arrival found the waiting line at capacity.
	ConditionQueueOverflow
)

func (c FatalCondition) String() string {
	switch c {
	case ConditionEventListEmpty:
		return "event-list-empty"
	case ConditionQueueOverflow:
		return "queue-overflow"
	default:
		return fmt.Sprintf("FatalCondition(%d)", int(c))
	}
}

// Exit statuses for the fatal conditions, kept compatible with the classic tool.
// ExitFailure covers every other error (I/O, cancellation, misuse).
const (
	ExitEventListEmpty = 1
	ExitQueueOverflow  = 2
	ExitFailure        = 3
)

// FatalError reports which condition ended a run and the clock value at which
// it fired. The engine never retries after returning one.
type FatalError struct {
	Condition FatalCondition
	Time      float64
}

func (e *FatalError) Error() string {
	switch e.Condition {
	case ConditionEventListEmpty:
		return fmt.Sprintf("event list empty at time %f", e.Time)
	case ConditionQueueOverflow:
		return fmt.Sprintf("overflow of the array time_arrival at time %f", e.Time)
	default:
		return fmt.Sprintf("%s at time %f", e.Condition, e.Time)
	}
}

// ExitCode maps an error to a process exit status: 0 for nil, 1 for an empty
// event list, 2 for queue overflow, 3 for anything that is not a *FatalError.
// The engine itself never terminates the process.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var fe *FatalError
	if !errors.As(err, &fe) {
		return ExitFailure
	}
	if fe.Condition == ConditionQueueOverflow {
		return ExitQueueOverflow
	}
	return ExitEventListEmpty
}
