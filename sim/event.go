package sim

import (
	"fmt"
	"math"
)

// EventKind identifies one of the two event types of the single-server model.
// Numbering is significant: on equal times the lower kind is dispatched first.
type EventKind int

const (
	EventNone      EventKind = 0
	EventArrival   EventKind = 1
	EventDeparture EventKind = 2

	numEventKinds = 2
)

// NotScheduled is what Time reports for a kind with no pending event. It is
// finite so that it still takes part in earliest-time comparisons.
const NotScheduled = math.MaxFloat64

func (k EventKind) String() string {
	switch k {
	case EventArrival:
		return "arrival"
	case EventDeparture:
		return "departure"
	case EventNone:
		return "none"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// pendingEvent is the explicit optional held per event kind.
type pendingEvent struct {
	scheduled bool
	time      float64
}

// EventList is the future-event list: exactly one entry per EventKind,
// each either scheduled at an absolute time or unscheduled.
type EventList struct {
	next [numEventKinds + 1]pendingEvent // index 0 unused so kinds index directly
}

// Schedule sets the next occurrence of kind to the absolute time t,
// replacing any previous schedule for that kind.
func (el *EventList) Schedule(kind EventKind, t float64) {
	el.mustValid(kind)
	el.next[kind] = pendingEvent{scheduled: true, time: t}
}

// Cancel marks kind as having no pending event.
func (el *EventList) Cancel(kind EventKind) {
	el.mustValid(kind)
	el.next[kind] = pendingEvent{}
}

// Clear unschedules every kind.
func (el *EventList) Clear() {
	for k := EventArrival; k <= numEventKinds; k++ {
		el.next[k] = pendingEvent{}
	}
}

// IsScheduled reports whether kind has a pending event.
func (el *EventList) IsScheduled(kind EventKind) bool {
	el.mustValid(kind)
	return el.next[kind].scheduled
}

// Time returns the scheduled time of kind, or NotScheduled.
func (el *EventList) Time(kind EventKind) float64 {
	el.mustValid(kind)
	if !el.next[kind].scheduled {
		return NotScheduled
	}
	return el.next[kind].time
}

// NextEvent returns the kind and time of the earliest pending event.
// Kinds are scanned in ascending order and only a strictly smaller time
// replaces the current pick, so ties resolve to the lower kind.
// ok is false when no kind holds a time below NotScheduled.
func (el *EventList) NextEvent() (kind EventKind, t float64, ok bool) {
	minTime := NotScheduled
	kind = EventNone
	for k := EventArrival; k <= numEventKinds; k++ {
		if tk := el.Time(k); tk < minTime {
			minTime = tk
			kind = k
		}
	}
	if kind == EventNone {
		return EventNone, NotScheduled, false
	}
	return kind, minTime, true
}

func (el *EventList) mustValid(kind EventKind) {
	if kind < EventArrival || kind > numEventKinds {
		panic(fmt.Sprintf("EventList: invalid event kind %d", int(kind)))
	}
}
