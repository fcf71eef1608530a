// Implements the WaitingLine, which holds the arrival times of customers
// waiting for the server. Customers are appended on arrival while the server
// is busy and removed in arrival order on departure.

package sim

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultQueueLimit is the waiting-line capacity used when none is configured.
const DefaultQueueLimit = 100

// ErrWaitingLineFull is returned by PushBack when the line is at capacity.
var ErrWaitingLineFull = errors.New("waiting line is full")

// WaitingLine is a bounded FIFO of arrival timestamps, backed by a ring buffer
// so that PopFront does not shift the remaining entries.
type WaitingLine struct {
	buf  []float64
	head int // index of the front entry
	size int
}

// NewWaitingLine returns an empty line holding at most capacity customers.
func NewWaitingLine(capacity int) *WaitingLine {
	if capacity <= 0 {
		panic(fmt.Sprintf("NewWaitingLine: capacity must be > 0, got %d", capacity))
	}
	return &WaitingLine{buf: make([]float64, capacity)}
}

// PushBack appends an arrival time. At capacity it returns ErrWaitingLineFull
// and the line is left unchanged.
func (wl *WaitingLine) PushBack(arrival float64) error {
	if wl.size == len(wl.buf) {
		return ErrWaitingLineFull
	}
	wl.buf[(wl.head+wl.size)%len(wl.buf)] = arrival
	wl.size++
	return nil
}

// PopFront removes and returns the earliest arrival time.
// ok is false if the line is empty.
func (wl *WaitingLine) PopFront() (arrival float64, ok bool) {
	if wl.size == 0 {
		return 0, false
	}
	arrival = wl.buf[wl.head]
	wl.head = (wl.head + 1) % len(wl.buf)
	wl.size--
	return arrival, true
}

// Len returns the number of waiting customers.
func (wl *WaitingLine) Len() int {
	return wl.size
}

// Cap returns the capacity fixed at construction.
func (wl *WaitingLine) Cap() int {
	return len(wl.buf)
}

// Items returns a copy of the waiting arrival times, front first.
func (wl *WaitingLine) Items() []float64 {
	out := make([]float64, wl.size)
	for i := range out {
		out[i] = wl.buf[(wl.head+i)%len(wl.buf)]
	}
	return out
}

func (wl *WaitingLine) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range wl.Items() {
		sb.WriteString(fmt.Sprint(val))
		if i < wl.size-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
