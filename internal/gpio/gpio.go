// Package gpio turns the box's push buttons and rotary encoder into
// classified logic.ButtonEvents.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"sync"
	"time"

	"github.com/sweeney/judsound-box/internal/logic"
)

// Source delivers input events and accepts encoder re-seeding.
type Source interface {
	// Events returns the stream of classified events. It is never closed.
	Events() <-chan logic.ButtonEvent

	// SetPosition re-seeds the rotary encoder position.
	SetPosition(pos int)

	// Close releases GPIO resources.
	Close() error
}

// DefaultButtons are the top button pins, left to right.
var DefaultButtons = [logic.TopButtons]int{11, 10, 22, 9}

// Pin definitions (BCM numbering)
const (
	PinMode = 25 // rotary encoder push switch
	PinCLK  = 7
	PinDT   = 8
)

// Config describes the wiring and timing of the inputs.
type Config struct {
	Chip     string
	Buttons  [logic.TopButtons]int
	Mode     int
	CLK      int
	DT       int
	Debounce time.Duration
	Hold     time.Duration
	MaxSteps int
}

// eventBuffer is deep enough to absorb a fast encoder turn while a cue
// is blocking the consumer.
const eventBuffer = 64

// dispatcher stamps and forwards events until closed.
type dispatcher struct {
	events    chan logic.ButtonEvent
	done      chan struct{}
	now       func() time.Time
	closeOnce sync.Once
}

func newDispatcher(now func() time.Time) *dispatcher {
	if now == nil {
		now = time.Now
	}
	return &dispatcher{
		events: make(chan logic.ButtonEvent, eventBuffer),
		done:   make(chan struct{}),
		now:    now,
	}
}

func (d *dispatcher) emit(ev logic.ButtonEvent) {
	if ev.At.IsZero() {
		ev.At = d.now()
	}
	select {
	case d.events <- ev:
	case <-d.done:
	}
}

// Events returns the event stream.
func (d *dispatcher) Events() <-chan logic.ButtonEvent {
	return d.events
}

func (d *dispatcher) stop() {
	d.closeOnce.Do(func() { close(d.done) })
}
