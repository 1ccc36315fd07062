package gpio

import (
	"sync"
	"time"

	"github.com/sweeney/judsound-box/internal/logic"
)

type stopper interface {
	Stop() bool
}

type press struct {
	at    time.Time
	timer stopper
	held  bool
}

// holdTimer classifies presses. A timer is armed on press and stopped on
// release: release before expiry is a short press, expiry while still down
// is a hold, and every release is reported.
type holdTimer struct {
	mu        sync.Mutex
	hold      time.Duration
	now       func() time.Time
	afterFunc func(time.Duration, func()) stopper
	emit      func(logic.ButtonEvent)
	down      map[int]*press
}

func newHoldTimer(hold time.Duration, now func() time.Time, emit func(logic.ButtonEvent)) *holdTimer {
	if now == nil {
		now = time.Now
	}
	return &holdTimer{
		hold: hold,
		now:  now,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		emit: emit,
		down: make(map[int]*press),
	}
}

// Press records button going down. Repeated presses without a release
// are ignored.
func (h *holdTimer) Press(button int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.down[button]; ok {
		return
	}
	p := &press{at: h.now()}
	h.down[button] = p
	p.timer = h.afterFunc(h.hold, func() { h.expire(button, p) })
}

func (h *holdTimer) expire(button int, p *press) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.down[button] != p || p.held {
		return
	}
	p.held = true
	ev := logic.HoldExceeded(button)
	ev.Held = h.now().Sub(p.at)
	h.emit(ev)
}

// Release records button going up.
func (h *holdTimer) Release(button int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.down[button]
	if !ok {
		return
	}
	delete(h.down, button)
	p.timer.Stop()
	held := h.now().Sub(p.at)

	if !p.held {
		ev := logic.ShortPress(button)
		ev.Held = held
		h.emit(ev)
	}
	ev := logic.Released(button)
	ev.Held = held
	h.emit(ev)
}

// Reset forgets every pressed button without reporting anything.
func (h *holdTimer) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for b, p := range h.down {
		p.timer.Stop()
		delete(h.down, b)
	}
}
