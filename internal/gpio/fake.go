package gpio

import (
	"sync"
	"time"

	"github.com/sweeney/judsound-box/internal/logic"
)

// FakeSource is a test double fed with scripted events.
type FakeSource struct {
	*dispatcher

	mu sync.Mutex

	// Positions records every SetPosition call.
	Positions []int

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeSource creates a FakeSource stamping events with now.
func NewFakeSource(now func() time.Time) *FakeSource {
	return &FakeSource{dispatcher: newDispatcher(now)}
}

// Send queues ev as if the hardware produced it.
func (f *FakeSource) Send(ev logic.ButtonEvent) {
	f.emit(ev)
}

// Tap queues a short press followed by its release.
func (f *FakeSource) Tap(button int) {
	f.emit(logic.ShortPress(button))
	f.emit(logic.Released(button))
}

// Hold queues a hold followed by its release.
func (f *FakeSource) Hold(button int) {
	f.emit(logic.HoldExceeded(button))
	f.emit(logic.Released(button))
}

// SetPosition records the re-seeded position.
func (f *FakeSource) SetPosition(pos int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Positions = append(f.Positions, pos)
}

// LastPosition returns the most recent SetPosition argument.
func (f *FakeSource) LastPosition() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Positions) == 0 {
		return 0, false
	}
	return f.Positions[len(f.Positions)-1], true
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	f.stop()
	return nil
}
