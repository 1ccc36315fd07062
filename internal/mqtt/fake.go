package mqtt

import (
	"sync"

	"github.com/sweeney/judsound-box/internal/logic"
)

// FakePublisher records published notices for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Notices contains all box notices that were published.
	Notices []logic.Notice

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the notice.
func (f *FakePublisher) Publish(n logic.Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(n)
	if err != nil {
		return err
	}
	f.Notices = append(f.Notices, n)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SystemEvents = append(f.SystemEvents, event)
	return nil
}

// Types returns the notice types published so far, in order.
func (f *FakePublisher) Types() []logic.NoticeType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]logic.NoticeType, len(f.Notices))
	for i, n := range f.Notices {
		out[i] = n.Type
	}
	return out
}

// SystemEventNames returns the names of the system events published so far.
func (f *FakePublisher) SystemEventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		out[i] = e.Event
	}
	return out
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}
