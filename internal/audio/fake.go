package audio

import (
	"fmt"
	"sync"
)

type fakeState int

const (
	fakeStopped fakeState = iota
	fakePlaying
	fakePaused
	fakeFinished
)

// FakeDevice is a test double that records commands and simulates a player
// with an explicit end-of-media.
type FakeDevice struct {
	mu    sync.Mutex
	path  string
	state fakeState
	level int
	Calls []string

	// AutoFinish makes every Play finish immediately, like a short cue.
	AutoFinish bool

	// LoadError and PlayError, if set, are returned by Load and Play.
	LoadError error
	PlayError error
}

// NewFakeDevice creates an idle FakeDevice.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{}
}

func (f *FakeDevice) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

// Load selects path.
func (f *FakeDevice) Load(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LoadError != nil {
		return f.LoadError
	}
	f.record("load %s", path)
	f.path = path
	f.state = fakeStopped
	return nil
}

// Loaded returns the selected path.
func (f *FakeDevice) Loaded() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

// Play starts the loaded media.
func (f *FakeDevice) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PlayError != nil {
		return f.PlayError
	}
	f.record("play")
	if f.AutoFinish {
		f.state = fakeFinished
	} else {
		f.state = fakePlaying
	}
	return nil
}

// TogglePause flips between playing and paused.
func (f *FakeDevice) TogglePause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("toggle")
	switch f.state {
	case fakePlaying:
		f.state = fakePaused
	case fakePaused:
		f.state = fakePlaying
	}
}

// Stop halts playback.
func (f *FakeDevice) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop")
	f.state = fakeStopped
}

// IsPlaying reports whether the fake is playing.
func (f *FakeDevice) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == fakePlaying
}

// SetVolume records the level.
func (f *FakeDevice) SetVolume(level int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.level = level
}

// Level returns the last level set.
func (f *FakeDevice) Level() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

// Finish simulates the media reaching its end.
func (f *FakeDevice) Finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == fakePlaying {
		f.state = fakeFinished
	}
}

// Paused reports whether the fake is paused.
func (f *FakeDevice) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == fakePaused
}

// Reset clears recorded calls.
func (f *FakeDevice) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}
