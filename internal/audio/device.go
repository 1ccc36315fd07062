package audio

import "fmt"

// Device is a single audio output with one file loaded at a time.
type Device interface {
	// Load stops playback and selects path as the current media.
	Load(path string) error
	// Loaded returns the current media path, or "" if none.
	Loaded() string
	// Play starts the loaded media from the beginning.
	Play() error
	// TogglePause pauses playing media or resumes paused media. It does
	// nothing for stopped or finished media.
	TogglePause()
	// Stop halts playback. The media stays loaded.
	Stop()
	// IsPlaying reports whether sound is currently being produced.
	IsPlaying() bool
	// SetVolume sets the output level (0..100).
	SetVolume(level int)
}

// PlaybackError reports a failed playback command. It aborts only that
// command; the caller's state stays as it was.
type PlaybackError struct {
	Output string
	Op     string
	Asset  string
	Err    error
}

func (e *PlaybackError) Error() string {
	if e.Asset != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Output, e.Op, e.Asset, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Output, e.Op, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }
