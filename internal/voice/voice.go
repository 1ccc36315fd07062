// Package voice speaks cues, digits and times of day through the system
// output.
package voice

import (
	"fmt"
	"log/slog"

	"github.com/sweeney/judsound-box/internal/audio"
)

// Output plays a named cue.
type Output interface {
	PlayNamed(cue audio.Cue, volume int, wait bool) error
}

// Announcer speaks at the current system level.
type Announcer struct {
	out         Output
	level       func() int
	hoursOffset int
	logger      *slog.Logger
}

// New creates an Announcer. level returns the current system level;
// hours are spoken hoursOffset louder than minutes.
func New(out Output, level func() int, hoursOffset int, logger *slog.Logger) *Announcer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Announcer{out: out, level: level, hoursOffset: hoursOffset, logger: logger}
}

// Say plays cue and waits until it is done.
func (a *Announcer) Say(cue audio.Cue) error {
	return a.out.PlayNamed(cue, a.level(), true)
}

// SayAsync plays cue without waiting.
func (a *Announcer) SayAsync(cue audio.Cue) error {
	return a.out.PlayNamed(cue, a.level(), false)
}

// SayAt plays cue at an explicit volume and waits until it is done.
func (a *Announcer) SayAt(cue audio.Cue, volume int) error {
	return a.out.PlayNamed(cue, volume, true)
}

// SayNumber speaks n (0..59).
func (a *Announcer) SayNumber(n int) error {
	if n < 0 || n >= audio.Numbers {
		return fmt.Errorf("no spoken number for %d", n)
	}
	return a.Say(audio.NumberCue(n))
}

// SayTime speaks hour then minute, with an "o" before single-digit minutes.
func (a *Announcer) SayTime(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid time %02d:%02d", hour, minute)
	}
	a.logger.Info("speak time", "time", fmt.Sprintf("%02d:%02d", hour, minute))
	vol := a.level()
	if err := a.out.PlayNamed(audio.NumberCue(hour), vol+a.hoursOffset, true); err != nil {
		return err
	}
	if minute < 10 {
		if err := a.out.PlayNamed(audio.NumberCue(0), vol, true); err != nil {
			return err
		}
	}
	return a.out.PlayNamed(audio.NumberCue(minute), vol, true)
}
