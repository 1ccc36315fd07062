// Package alarm holds the alarm being edited and the persisted set of
// armed alarms.
package alarm

import (
	"log/slog"

	"github.com/sweeney/judsound-box/internal/audio"
	"github.com/sweeney/judsound-box/internal/logic"
)

// Speaker is the audible side of the alarm flow.
type Speaker interface {
	Say(cue audio.Cue) error
	SayAt(cue audio.Cue, volume int) error
	SayNumber(n int) error
	SayTime(hour, minute int) error
}

// Editor owns the four digits under edit.
type Editor struct {
	digits  logic.Digits
	speaker Speaker
	logger  *slog.Logger
}

// NewEditor creates an editor with zeroed digits.
func NewEditor(speaker Speaker, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{speaker: speaker, logger: logger}
}

// Reset zeroes every cell, announcing "not set" if asked.
func (e *Editor) Reset(announce bool) error {
	e.digits = logic.Digits{}
	e.logger.Debug("alarm editor reset", "announce", announce)
	if announce {
		return e.speaker.Say(audio.CueAlarmNotSet)
	}
	return nil
}

// Increment advances one cell, wrapping silently, and speaks its new value.
func (e *Editor) Increment(cell int) error {
	d, err := e.digits.Increment(cell)
	if err != nil {
		return err
	}
	e.digits = d
	e.logger.Info("alarm value updated", "digits", d.String())
	return e.speaker.SayNumber(d[cell])
}

// Validate reports whether the edited value is a legal time. A legal value
// is announced as "preset at HH:MM", an illegal one as "not set". The
// returned error only concerns audio; ok is meaningful either way.
func (e *Editor) Validate() (ok bool, err error) {
	if !e.digits.Legal() {
		e.logger.Info("alarm rejected", "digits", e.digits.String())
		return false, e.speaker.Say(audio.CueAlarmNotSet)
	}
	if err := e.speaker.Say(audio.CueAlarmPresetAt); err != nil {
		return true, err
	}
	return true, e.SpeakTime()
}

// SpeakTime speaks the edited value as a time of day.
func (e *Editor) SpeakTime() error {
	return e.speaker.SayTime(e.digits.Hour(), e.digits.Minute())
}

// Snapshot returns a copy of the edited value.
func (e *Editor) Snapshot() logic.Digits {
	return e.digits
}
