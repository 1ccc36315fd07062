// Package audio plays the box's music playlists and system sounds.
//
// A Device is a single output (one file loaded at a time, like a hardware
// player). A Player wraps a Device with either a playlist (music) or a cue
// catalog (system sounds and the spoken clock).
package audio

import "fmt"

// Cue is a named system sound. The set is closed: every cue is mapped to an
// asset file when the catalog is built, so a missing asset is caught at
// startup rather than when the cue is first played.
type Cue int

const (
	CueStart Cue = iota
	CueRing
	CueVolume
	CueModeNight
	CueModeDay
	CueModeAlarm
	CueModeAlarmSetting
	CueAlarmValidation
	CueAlarmPresetAt
	CueAlarmSet
	CueAlarmNotSet
	CueAlarmNone
	CueAlarmsList
	CueAlarmsDeleted

	namedCueCount
)

// cueNumberBase is the first of the 60 spoken numbers 00..59.
const cueNumberBase Cue = 100

// Numbers is the count of spoken number cues (00 to 59).
const Numbers = 60

var cueNames = [namedCueCount]string{
	CueStart:            "start",
	CueRing:             "ring",
	CueVolume:           "volume",
	CueModeNight:        "player_night",
	CueModeDay:          "player_day",
	CueModeAlarm:        "alarm",
	CueModeAlarmSetting: "alarm_setting",
	CueAlarmValidation:  "alarm_validation",
	CueAlarmPresetAt:    "alarm_preset_at",
	CueAlarmSet:         "alarm_set",
	CueAlarmNotSet:      "alarm_not_set",
	CueAlarmNone:        "alarm_none",
	CueAlarmsList:       "alarms_list",
	CueAlarmsDeleted:    "alarms_deleted",
}

// NumberCue returns the cue speaking n (0..59). The "00" cue doubles as the
// "o" spoken before single-digit minutes.
func NumberCue(n int) Cue {
	return cueNumberBase + Cue(n)
}

// IsNumber reports whether c is one of the spoken numbers.
func (c Cue) IsNumber() bool {
	return c >= cueNumberBase && c < cueNumberBase+Numbers
}

// Name returns the catalog key of c.
func (c Cue) Name() string {
	if c.IsNumber() {
		return fmt.Sprintf("%02d", int(c-cueNumberBase))
	}
	if c >= 0 && c < namedCueCount {
		return cueNames[c]
	}
	return fmt.Sprintf("cue(%d)", int(c))
}

func (c Cue) String() string { return c.Name() }

// AllCues returns every named cue followed by the spoken numbers.
func AllCues() []Cue {
	cues := make([]Cue, 0, int(namedCueCount)+Numbers)
	for c := Cue(0); c < namedCueCount; c++ {
		cues = append(cues, c)
	}
	for n := 0; n < Numbers; n++ {
		cues = append(cues, NumberCue(n))
	}
	return cues
}

// ParseCue converts a catalog key into a Cue.
func ParseCue(name string) (Cue, error) {
	for _, c := range AllCues() {
		if c.Name() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown cue: %q", name)
}

// DefaultFile returns the asset file name used when the configuration does
// not override it. The alarm rings with the start jingle.
func (c Cue) DefaultFile() string {
	switch {
	case c.IsNumber():
		return c.Name() + ".mp3"
	case c == CueRing:
		return cueNames[CueStart] + ".wav"
	default:
		return c.Name() + ".wav"
	}
}
