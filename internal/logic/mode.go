package logic

import "fmt"

// Mode is the operating mode of the box.
type Mode int

const (
	ModePlaybackNight Mode = iota
	ModePlaybackDay
	ModeAlarmMenu
	ModeAlarmEditing
	ModeAlarmValidation
)

var modeNames = map[Mode]string{
	ModePlaybackNight:   "player_night",
	ModePlaybackDay:     "player_day",
	ModeAlarmMenu:       "alarm",
	ModeAlarmEditing:    "alarm_setting",
	ModeAlarmValidation: "alarm_validation",
}

// String returns the configuration name of the mode.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode converts a configuration name into a Mode.
// An unknown name is a configuration fault.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode: %q", name)
}

// IsSubMode reports whether m lives under the alarm menu and is
// therefore not addressable from the mode cycle.
func (m Mode) IsSubMode() bool {
	return m == ModeAlarmEditing || m == ModeAlarmValidation
}

// IsPlayback reports whether m is one of the two playlist modes.
func (m Mode) IsPlayback() bool {
	return m == ModePlaybackNight || m == ModePlaybackDay
}

// Context returns the playlist context of a playback mode.
// Non-playback modes report Night.
func (m Mode) Context() Context {
	if m == ModePlaybackDay {
		return Day
	}
	return Night
}

// PlaybackMode returns the playback mode for a context.
func PlaybackMode(c Context) Mode {
	if c == Day {
		return ModePlaybackDay
	}
	return ModePlaybackNight
}

// NextInCycle returns the mode following current in cycle, wrapping at the
// end. Sub-modes are collapsed to the alarm menu first. A mode missing from
// the cycle restarts at the first entry. cycle must not be empty.
func NextInCycle(cycle []Mode, current Mode) Mode {
	if current.IsSubMode() {
		current = ModeAlarmMenu
	}
	for i, m := range cycle {
		if m == current {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}
