// Package logic contains the pure domain types of the box: modes, input
// events, alarm digits, day/night classification and outbound notices.
// This package has NO external dependencies (no GPIO, audio, MQTT, OS, or
// time.Sleep). Time is always injectable via time.Time parameters.
package logic

import "time"

// NoticeType names a state change worth publishing.
type NoticeType string

const (
	NoticeModeChanged   NoticeType = "MODE_CHANGED"
	NoticeAlarmSet      NoticeType = "ALARM_SET"
	NoticeAlarmFired    NoticeType = "ALARM_FIRED"
	NoticeAlarmsDeleted NoticeType = "ALARMS_DELETED"
	NoticeAlarmRejected NoticeType = "ALARM_REJECTED"
)

// Notice is an observable state change of the box.
type Notice struct {
	Timestamp time.Time
	Type      NoticeType
	Mode      Mode
	Alarm     *Digits // set for alarm notices
	Auto      bool    // mode change made by the scheduler, not a button
}

// Counts tracks activity since startup.
type Counts struct {
	Presses     int
	Holds       int
	Rotations   int
	AlarmsSet   int
	AlarmsFired int
	ModeChanges int
	AudioErrors int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}

// State is a point-in-time view of the box.
type State struct {
	Mode         Mode
	Fallback     Mode
	MusicVolume  int
	SystemVolume int
	Alarms       []Digits
	Editing      Digits
	LastFired    *Digits
	LastFiredAt  time.Time
	Counts       Counts
}
