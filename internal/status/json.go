package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Mode          string       `json:"mode"`
	Fallback      string       `json:"fallback"`
	Ready         bool         `json:"ready"`
	Volume        VolumeJSON   `json:"volume"`
	Alarms        []string     `json:"alarms"`
	Editing       string       `json:"editing,omitempty"`
	LastFired     *FiredJSON   `json:"last_fired,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// VolumeJSON reports the current output levels.
type VolumeJSON struct {
	Music  int `json:"music"`
	System int `json:"system"`
}

// FiredJSON describes the most recent alarm that rang.
type FiredJSON struct {
	Alarm string `json:"alarm"`
	At    string `json:"at"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	Presses     int `json:"presses"`
	Holds       int `json:"holds"`
	Rotations   int `json:"rotations"`
	AlarmsSet   int `json:"alarms_set"`
	AlarmsFired int `json:"alarms_fired"`
	ModeChanges int `json:"mode_changes"`
	AudioErrors int `json:"audio_errors"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Modes        []string `json:"modes"`
	TickSec      int      `json:"tick_sec"`
	HeartbeatSec int      `json:"heartbeat_sec"`
	HoldMs       int      `json:"hold_ms"`
	Broker       string   `json:"broker"`
	HTTPAddr     string   `json:"http_addr"`
	AlarmFile    string   `json:"alarm_file"`
}

func buildInner(snap Snapshot) StatusInner {
	b := snap.Box
	alarms := make([]string, len(b.Alarms))
	for i, d := range b.Alarms {
		alarms[i] = d.Clock()
	}

	inner := StatusInner{
		Mode:          "UNKNOWN",
		Fallback:      "UNKNOWN",
		Ready:         snap.Started,
		Alarms:        alarms,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Presses:     b.Counts.Presses,
			Holds:       b.Counts.Holds,
			Rotations:   b.Counts.Rotations,
			AlarmsSet:   b.Counts.AlarmsSet,
			AlarmsFired: b.Counts.AlarmsFired,
			ModeChanges: b.Counts.ModeChanges,
			AudioErrors: b.Counts.AudioErrors,
		},
		Config: ConfigJSON{
			Modes:        snap.Config.Modes,
			TickSec:      snap.Config.TickSec,
			HeartbeatSec: snap.Config.HeartbeatSec,
			HoldMs:       snap.Config.HoldMs,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
			AlarmFile:    snap.Config.AlarmFile,
		},
	}
	if snap.Started {
		inner.Mode = b.Mode.String()
		inner.Fallback = b.Fallback.String()
		inner.Volume = VolumeJSON{Music: b.MusicVolume, System: b.SystemVolume}
		if b.Mode.IsSubMode() {
			inner.Editing = b.Editing.Clock()
		}
	}
	if b.LastFired != nil {
		inner.LastFired = &FiredJSON{
			Alarm: b.LastFired.Clock(),
			At:    b.LastFiredAt.UTC().Format(time.RFC3339),
		}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
