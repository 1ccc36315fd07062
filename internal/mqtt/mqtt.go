// Package mqtt publishes box notices and lifecycle events, with an
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/judsound-box/internal/logic"
)

// Topic is the MQTT topic for box notices.
const Topic = "judsound/box/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "judsound/box/system"

// Publisher publishes notices to MQTT.
type Publisher interface {
	// Publish sends a box notice to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(n logic.Notice) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload is the message published on Topic.
type Payload struct {
	Box NoticePayload `json:"box"`
}

// NoticePayload carries one notice. ID lets consumers drop the duplicates
// a reconnect can replay.
type NoticePayload struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Mode      string `json:"mode"`
	Alarm     string `json:"alarm,omitempty"`
	Auto      bool   `json:"auto,omitempty"`
}

// FormatPayload creates the JSON payload for a notice.
func FormatPayload(n logic.Notice) ([]byte, error) {
	p := NoticePayload{
		ID:        uuid.NewString(),
		Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(n.Type),
		Mode:      n.Mode.String(),
		Auto:      n.Auto,
	}
	if n.Alarm != nil {
		p.Alarm = n.Alarm.Clock()
	}
	return json.Marshal(Payload{Box: p})
}

// SystemPayload is used for simple events (LWT, RECONNECTED) that don't
// carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
