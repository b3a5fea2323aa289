// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gate-controller/internal/logic"
)

// Topic is the MQTT topic for gate transition events.
const Topic = "gate/controller/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "gate/controller/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a gate transition event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

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
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Gate GatePayload `json:"gate"`
}

// GatePayload contains the transition details.
type GatePayload struct {
	Timestamp string         `json:"timestamp"`
	From      string         `json:"from"`
	State     string         `json:"state"`
	Reason    string         `json:"reason"`
	Outputs   OutputsPayload `json:"outputs"`
}

// OutputsPayload is the command driven on entering the new state.
type OutputsPayload struct {
	MotorOpen  bool `json:"motor_open"`
	MotorClose bool `json:"motor_close"`
	Buzzer     bool `json:"buzzer"`
	Lamp       bool `json:"lamp"`
	FaultLED   bool `json:"fault_led"`
}

// NewOutputsPayload converts logical outputs to their JSON form.
func NewOutputsPayload(out logic.Outputs) OutputsPayload {
	return OutputsPayload{
		MotorOpen:  out.MotorOpen,
		MotorClose: out.MotorClose,
		Buzzer:     out.Buzzer,
		Lamp:       out.Lamp,
		FaultLED:   out.FaultLED,
	}
}

// FormatPayload creates the JSON payload for a gate transition event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Gate: GatePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			From:      string(event.From),
			State:     string(event.To),
			Reason:    string(event.Reason),
			Outputs:   NewOutputsPayload(event.Outputs),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// WillPayload is the retained last-will message the broker publishes if the
// controller drops off without a clean shutdown.
func WillPayload() []byte {
	data, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "LWT"})
	return data
}
