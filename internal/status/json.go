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
	Event          string          `json:"event,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	State          string          `json:"state"`
	LastTransition *TransitionJSON `json:"last_transition,omitempty"`
	Inputs         InputsJSON      `json:"inputs"`
	Outputs        OutputsJSON     `json:"outputs"`
	Timer          TimerJSON       `json:"auto_close"`
	UptimeSeconds  int64           `json:"uptime_seconds"`
	StartTime      string          `json:"start_time"`
	Timestamp      string          `json:"timestamp"`
	MQTT           MQTTStatus      `json:"mqtt"`
	Counts         CountsJSON      `json:"counts"`
	Network        *NetworkJSON    `json:"network,omitempty"`
	Config         ConfigJSON      `json:"config"`
}

// TransitionJSON describes the most recent state change.
type TransitionJSON struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// InputsJSON is the JSON representation of the last input sample.
type InputsJSON struct {
	OpenButton      bool `json:"open_button"`
	CloseButton     bool `json:"close_button"`
	StopButton      bool `json:"stop_button"`
	EmergencyButton bool `json:"emergency_button"`
	ResetButton     bool `json:"reset_button"`
	OpenLimit       bool `json:"open_limit"`
	CloseLimit      bool `json:"close_limit"`
}

// OutputsJSON is the JSON representation of the driven outputs.
type OutputsJSON struct {
	MotorOpen  bool `json:"motor_open"`
	MotorClose bool `json:"motor_close"`
	Buzzer     bool `json:"buzzer"`
	Lamp       bool `json:"lamp"`
	FaultLED   bool `json:"fault_led"`
}

// TimerJSON reports the auto-close countdown.
type TimerJSON struct {
	Active           bool `json:"active"`
	RemainingSeconds int  `json:"remaining_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of transition counters.
type CountsJSON struct {
	Transitions int `json:"transitions"`
	AutoCloses  int `json:"auto_closes"`
	Resets      int `json:"resets"`
	Faults      int `json:"faults"`
	Stops       int `json:"stops"`
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
	PeriodMs    int64  `json:"period_ms"`
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Chip        string `json:"chip"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		State: state,
		Inputs: InputsJSON{
			OpenButton:      snap.Inputs.OpenButton,
			CloseButton:     snap.Inputs.CloseButton,
			StopButton:      snap.Inputs.StopButton,
			EmergencyButton: snap.Inputs.EmergencyButton,
			ResetButton:     snap.Inputs.ResetButton,
			OpenLimit:       snap.Inputs.OpenLimit,
			CloseLimit:      snap.Inputs.CloseLimit,
		},
		Outputs: OutputsJSON{
			MotorOpen:  snap.Outputs.MotorOpen,
			MotorClose: snap.Outputs.MotorClose,
			Buzzer:     snap.Outputs.Buzzer,
			Lamp:       snap.Outputs.Lamp,
			FaultLED:   snap.Outputs.FaultLED,
		},
		Timer: TimerJSON{
			Active:           snap.Timer.Active,
			RemainingSeconds: snap.Timer.Remaining,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Transitions: snap.Counts.Transitions,
			AutoCloses:  snap.Counts.AutoCloses,
			Resets:      snap.Counts.Resets,
			Faults:      snap.Counts.Faults,
			Stops:       snap.Counts.Stops,
		},
		Config: ConfigJSON{
			PeriodMs:    snap.Config.PeriodMs,
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Chip:        snap.Config.Chip,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	if e := snap.LastEvent; e != nil {
		inner.LastTransition = &TransitionJSON{
			From:      string(e.From),
			To:        string(e.To),
			Reason:    string(e.Reason),
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		}
	}

	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
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
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
