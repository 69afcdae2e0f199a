package hermes

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	SubjectQueryHandled  = "kai.query.handled"
	SubjectMicControl    = "kai.control.mic"
	SubjectSpeechControl = "kai.control.speech"
)

// QueryEvent is published after every handled query.
type QueryEvent struct {
	SessionID string    `json:"session_id"`
	Query     string    `json:"query"`
	Action    string    `json:"action"`
	Reply     string    `json:"reply"`
	At        time.Time `json:"at"`
}

const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// ControlCommand is a remote control message, e.g. {"action":"start"}.
type ControlCommand struct {
	Action string `json:"action"`
}

// ParseControl decodes a control payload and checks the action is one of allowed.
func ParseControl(data []byte, allowed ...string) (ControlCommand, error) {
	var cmd ControlCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return ControlCommand{}, fmt.Errorf("parse control: %w", err)
	}
	for _, a := range allowed {
		if cmd.Action == a {
			return cmd, nil
		}
	}
	return ControlCommand{}, fmt.Errorf("unsupported control action %q", cmd.Action)
}
