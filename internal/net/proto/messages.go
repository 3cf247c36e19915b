// Package proto pins the websocket wire protocol between the field server
// and its viewers.
package proto

import (
	"encoding/json"
	"fmt"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	// Type identifiers for outbound websocket payloads.
	typeHeartbeat = "heartbeat"
	typeSelected  = "selected"
)

// Client message type identifiers.
const (
	TypePointer   = "pointer"
	TypeViewport  = "viewport"
	TypeMotion    = "motion"
	TypeHeartbeat = "heartbeat"
)

// ClientMessage captures an inbound websocket message from a viewer.
type ClientMessage struct {
	Ver     int     `json:"ver,omitempty"`
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Down    bool    `json:"down,omitempty"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Reduced *bool   `json:"reduced,omitempty"`
	SentAt  int64   `json:"sentAt"`
}

// DecodeClientMessage converts raw websocket payloads into a structured
// message. Messages without a version are assumed current.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}

// MotionReduced extracts the reduced-motion flag from a motion message. The
// second return is false when the flag is missing.
func MotionReduced(msg ClientMessage) (bool, bool) {
	if msg.Type != TypeMotion || msg.Reduced == nil {
		return false, false
	}
	return *msg.Reduced, true
}

// Heartbeat echoes timing metadata back to the viewer.
type Heartbeat struct {
	ServerTime int64
	ClientTime int64
	RTTMillis  int64
}

// EncodeHeartbeat renders a heartbeat acknowledgement payload.
func EncodeHeartbeat(msg Heartbeat) ([]byte, error) {
	frame := struct {
		Ver        int    `json:"ver"`
		Type       string `json:"type"`
		ServerTime int64  `json:"serverTime"`
		ClientTime int64  `json:"clientTime"`
		RTTMillis  int64  `json:"rtt"`
	}{
		Ver:        Version,
		Type:       typeHeartbeat,
		ServerTime: msg.ServerTime,
		ClientTime: msg.ClientTime,
		RTTMillis:  msg.RTTMillis,
	}
	return json.Marshal(frame)
}

// Selected names the project chosen by a pointer-down hit. An empty ID
// clears the client's selection.
type Selected struct {
	ID string
}

// EncodeSelected renders a selection payload.
func EncodeSelected(msg Selected) ([]byte, error) {
	frame := struct {
		Ver  int    `json:"ver"`
		Type string `json:"type"`
		ID   string `json:"id"`
	}{
		Ver:  Version,
		Type: typeSelected,
		ID:   msg.ID,
	}
	return json.Marshal(frame)
}
