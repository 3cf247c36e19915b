package server

import (
	"driftfield/server/catalog"
	"driftfield/server/internal/field"
	"driftfield/server/internal/sim"
)

type joinResponse struct {
	Ver             int               `json:"ver"`
	ID              string            `json:"id"`
	Projects        []catalog.Project `json:"projects"`
	Layout          sim.Layout        `json:"layout"`
	HeartbeatMillis int64             `json:"heartbeatMillis"`
}

// layoutMessage carries the per-epoch keyframe: everything a client needs to
// render bodies that the per-tick state frames leave out.
type layoutMessage struct {
	Ver        int               `json:"ver"`
	Type       string            `json:"type"`
	Projects   []catalog.Project `json:"projects"`
	Layout     sim.Layout        `json:"layout"`
	ServerTime int64             `json:"serverTime"`
}

// stateMessage is the per-tick broadcast. Hover is resolved per subscriber
// just before encoding; every other field is shared across viewers.
type stateMessage struct {
	Ver        int                `json:"ver"`
	Type       string             `json:"type"`
	Tick       uint64             `json:"t"`
	Epoch      uint64             `json:"epoch"`
	State      sim.State          `json:"state"`
	Frame      field.Frame        `json:"frame"`
	Bodies     []sim.BodySnapshot `json:"bodies"`
	Hover      string             `json:"hover,omitempty"`
	ServerTime int64              `json:"serverTime"`
}

type diagnosticsViewer struct {
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rtt"`
	Hover         string `json:"hover,omitempty"`
}

type fieldStatus struct {
	State  sim.State   `json:"state"`
	Tick   uint64      `json:"tick"`
	Epoch  uint64      `json:"epoch"`
	Bodies int         `json:"bodies"`
	Frame  field.Frame `json:"frame"`
}
