package server

import "time"

const (
	ProtocolVersion   = 1
	writeWait         = 10 * time.Second
	tickRate          = 60 // ticks per second, keeps the frame multiplier near 1
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval
)

// TickRate exposes the broadcast tick rate to the HTTP layer.
func TickRate() int {
	return tickRate
}

// HeartbeatInterval exposes the expected heartbeat cadence to the HTTP layer.
func HeartbeatInterval() time.Duration {
	return heartbeatInterval
}
