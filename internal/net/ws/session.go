package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"driftfield/server/internal/net/proto"
)

// Serve orchestrates a websocket session for the provided viewer connection.
func (h *Handler) Serve(viewerID string, conn *websocket.Conn) {
	if h == nil || h.hub == nil || conn == nil {
		return
	}

	sub, ok := h.hub.Subscribe(viewerID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown viewer")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	data, err := h.hub.MarshalLayout()
	if err != nil {
		h.logger.Printf("failed to marshal initial layout for %s: %v", viewerID, err)
		h.hub.Disconnect(viewerID, "write_error")
		return
	}
	if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
		h.hub.Disconnect(viewerID, "write_error")
		return
	}
	h.hub.RecordTelemetryBroadcast(len(data))

	// send reports false when the session should end; marshal failures only
	// skip the frame.
	send := func(data []byte, err error) bool {
		if err != nil {
			h.logger.Printf("failed to marshal response for %s: %v", viewerID, err)
			return true
		}
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			h.hub.Disconnect(viewerID, "write_error")
			return false
		}
		return true
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(viewerID, "connection_closed")
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.hub.RecordMalformedMessage(viewerID, err)
			continue
		}

		switch msg.Type {
		case proto.TypeHeartbeat:
			now := time.Now()
			rtt, ok := h.hub.UpdateHeartbeat(viewerID, now, msg.SentAt)
			if !ok {
				continue
			}
			ack := proto.Heartbeat{
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}
			if !send(proto.EncodeHeartbeat(ack)) {
				return
			}
		case proto.TypePointer:
			hover, ok := h.hub.UpdatePointer(viewerID, msg.X, msg.Y, msg.Down)
			if !ok {
				continue
			}
			if msg.Down {
				if !send(proto.EncodeSelected(proto.Selected{ID: hover})) {
					return
				}
			}
		case proto.TypeViewport:
			h.hub.UpdateViewport(viewerID, msg.Width, msg.Height)
		case proto.TypeMotion:
			if reduced, ok := proto.MotionReduced(msg); ok {
				h.hub.SetReducedMotion(viewerID, reduced)
			}
		default:
			h.logger.Printf("ignoring unknown message type %q from %s", msg.Type, viewerID)
		}
	}
}
