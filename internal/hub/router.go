package hub

import (
	"go.uber.org/zap"

	"musictogether/internal/metrics"
	"musictogether/internal/protocol"
)

// route applies the per-type relay policy to one inbound message. Control
// messages merge into the snapshot and fan out to the whole room, sender
// included; clients recognise their own client_id tag and ignore the echo.
func (h *Hub) route(conn *Connection, msg *protocol.Message) {
	metrics.MessageReceived(msg.Type)

	switch {
	case msg.Type == protocol.TypePing:
		ts := h.epoch()
		if msg.Timestamp != nil {
			ts = *msg.Timestamp
		}
		h.send(conn, protocol.Pong(ts))

	case protocol.IsPlaybackControl(msg.Type):
		if msg.Timestamp == nil {
			msg.Timestamp = protocol.Float(h.epoch())
		}
		h.registry.MergePlayback(conn.Room, msg)
		h.broadcast(conn.Room, msg)

	case msg.Type == protocol.TypeQueueChange:
		if msg.Queue != nil {
			h.registry.ReplaceQueue(conn.Room, *msg.Queue)
		}
		h.broadcast(conn.Room, msg)

	case msg.Type == protocol.TypeRequestPlaybackState, msg.Type == protocol.TypeChatMessage:
		// Any connected peer may answer a state request; chat is relayed
		// as-is, its persistence lives outside the hub.
		h.broadcast(conn.Room, msg)

	case msg.Type == protocol.TypePlaybackStateResponse:
		if msg.ForUserID == nil {
			return
		}
		h.sendToParticipant(conn.Room, *msg.ForUserID, msg)

	case msg.Type == protocol.TypeRequestQueue:
		if snap, ok := h.registry.Current(conn.Room); ok {
			h.send(conn, protocol.QueueSync(snap.Queue))
		}

	default:
		// Unrecognised types are ignored for forward compatibility.
		h.log.Debug("ignoring message",
			zap.String("type", msg.Type), zap.String("room", conn.Room), zap.Int("userId", conn.UserID))
	}
}
