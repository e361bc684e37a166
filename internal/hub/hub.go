package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"musictogether/internal/metrics"
	"musictogether/internal/protocol"
)

// ErrRoomNotFound rejects a connection attempt for a room that does not
// exist in persistent storage.
var ErrRoomNotFound = errors.New("room not found")

// Directory is what the hub consumes from persistent storage: room
// existence, the queue seed for a fresh snapshot, and display names for
// join notifications. Nothing is ever written back.
type Directory interface {
	RoomExists(code string) (bool, error)
	LoadQueue(code string) ([]protocol.QueueEntry, error)
	ResolveDisplayName(userID int) (string, error)
}

// Hub relays control and queue messages between the participants of each
// listening room and keeps their shared playback view consistent.
type Hub struct {
	registry *Registry
	dir      Directory
	log      *zap.Logger
	now      func() time.Time
}

func New(dir Directory, log *zap.Logger) *Hub {
	return &Hub{
		registry: NewRegistry(),
		dir:      dir,
		log:      log,
		now:      time.Now,
	}
}

// Connect registers a new participant connection, seeds the room snapshot
// from storage on the room's first join, pushes the current state to the
// newcomer and announces it to the rest of the room.
func (h *Hub) Connect(room string, userID int, w Writer) (*Connection, error) {
	exists, err := h.dir.RoomExists(room)
	if err != nil {
		return nil, fmt.Errorf("room lookup: %w", err)
	}
	if !exists {
		return nil, ErrRoomNotFound
	}

	conn := &Connection{ID: uuid.NewString(), Room: room, UserID: userID, Writer: w}
	if replaced := h.registry.Register(conn); replaced != nil {
		// Unblocks the old read loop; its disconnect is then a stale no-op.
		_ = replaced.Writer.Close()
		h.log.Info("connection replaced",
			zap.String("room", room), zap.Int("userId", userID), zap.String("oldConnId", replaced.ID))
	}

	if err := h.registry.EnsureLoaded(room, h.dir.LoadQueue); err != nil {
		h.log.Warn("queue load failed, seeding empty snapshot",
			zap.String("room", room), zap.Error(err))
	}

	snap, _ := h.registry.Current(room)
	h.send(conn, stateResponse(&snap))
	h.send(conn, protocol.QueueSync(snap.Queue))
	h.send(conn, protocol.ControlPermission(true))

	joined := protocol.UserJoined(userID, h.displayName(userID), h.registry.Count(room))
	h.broadcastExcept(room, conn, joined)

	metrics.SetUsage(h.registry.Stats())
	h.log.Info("participant joined",
		zap.String("room", room), zap.Int("userId", userID), zap.String("connId", conn.ID))
	return conn, nil
}

// Disconnect removes conn if it is still the registered handle and tells
// the remaining participants. Disconnecting a handle that was already
// replaced is a no-op.
func (h *Hub) Disconnect(conn *Connection) {
	removed, empty := h.registry.Unregister(conn)
	if !removed {
		return
	}
	_ = conn.Writer.Close()

	metrics.SetUsage(h.registry.Stats())
	h.log.Info("participant left",
		zap.String("room", conn.Room), zap.Int("userId", conn.UserID), zap.String("connId", conn.ID))

	if !empty {
		h.broadcast(conn.Room, protocol.UserLeft(conn.UserID, h.registry.Count(conn.Room)))
	}
}

// HandleMessage decodes one inbound frame and routes it. Malformed frames
// are logged and skipped; the connection stays up.
func (h *Hub) HandleMessage(conn *Connection, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.log.Warn("malformed message",
			zap.String("room", conn.Room), zap.String("connId", conn.ID), zap.Error(err))
		return
	}

	// Server-assigned; any client-supplied value is discarded.
	msg.SourceParticipant = conn.UserID
	h.route(conn, &msg)
}

// Stats reports active rooms and connections.
func (h *Hub) Stats() (rooms, connections int) {
	return h.registry.Stats()
}

func (h *Hub) displayName(userID int) string {
	name, err := h.dir.ResolveDisplayName(userID)
	if err != nil || name == "" {
		return fmt.Sprintf("User %d", userID)
	}
	return name
}

func (h *Hub) send(conn *Connection, msg *protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal failed", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	if err := conn.Writer.Write(data); err != nil {
		h.log.Warn("send failed",
			zap.String("room", conn.Room), zap.Int("userId", conn.UserID), zap.Error(err))
	}
}

// broadcast delivers msg to every connection in the room. Failed sends are
// collected during the pass and those peers are disconnected afterwards;
// one dead connection never aborts delivery to the others.
func (h *Hub) broadcast(room string, msg *protocol.Message) {
	h.broadcastExcept(room, nil, msg)
}

func (h *Hub) broadcastExcept(room string, skip *Connection, msg *protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal failed", zap.String("type", msg.Type), zap.Error(err))
		return
	}

	var failed []*Connection
	for _, c := range h.registry.List(room) {
		if c == skip {
			continue
		}
		if err := c.Writer.Write(data); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		metrics.BroadcastFailure()
		h.Disconnect(c)
	}
}

// sendToParticipant point-routes msg to a single participant; silently
// dropped when the target is not connected.
func (h *Hub) sendToParticipant(room string, userID int, msg *protocol.Message) {
	for _, c := range h.registry.List(room) {
		if c.UserID == userID {
			h.send(c, msg)
			return
		}
	}
}

func (h *Hub) epoch() float64 {
	return float64(h.now().UnixMilli()) / 1000
}

// stateResponse renders a snapshot as the playback_state_response pushed to
// a newly joined connection, last-controller fields included. With no
// current track the trackId key is omitted rather than sent as null;
// clients treat the two the same.
func stateResponse(snap *Snapshot) *protocol.Message {
	msg := &protocol.Message{
		Type:      protocol.TypePlaybackStateResponse,
		TrackID:   snap.Playback.TrackID,
		Position:  protocol.Float(snap.Playback.Position),
		IsPlaying: protocol.Bool(snap.Playback.IsPlaying),
		ClientID:  snap.Playback.ControllerTag,
	}
	if snap.Playback.UpdatedAt != 0 {
		msg.Timestamp = protocol.Float(snap.Playback.UpdatedAt)
	}
	if snap.Playback.ControllerID != nil {
		msg.SourceParticipant = *snap.Playback.ControllerID
	}
	return msg
}
