package hub

import (
	"strconv"
	"time"

	"musictogether/internal/protocol"
)

// PlaybackState is the shared playback cursor for one room. It is advisory:
// positions drift between syncs and the next control message wins.
type PlaybackState struct {
	TrackID       *string
	Position      float64
	IsPlaying     bool
	UpdatedAt     float64
	ControllerID  *int
	ControllerTag string
}

// Snapshot caches one room's playback state and queue mirror while the room
// has at least one connection. It is never authoritative; persistent
// storage owns everything except the in-memory playback cursor.
type Snapshot struct {
	Playback PlaybackState
	Queue    []protocol.QueueEntry
}

// QueueLoader fetches a room's persisted queue, used once per room epoch.
type QueueLoader func(room string) ([]protocol.QueueEntry, error)

// EnsureLoaded seeds the room's snapshot from persistent storage if none
// exists yet. The initial cursor points at the first queued track, paused
// at zero, with no controller recorded. A loader failure still seeds an
// empty snapshot so the room stays usable; the error is returned for
// logging.
func (r *Registry) EnsureLoaded(room string, loader QueueLoader) error {
	rs := r.room(room)
	if rs == nil {
		return nil
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.snapshot != nil {
		return nil
	}

	entries, err := loader(room)
	if err != nil {
		rs.snapshot = &Snapshot{}
		return err
	}

	snap := &Snapshot{Queue: entries}
	if len(entries) > 0 {
		snap.Playback.TrackID = protocol.String(strconv.FormatInt(entries[0].MusicID, 10))
	}
	rs.snapshot = snap
	return nil
}

// MergePlayback applies a control message to the room's playback state,
// overwriting only the fields the message carries. An absent isPlaying is
// inferred from play/pause and left alone otherwise. The sender is always
// recorded as last controller; its client tag only when present.
func (r *Registry) MergePlayback(room string, msg *protocol.Message) {
	rs := r.room(room)
	if rs == nil {
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.snapshot == nil {
		rs.snapshot = &Snapshot{}
	}

	p := &rs.snapshot.Playback
	if msg.TrackID != nil {
		p.TrackID = protocol.String(*msg.TrackID)
	}
	if msg.Position != nil {
		p.Position = *msg.Position
	}
	switch {
	case msg.IsPlaying != nil:
		p.IsPlaying = *msg.IsPlaying
	case msg.Type == protocol.TypePlay:
		p.IsPlaying = true
	case msg.Type == protocol.TypePause:
		p.IsPlaying = false
	}

	p.ControllerID = protocol.Int(msg.SourceParticipant)
	if msg.ClientID != "" {
		p.ControllerTag = msg.ClientID
	}
	if msg.Timestamp != nil {
		p.UpdatedAt = *msg.Timestamp
	} else {
		p.UpdatedAt = float64(time.Now().UnixMilli()) / 1000
	}
}

// ReplaceQueue swaps the room's queue mirror wholesale for the list an
// explicit queue_change carried. No incremental patching.
func (r *Registry) ReplaceQueue(room string, entries []protocol.QueueEntry) {
	rs := r.room(room)
	if rs == nil {
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.snapshot == nil {
		rs.snapshot = &Snapshot{}
	}
	rs.snapshot.Queue = append([]protocol.QueueEntry(nil), entries...)
}

// Current returns a copy of the room's snapshot for seeding a new
// connection, and whether a snapshot exists at all.
func (r *Registry) Current(room string) (Snapshot, bool) {
	rs := r.room(room)
	if rs == nil {
		return Snapshot{}, false
	}

	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.snapshot == nil {
		return Snapshot{}, false
	}

	snap := Snapshot{Playback: rs.snapshot.Playback}
	if rs.snapshot.Playback.TrackID != nil {
		snap.Playback.TrackID = protocol.String(*rs.snapshot.Playback.TrackID)
	}
	if rs.snapshot.Playback.ControllerID != nil {
		snap.Playback.ControllerID = protocol.Int(*rs.snapshot.Playback.ControllerID)
	}
	snap.Queue = append([]protocol.QueueEntry(nil), rs.snapshot.Queue...)
	return snap, true
}
