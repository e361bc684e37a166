package hub

import "sync"

// Writer is the send side of one participant's duplex stream.
type Writer interface {
	Write(message []byte) error
	Close() error
}

// Connection is one participant's live handle in a room. ID is unique per
// handle, so a reconnecting participant gets a distinguishable connection
// and a late disconnect of the old handle cannot evict the new one.
type Connection struct {
	ID     string
	Room   string
	UserID int
	Writer Writer
}

type roomState struct {
	mu       sync.RWMutex
	conns    map[int]*Connection
	snapshot *Snapshot
}

// Registry is the sole shared mutable structure: it maps each room to its
// connection set and its in-memory snapshot. The outer mutex guards only
// the room map; each room carries its own lock so a busy room never blocks
// the others.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*roomState
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*roomState)}
}

func (r *Registry) room(name string) *roomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[name]
}

// Register inserts conn, creating the room on first join. If the same
// participant already holds a connection it is replaced (last connect
// wins) and the displaced handle is returned so the caller can close it.
// The insert happens under the room-map lock so it cannot land in a
// roomState a concurrent last-leave just unlinked.
func (r *Registry) Register(conn *Connection) (replaced *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.rooms[conn.Room]
	if !ok {
		rs = &roomState{conns: make(map[int]*Connection)}
		r.rooms[conn.Room] = rs
	}

	rs.mu.Lock()
	replaced = rs.conns[conn.UserID]
	rs.conns[conn.UserID] = conn
	rs.mu.Unlock()
	return replaced
}

// Unregister removes conn if it is still the registered handle for its
// (room, participant) pair; a stale handle is a no-op. When the room's
// last connection goes, the snapshot is discarded with it. The empty
// result lets the caller suppress a leave broadcast to a vanished
// audience.
func (r *Registry) Unregister(conn *Connection) (removed, empty bool) {
	rs := r.room(conn.Room)
	if rs == nil {
		return false, true
	}

	rs.mu.Lock()
	if rs.conns[conn.UserID] != conn {
		n := len(rs.conns)
		rs.mu.Unlock()
		return false, n == 0
	}
	delete(rs.conns, conn.UserID)
	empty = len(rs.conns) == 0
	if empty {
		rs.snapshot = nil
	}
	rs.mu.Unlock()

	if empty {
		r.mu.Lock()
		if cur, ok := r.rooms[conn.Room]; ok && cur == rs {
			cur.mu.RLock()
			still := len(cur.conns) == 0
			cur.mu.RUnlock()
			if still {
				delete(r.rooms, conn.Room)
			}
		}
		r.mu.Unlock()
	}
	return true, empty
}

// List returns a same-instant copy of the room's connections for fan-out.
func (r *Registry) List(room string) []*Connection {
	rs := r.room(room)
	if rs == nil {
		return nil
	}

	rs.mu.RLock()
	defer rs.mu.RUnlock()
	conns := make([]*Connection, 0, len(rs.conns))
	for _, c := range rs.conns {
		conns = append(conns, c)
	}
	return conns
}

func (r *Registry) Count(room string) int {
	rs := r.room(room)
	if rs == nil {
		return 0
	}

	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.conns)
}

// Stats reports active rooms and total connections across all rooms.
func (r *Registry) Stats() (rooms, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms = len(r.rooms)
	for _, rs := range r.rooms {
		rs.mu.RLock()
		connections += len(rs.conns)
		rs.mu.RUnlock()
	}
	return rooms, connections
}
