package protocol

import "encoding/json"

// Message types exchanged over a room websocket. Playback control types
// carry any subset of trackId/position/isPlaying; the server stamps
// source_participant on every inbound message before routing.
const (
	TypePing = "ping"
	TypePong = "pong"

	TypePlay           = "play"
	TypePause          = "pause"
	TypeSeek           = "seek"
	TypeTrackChange    = "track_change"
	TypeSync           = "sync"
	TypePlaybackUpdate = "playback_update"

	TypeQueueChange = "queue_change"
	TypeQueueSync   = "queue_sync"

	TypeRequestPlaybackState  = "request_playback_state"
	TypePlaybackStateResponse = "playback_state_response"
	TypeRequestQueue          = "request_queue"

	TypeUserJoined        = "user_joined"
	TypeUserLeft          = "user_left"
	TypeControlPermission = "control_permission"

	TypeChatMessage = "chat_message"
)

// Track is the music metadata joined onto a queue entry.
type Track struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Duration  float64 `json:"duration"`
	CoverPath string  `json:"cover_path,omitempty"`
}

// QueueEntry mirrors one row of a room's persisted queue.
type QueueEntry struct {
	ID       int64 `json:"id"`
	RoomID   int64 `json:"room_id"`
	MusicID  int64 `json:"music_id"`
	Position int   `json:"position"`
	UserID   int64 `json:"user_id"`
	Music    Track `json:"music"`
}

// Message is the sparse boundary envelope. Optional fields are pointers so
// that an absent field is distinguishable from a zero value; merge logic
// only touches fields that were actually sent. Queue is a pointer to a
// slice for the same reason: queue_change with an explicit empty list must
// replace the queue, queue_change without one must not.
type Message struct {
	Type              string          `json:"type"`
	TrackID           *string         `json:"trackId,omitempty"`
	Position          *float64        `json:"position,omitempty"`
	IsPlaying         *bool           `json:"isPlaying,omitempty"`
	Timestamp         *float64        `json:"timestamp,omitempty"`
	ClientID          string          `json:"client_id,omitempty"`
	SourceParticipant int             `json:"source_participant,omitempty"`
	ForUserID         *int            `json:"for_user_id,omitempty"`
	Queue             *[]QueueEntry   `json:"queue,omitempty"`
	UserID            *int            `json:"user_id,omitempty"`
	Username          string          `json:"username,omitempty"`
	UsersCount        *int            `json:"users_count,omitempty"`
	CanControl        *bool           `json:"can_control,omitempty"`
	Chat              json.RawMessage `json:"message,omitempty"`
}

// IsPlaybackControl reports whether t mutates the shared playback cursor.
func IsPlaybackControl(t string) bool {
	switch t {
	case TypePlay, TypePause, TypeSeek, TypeTrackChange, TypeSync, TypePlaybackUpdate:
		return true
	}
	return false
}

func Pong(timestamp float64) *Message {
	return &Message{Type: TypePong, Timestamp: Float(timestamp)}
}

func QueueSync(entries []QueueEntry) *Message {
	if entries == nil {
		entries = []QueueEntry{}
	}
	return &Message{Type: TypeQueueSync, Queue: &entries}
}

func ControlPermission(canControl bool) *Message {
	return &Message{Type: TypeControlPermission, CanControl: Bool(canControl)}
}

func UserJoined(userID int, username string, usersCount int) *Message {
	return &Message{Type: TypeUserJoined, UserID: Int(userID), Username: username, UsersCount: Int(usersCount)}
}

func UserLeft(userID, usersCount int) *Message {
	return &Message{Type: TypeUserLeft, UserID: Int(userID), UsersCount: Int(usersCount)}
}

// Pointer helpers for the sparse fields above.

func Bool(v bool) *bool        { return &v }
func Int(v int) *int           { return &v }
func Float(v float64) *float64 { return &v }
func String(v string) *string  { return &v }
