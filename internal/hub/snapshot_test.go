package hub

import (
	"errors"
	"testing"

	"musictogether/internal/protocol"
)

func registryWithRoom(t *testing.T, room string) *Registry {
	t.Helper()
	r := NewRegistry()
	r.Register(&Connection{ID: "seed", Room: room, UserID: 1, Writer: &nopWriter{}})
	return r
}

func testQueue() []protocol.QueueEntry {
	return []protocol.QueueEntry{
		{ID: 1, RoomID: 1, MusicID: 42, Position: 0, UserID: 1, Music: protocol.Track{ID: 42, Title: "First", Artist: "A", Duration: 180}},
		{ID: 2, RoomID: 1, MusicID: 43, Position: 1, UserID: 2, Music: protocol.Track{ID: 43, Title: "Second", Artist: "B", Duration: 200}},
	}
}

func TestEnsureLoaded_SeedsFromFirstEntry(t *testing.T) {
	r := registryWithRoom(t, "room")

	calls := 0
	err := r.EnsureLoaded("room", func(string) ([]protocol.QueueEntry, error) {
		calls++
		return testQueue(), nil
	})
	if err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}

	snap, ok := r.Current("room")
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if snap.Playback.TrackID == nil || *snap.Playback.TrackID != "42" {
		t.Fatalf("expected track 42, got %v", snap.Playback.TrackID)
	}
	if snap.Playback.IsPlaying || snap.Playback.Position != 0 {
		t.Fatalf("expected paused at zero, got %+v", snap.Playback)
	}
	if snap.Playback.ControllerID != nil {
		t.Fatal("no controller should be recorded on a fresh snapshot")
	}
	if len(snap.Queue) != 2 {
		t.Fatalf("expected 2 queue entries, got %d", len(snap.Queue))
	}

	// Second call within the same epoch must not hit storage again.
	if err := r.EnsureLoaded("room", func(string) ([]protocol.QueueEntry, error) {
		calls++
		return nil, nil
	}); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single load per epoch, got %d", calls)
	}
}

func TestEnsureLoaded_EmptyQueue(t *testing.T) {
	r := registryWithRoom(t, "room")

	if err := r.EnsureLoaded("room", func(string) ([]protocol.QueueEntry, error) { return nil, nil }); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	snap, ok := r.Current("room")
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if snap.Playback.TrackID != nil {
		t.Fatalf("expected no current track, got %v", *snap.Playback.TrackID)
	}
}

func TestEnsureLoaded_LoaderFailureSeedsEmpty(t *testing.T) {
	r := registryWithRoom(t, "room")

	loadErr := errors.New("storage down")
	if err := r.EnsureLoaded("room", func(string) ([]protocol.QueueEntry, error) { return nil, loadErr }); !errors.Is(err, loadErr) {
		t.Fatalf("expected loader error back, got %v", err)
	}

	// Room stays usable with an empty snapshot.
	if _, ok := r.Current("room"); !ok {
		t.Fatal("expected an empty snapshot despite the failure")
	}
}

func TestMergePlayback_PartialFieldsRetainState(t *testing.T) {
	r := registryWithRoom(t, "room")

	r.MergePlayback("room", &protocol.Message{
		Type:              protocol.TypeSync,
		TrackID:           protocol.String("A"),
		Position:          protocol.Float(10),
		IsPlaying:         protocol.Bool(true),
		Timestamp:         protocol.Float(1000),
		SourceParticipant: 1,
	})
	r.MergePlayback("room", &protocol.Message{
		Type:              protocol.TypeSeek,
		Position:          protocol.Float(42),
		Timestamp:         protocol.Float(1001),
		SourceParticipant: 2,
	})

	snap, _ := r.Current("room")
	p := snap.Playback
	if p.TrackID == nil || *p.TrackID != "A" {
		t.Fatalf("seek must not reset the track, got %v", p.TrackID)
	}
	if p.Position != 42 {
		t.Fatalf("expected position 42, got %v", p.Position)
	}
	if !p.IsPlaying {
		t.Fatal("seek must not change isPlaying")
	}
	if p.ControllerID == nil || *p.ControllerID != 2 {
		t.Fatalf("expected controller 2, got %v", p.ControllerID)
	}
}

func TestMergePlayback_Idempotent(t *testing.T) {
	r := registryWithRoom(t, "room")

	msg := &protocol.Message{
		Type:              protocol.TypeSync,
		TrackID:           protocol.String("T1"),
		Position:          protocol.Float(33.5),
		IsPlaying:         protocol.Bool(true),
		Timestamp:         protocol.Float(1234.5),
		ClientID:          "tag-1",
		SourceParticipant: 7,
	}
	r.MergePlayback("room", msg)
	first, _ := r.Current("room")
	r.MergePlayback("room", msg)
	second, _ := r.Current("room")

	if *first.Playback.TrackID != *second.Playback.TrackID ||
		first.Playback.Position != second.Playback.Position ||
		first.Playback.IsPlaying != second.Playback.IsPlaying ||
		first.Playback.UpdatedAt != second.Playback.UpdatedAt ||
		*first.Playback.ControllerID != *second.Playback.ControllerID ||
		first.Playback.ControllerTag != second.Playback.ControllerTag {
		t.Fatalf("repeated merge changed state: %+v vs %+v", first.Playback, second.Playback)
	}
}

func TestMergePlayback_InfersPlayingFromType(t *testing.T) {
	r := registryWithRoom(t, "room")

	r.MergePlayback("room", &protocol.Message{Type: protocol.TypePlay, TrackID: protocol.String("T1"), SourceParticipant: 1})
	if snap, _ := r.Current("room"); !snap.Playback.IsPlaying {
		t.Fatal("play without isPlaying must infer true")
	}

	r.MergePlayback("room", &protocol.Message{Type: protocol.TypePause, SourceParticipant: 1})
	if snap, _ := r.Current("room"); snap.Playback.IsPlaying {
		t.Fatal("pause without isPlaying must infer false")
	}

	r.MergePlayback("room", &protocol.Message{Type: protocol.TypePlay, SourceParticipant: 1})
	r.MergePlayback("room", &protocol.Message{Type: protocol.TypePlaybackUpdate, Position: protocol.Float(5), SourceParticipant: 1})
	if snap, _ := r.Current("room"); !snap.Playback.IsPlaying {
		t.Fatal("playback_update without isPlaying must leave the flag alone")
	}
}

func TestReplaceQueue_Wholesale(t *testing.T) {
	r := registryWithRoom(t, "room")
	if err := r.EnsureLoaded("room", func(string) ([]protocol.QueueEntry, error) { return testQueue(), nil }); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}

	r.ReplaceQueue("room", []protocol.QueueEntry{
		{ID: 9, MusicID: 99, Position: 0, Music: protocol.Track{ID: 99, Title: "Only"}},
	})

	snap, _ := r.Current("room")
	if len(snap.Queue) != 1 || snap.Queue[0].ID != 9 {
		t.Fatalf("expected the replacement list only, got %+v", snap.Queue)
	}

	r.ReplaceQueue("room", []protocol.QueueEntry{})
	if snap, _ := r.Current("room"); len(snap.Queue) != 0 {
		t.Fatalf("explicit empty list must clear the queue, got %+v", snap.Queue)
	}
}

func TestCurrent_ReturnsCopies(t *testing.T) {
	r := registryWithRoom(t, "room")
	if err := r.EnsureLoaded("room", func(string) ([]protocol.QueueEntry, error) { return testQueue(), nil }); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}

	snap, _ := r.Current("room")
	snap.Queue[0].Music.Title = "mutated"
	*snap.Playback.TrackID = "mutated"

	again, _ := r.Current("room")
	if again.Queue[0].Music.Title != "First" || *again.Playback.TrackID != "42" {
		t.Fatal("Current must not expose internal state")
	}
}

func TestSnapshot_DiscardedWithLastConnection(t *testing.T) {
	r := NewRegistry()
	conn := &Connection{ID: "a", Room: "room", UserID: 1, Writer: &nopWriter{}}
	r.Register(conn)

	calls := 0
	loader := func(string) ([]protocol.QueueEntry, error) {
		calls++
		return testQueue(), nil
	}
	if err := r.EnsureLoaded("room", loader); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}

	if _, empty := r.Unregister(conn); !empty {
		t.Fatal("expected empty room")
	}
	if _, ok := r.Current("room"); ok {
		t.Fatal("snapshot must be discarded with the last connection")
	}

	// A new epoch loads fresh from storage.
	r.Register(&Connection{ID: "b", Room: "room", UserID: 1, Writer: &nopWriter{}})
	if err := r.EnsureLoaded("room", loader); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a fresh load in the new epoch, got %d calls", calls)
	}
}
