package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"musictogether/internal/model"
	"musictogether/internal/protocol"
)

// Store is the persistent-storage side of the room directory. The sync hub
// only reads from it: room existence, queue seeds and display names. Rooms,
// tracks and queue rows are written by the surrounding application (and by
// the seed helpers below).
type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite database at path and migrates the schema.
// Use "file::memory:?cache=shared" for an in-memory database in tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&model.Room{}, &model.User{}, &model.Music{}, &model.QueueItem{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) RoomExists(code string) (bool, error) {
	var n int64
	if err := s.db.Model(&model.Room{}).Where("room_code = ?", code).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// LoadQueue returns the room's queue in position order with track metadata
// joined in. An unknown room yields an empty queue, not an error; the hub
// checks existence separately before it gets here.
func (s *Store) LoadQueue(code string) ([]protocol.QueueEntry, error) {
	var room model.Room
	err := s.db.Where("room_code = ?", code).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []model.QueueItem
	err = s.db.Preload("Music").Where("room_id = ?", room.ID).Order("position asc").Find(&items).Error
	if err != nil {
		return nil, err
	}

	entries := make([]protocol.QueueEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, toEntry(it))
	}
	return entries, nil
}

func (s *Store) ResolveDisplayName(userID int) (string, error) {
	var u model.User
	if err := s.db.First(&u, int64(userID)).Error; err != nil {
		return "", err
	}
	return u.Username, nil
}

// Seed helpers, used by tests and by deployments without the full CRUD
// application in front.

func (s *Store) CreateRoom(name, code string, createdBy int64) (model.Room, error) {
	room := model.Room{Name: name, RoomCode: code, CreatedBy: createdBy, CreatedAt: time.Now()}
	if err := s.db.Create(&room).Error; err != nil {
		return model.Room{}, err
	}
	return room, nil
}

func (s *Store) CreateUser(username string) (model.User, error) {
	user := model.User{Username: username, CreatedAt: time.Now()}
	if err := s.db.Create(&user).Error; err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *Store) AddTrack(title, artist string, duration float64, addedBy int64) (model.Music, error) {
	track := model.Music{Title: title, Artist: artist, Duration: duration, AddedBy: addedBy, AddedAt: time.Now()}
	if err := s.db.Create(&track).Error; err != nil {
		return model.Music{}, err
	}
	return track, nil
}

func (s *Store) Enqueue(roomID, musicID, addedBy int64, position int) (model.QueueItem, error) {
	item := model.QueueItem{RoomID: roomID, MusicID: musicID, AddedBy: addedBy, Position: position, AddedAt: time.Now()}
	if err := s.db.Create(&item).Error; err != nil {
		return model.QueueItem{}, err
	}
	return item, nil
}

func toEntry(it model.QueueItem) protocol.QueueEntry {
	entry := protocol.QueueEntry{
		ID:       it.ID,
		RoomID:   it.RoomID,
		MusicID:  it.MusicID,
		Position: it.Position,
		UserID:   it.AddedBy,
		Music: protocol.Track{
			ID:       it.Music.ID,
			Title:    it.Music.Title,
			Artist:   it.Music.Artist,
			Duration: it.Music.Duration,
		},
	}
	if it.Music.CoverPath != nil {
		entry.Music.CoverPath = *it.Music.CoverPath
	}
	return entry
}
