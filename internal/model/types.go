package model

import "time"

type Room struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:100"`
	RoomCode  string `gorm:"size:16;uniqueIndex"`
	CreatedBy int64
	CreatedAt time.Time
}

type User struct {
	ID        int64  `gorm:"primaryKey"`
	Username  string `gorm:"size:100"`
	CreatedAt time.Time
}

type Music struct {
	ID        int64   `gorm:"primaryKey"`
	Title     string  `gorm:"size:200"`
	Artist    string  `gorm:"size:200"`
	Album     *string `gorm:"size:200"`
	Duration  float64
	FilePath  string  `gorm:"size:500"`
	CoverPath *string `gorm:"size:500"`
	SourceURL *string `gorm:"size:500"`
	AddedBy   int64
	AddedAt   time.Time
}

// TableName keeps the singular table name the rest of the application uses.
func (Music) TableName() string { return "music" }

type QueueItem struct {
	ID       int64 `gorm:"primaryKey"`
	RoomID   int64 `gorm:"index"`
	MusicID  int64
	AddedBy  int64
	Position int
	AddedAt  time.Time
	Music    Music `gorm:"foreignKey:MusicID"`
}
