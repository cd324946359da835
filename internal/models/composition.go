package models

import (
	"time"

	"gorm.io/gorm"
)

// Composition is one stored Standard MIDI File: decoded metadata plus
// the raw bytes, re-encoded from the event model on import.
type Composition struct {
	ID         uint           `gorm:"primarykey" json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	PublicID   string         `gorm:"uniqueIndex;not null" json:"id"` // UUID handed to API clients
	Name       string         `gorm:"not null" json:"name"`
	Format     int            `gorm:"not null" json:"format"`
	Division   int            `gorm:"not null" json:"division"` // ticks per quarter note
	TrackCount int            `gorm:"not null" json:"track_count"`
	EventCount int            `gorm:"not null" json:"event_count"`
	ByteSize   int            `gorm:"not null" json:"byte_size"`
	Data       []byte         `gorm:"type:bytea;not null" json:"-"`
}

// MergeLog records one merge run for usage accounting
type MergeLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	SourceID    string    `gorm:"index;not null" json:"source_id"` // source composition UUID
	ResultID    string    `gorm:"index" json:"result_id"`          // merged composition UUID
	TracksIn    int       `gorm:"not null" json:"tracks_in"`
	EventsOut   int       `gorm:"not null" json:"events_out"`
	DurationMS  int       `gorm:"not null" json:"duration_ms"`
	RequestID   string    `gorm:"index" json:"request_id"`
	RequestedBy string    `json:"requested_by"`
}
