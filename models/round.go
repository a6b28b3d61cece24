package models

import (
	"time"

	"gorm.io/gorm"
)

type Round struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	RoomID    string         `json:"room_id" gorm:"size:36;index;not null"`
	Number    int            `json:"round_number" gorm:"not null"`
	WinnerID  string         `json:"winner_id" gorm:"size:36"`
	Complete  bool           `json:"complete" gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Room   Room         `json:"room,omitempty"`
	Scores []RoundScore `json:"scores,omitempty" gorm:"foreignKey:RoundID"`
}

type RoundScore struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	RoundID   uint           `json:"round_id" gorm:"index;not null"`
	RoomID    string         `json:"room_id" gorm:"size:36;index;not null"`
	UserID    string         `json:"user_id" gorm:"size:36;index;not null"`
	Score     int            `json:"score" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Round Round `json:"round,omitempty"`
}
