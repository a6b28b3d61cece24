package models

import (
	"time"

	"gorm.io/gorm"
)

type Player struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	RoomID     string         `json:"room_id" gorm:"size:36;index;not null"`
	UserID     string         `json:"user_id" gorm:"size:36;index;not null"`
	Nickname   string         `json:"nickname" gorm:"not null"`
	Avatar     string         `json:"avatar"`
	TotalScore int            `json:"total_score" gorm:"not null;default:0"`
	IsHost     bool           `json:"is_host" gorm:"not null;default:false"`
	JoinedAt   time.Time      `json:"joined_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Room Room `json:"room,omitempty"`
}
