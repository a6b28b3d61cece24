package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Room struct {
	ID         string         `json:"id" gorm:"primaryKey;size:36"`
	Code       string         `json:"room_code" gorm:"index;not null"`
	HostID     string         `json:"host_id" gorm:"size:36;not null"`
	Status     string         `json:"status" gorm:"not null;default:'waiting'"` // waiting, playing, finished
	StartedAt  *time.Time     `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Players []Player `json:"players,omitempty" gorm:"foreignKey:RoomID"`
	Rounds  []Round  `json:"rounds,omitempty" gorm:"foreignKey:RoomID"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
