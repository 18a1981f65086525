package models

import (
	"time"

	"github.com/google/uuid"
)

// MinPackItemTimerSeconds is the smallest allowed per-question timer.
const MinPackItemTimerSeconds = 10

// Pack is an ordered bundle of questions assigned to candidates as a unit.
type Pack struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:120;not null" json:"name"`
	Version   int        `gorm:"not null;default:1" json:"version"`
	Items     []PackItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PackItem ties one question into a pack with its per-question timer.
type PackItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PackID       uint      `gorm:"not null;index" json:"pack_id"`
	QuestionID   uuid.UUID `gorm:"type:uuid;not null" json:"question_id"`
	TimerSeconds int       `gorm:"not null;default:180" json:"timer_seconds"`
	Question     Question  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question"`
}
