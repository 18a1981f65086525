package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission is one answer event for one question of an assignment. It is
// written exactly once; a corrected answer is a new Submission, so the
// table has no UpdatedAt column.
type Submission struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"assignment_id"`
	QuestionID   uuid.UUID      `gorm:"type:uuid;not null" json:"question_id"`
	Answer       datatypes.JSON `gorm:"type:json" json:"answer"`
	FileURL      string         `gorm:"type:text" json:"file_url"`
	CreatedAt    time.Time      `json:"created_at"`
	Assignment   Assignment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Question     Question       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question"`
}

// BeforeCreate assigns the identity when the caller did not.
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
