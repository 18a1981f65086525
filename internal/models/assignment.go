package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment hands one pack to one candidate. Start and finish timestamps
// stay nil until the candidate reaches the respective milestone.
type Assignment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CandidateID uint       `gorm:"not null;index" json:"candidate_id"`
	PackID      uint       `gorm:"not null" json:"pack_id"`
	StartedAt   *time.Time `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Candidate   Candidate  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"candidate"`
	Pack        Pack       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"pack"`
}

// BeforeCreate assigns the identity when the caller did not.
func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Started reports whether the candidate has begun the assignment.
func (a Assignment) Started() bool {
	return a.StartedAt != nil
}

// Finished reports whether the assignment has been closed out.
func (a Assignment) Finished() bool {
	return a.FinishedAt != nil
}
