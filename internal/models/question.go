package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// QuestionTypeTheory marks free-text conceptual questions.
	QuestionTypeTheory = "theory"
	// QuestionTypePractical marks questions answered with structured output.
	QuestionTypePractical = "practical"
)

// Question is one interview question. Spec, Rubric and Dataset are opaque
// provider-defined payloads. Once a question is referenced by a pack item
// or a submission it becomes immutable; edits create a new row with a
// bumped version.
type Question struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Qtype       string         `gorm:"size:16;not null" json:"qtype"`
	Spec        datatypes.JSON `gorm:"type:json" json:"spec"`
	Rubric      datatypes.JSON `gorm:"type:json" json:"rubric"`
	Dataset     datatypes.JSON `gorm:"type:json" json:"dataset"`
	IdealAnswer string         `gorm:"type:text" json:"ideal_answer"`
	Version     int            `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BeforeCreate assigns the identity when the caller did not.
func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
