package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Grade is the persisted evaluation outcome for exactly one submission.
// Judge holds the full judge result including its debug bag; Runner holds
// the deterministic check results. Score mirrors the judge score and is
// always within [0,100]. Rows are immutable once written; the unique index
// on SubmissionID enforces the one-to-one relationship.
type Grade struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"submission_id"`
	Judge        datatypes.JSON `gorm:"type:json" json:"judge"`
	Runner       datatypes.JSON `gorm:"type:json" json:"runner"`
	Score        float64        `gorm:"not null;default:0" json:"score"`
	CreatedAt    time.Time      `json:"created_at"`
	Submission   Submission     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission"`
}

// BeforeCreate assigns the identity when the caller did not.
func (g *Grade) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// JudgeDetail deserializes the stored judge result.
func (g Grade) JudgeDetail() map[string]interface{} {
	return decodeDetail(g.Judge)
}

// RunnerDetail deserializes the stored runner result.
func (g Grade) RunnerDetail() map[string]interface{} {
	return decodeDetail(g.Runner)
}

func decodeDetail(raw datatypes.JSON) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}

	var detail map[string]interface{}
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil
	}

	return detail
}
