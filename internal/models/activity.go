package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures auditable admin and pipeline events, such as pack
// creation or a submission being graded. EntityID is stored as text since
// entities mix integer and UUID identities.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Actor      string            `gorm:"size:64;not null" json:"actor"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   string            `gorm:"size:64" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
