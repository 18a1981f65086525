package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/caliper-hq/caliper-api/internal/models"
)

// PackItemRequest ties one question into a new pack. A zero timer falls
// back to the model default of 180 seconds.
type PackItemRequest struct {
	QuestionID   uuid.UUID `json:"question_id" validate:"required"`
	TimerSeconds int       `json:"timer_seconds" validate:"omitempty,gte=10"`
}

// PackCreateRequest captures the payload for creating a question pack.
type PackCreateRequest struct {
	Name    string            `json:"name" validate:"required,min=3,max=120"`
	Version int               `json:"version" validate:"omitempty,gte=1"`
	Items   []PackItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PackItemResponse serializes one pack entry with its question summary.
type PackItemResponse struct {
	ID           uint         `json:"id"`
	QuestionID   uuid.UUID    `json:"question_id"`
	TimerSeconds int          `json:"timer_seconds"`
	Question     QuestionLite `json:"question"`
}

// PackResponse serializes a pack for API clients.
type PackResponse struct {
	ID        uint               `json:"id"`
	Name      string             `json:"name"`
	Version   int                `json:"version"`
	Items     []PackItemResponse `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
}

// PackLite summarizes a pack inside nested responses.
type PackLite struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// NewPackResponse converts a Pack model into a DTO.
func NewPackResponse(model models.Pack) PackResponse {
	items := make([]PackItemResponse, 0, len(model.Items))
	for _, item := range model.Items {
		items = append(items, PackItemResponse{
			ID:           item.ID,
			QuestionID:   item.QuestionID,
			TimerSeconds: item.TimerSeconds,
			Question:     NewQuestionLite(item.Question),
		})
	}

	return PackResponse{
		ID:        model.ID,
		Name:      model.Name,
		Version:   model.Version,
		Items:     items,
		CreatedAt: model.CreatedAt,
	}
}

// NewPackLite builds the nested pack summary.
func NewPackLite(model models.Pack) PackLite {
	return PackLite{
		ID:      model.ID,
		Name:    model.Name,
		Version: model.Version,
	}
}
