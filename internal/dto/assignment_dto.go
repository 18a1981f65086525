package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/caliper-hq/caliper-api/internal/models"
)

// AssignmentCreateRequest describes the payload for handing a pack to a
// candidate.
type AssignmentCreateRequest struct {
	CandidateID uint `json:"candidate_id" validate:"required,gt=0"`
	PackID      uint `json:"pack_id" validate:"required,gt=0"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID          uuid.UUID     `json:"id"`
	CandidateID uint          `json:"candidate_id"`
	PackID      uint          `json:"pack_id"`
	StartedAt   *time.Time    `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at"`
	CreatedAt   time.Time     `json:"created_at"`
	Candidate   CandidateLite `json:"candidate"`
	Pack        PackLite      `json:"pack"`
}

// AssignmentStartResponse confirms the candidate has begun an assignment.
type AssignmentStartResponse struct {
	OK           bool      `json:"ok"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	Candidate    string    `json:"candidate"`
	Pack         string    `json:"pack"`
	StartedAt    time.Time `json:"started_at"`
}

// AssignmentFinishResponse confirms the assignment has been closed out.
type AssignmentFinishResponse struct {
	OK           bool      `json:"ok"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	Status       string    `json:"status"`
	FinishedAt   time.Time `json:"finished_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	response := AssignmentResponse{
		ID:          model.ID,
		CandidateID: model.CandidateID,
		PackID:      model.PackID,
		StartedAt:   model.StartedAt,
		FinishedAt:  model.FinishedAt,
		CreatedAt:   model.CreatedAt,
	}

	if model.Candidate.ID != 0 {
		response.Candidate = NewCandidateLite(model.Candidate)
	}

	if model.Pack.ID != 0 {
		response.Pack = NewPackLite(model.Pack)
	}

	return response
}
