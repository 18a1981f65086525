package dto

import (
	"time"

	"github.com/caliper-hq/caliper-api/internal/models"
)

// CandidateCreateRequest captures the payload for registering a candidate.
type CandidateCreateRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2,max=120"`
}

// CandidateResponse serializes a candidate for API clients.
type CandidateResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CandidateLite summarizes a candidate inside nested responses.
type CandidateLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewCandidateResponse converts a Candidate model into a DTO.
func NewCandidateResponse(model models.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:        model.ID,
		Email:     model.Email,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
	}
}

// NewCandidateResponseSlice converts candidate models into DTOs.
func NewCandidateResponseSlice(models []models.Candidate) []CandidateResponse {
	responses := make([]CandidateResponse, 0, len(models))
	for _, candidate := range models {
		responses = append(responses, NewCandidateResponse(candidate))
	}

	return responses
}

// NewCandidateLite builds the nested candidate summary.
func NewCandidateLite(model models.Candidate) CandidateLite {
	return CandidateLite{
		ID:    model.ID,
		Name:  model.Name,
		Email: model.Email,
	}
}
