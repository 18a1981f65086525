package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/runner"
	"github.com/caliper-hq/caliper-api/pkg/judge"
)

// SubmissionSubmitRequest is the JSON payload for answering a question.
// Answer is an opaque JSON value of any shape; FileURL optionally points
// at an uploaded attachment.
type SubmissionSubmitRequest struct {
	AssignmentID uuid.UUID       `json:"assignment_id" validate:"required"`
	QuestionID   uuid.UUID       `json:"question_id" validate:"required"`
	Answer       json.RawMessage `json:"answer"`
	FileURL      string          `json:"file_url" validate:"omitempty,url"`
}

// GradeResponse is the grading envelope returned after a submission has
// been evaluated. The judge debug bag is stripped outside development.
type GradeResponse struct {
	OK           bool          `json:"ok"`
	SubmissionID uuid.UUID     `json:"submission_id"`
	GradeID      uuid.UUID     `json:"grade_id"`
	Score        float64       `json:"score"`
	Runner       runner.Result `json:"runner"`
	Judge        judge.Result  `json:"judge"`
	FileURL      string        `json:"file_url"`
}

// SubmissionResponse serializes a stored submission.
type SubmissionResponse struct {
	ID           uuid.UUID       `json:"id"`
	AssignmentID uuid.UUID       `json:"assignment_id"`
	QuestionID   uuid.UUID       `json:"question_id"`
	Answer       json.RawMessage `json:"answer"`
	FileURL      string          `json:"file_url"`
	CreatedAt    time.Time       `json:"created_at"`
	Question     QuestionLite    `json:"question"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		QuestionID:   model.QuestionID,
		Answer:       rawJSON(model.Answer),
		FileURL:      model.FileURL,
		CreatedAt:    model.CreatedAt,
	}

	if model.Question.ID != uuid.Nil {
		response.Question = NewQuestionLite(model.Question)
	}

	return response
}
