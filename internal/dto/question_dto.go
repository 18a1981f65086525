package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/caliper-hq/caliper-api/internal/models"
)

// QuestionCreateRequest captures the payload for authoring a question.
type QuestionCreateRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=200"`
	Qtype       string          `json:"qtype" validate:"required,oneof=theory practical"`
	Spec        json.RawMessage `json:"spec"`
	Rubric      json.RawMessage `json:"rubric"`
	Dataset     json.RawMessage `json:"dataset"`
	IdealAnswer string          `json:"ideal_answer"`
}

// QuestionUpdateRequest captures a partial edit. Editing a question that is
// already referenced by a pack item or submission produces a new versioned
// row instead of mutating the original.
type QuestionUpdateRequest struct {
	Title       *string         `json:"title" validate:"omitempty,min=3,max=200"`
	Qtype       *string         `json:"qtype" validate:"omitempty,oneof=theory practical"`
	Spec        json.RawMessage `json:"spec"`
	Rubric      json.RawMessage `json:"rubric"`
	Dataset     json.RawMessage `json:"dataset"`
	IdealAnswer *string         `json:"ideal_answer"`
}

// QuestionGenerateRequest asks the generator for a question draft.
type QuestionGenerateRequest struct {
	Prompt string `json:"prompt" validate:"omitempty,max=2000"`
}

// QuestionFilter describes query string filters for listing questions.
type QuestionFilter struct {
	Qtype *string `query:"qtype" validate:"omitempty,oneof=theory practical"`
}

// QuestionResponse serializes a question for admin clients, including the
// ideal answer.
type QuestionResponse struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Qtype       string          `json:"qtype"`
	Spec        json.RawMessage `json:"spec"`
	Rubric      json.RawMessage `json:"rubric"`
	Dataset     json.RawMessage `json:"dataset,omitempty"`
	IdealAnswer string          `json:"ideal_answer,omitempty"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// QuestionLite summarizes a question inside nested responses.
type QuestionLite struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Qtype   string    `json:"qtype"`
	Version int       `json:"version"`
}

// QuestionView is the candidate-facing projection of a question. The ideal
// answer never appears here.
type QuestionView struct {
	ID     uuid.UUID       `json:"id"`
	Title  string          `json:"title"`
	Spec   json.RawMessage `json:"spec"`
	Rubric json.RawMessage `json:"rubric"`
	Qtype  string          `json:"qtype"`
}

// AssignmentQuestionResponse wraps a question view for a candidate working
// through an assignment. TimerSeconds comes from the pack item and is zero
// when the question is not part of the assignment's pack.
type AssignmentQuestionResponse struct {
	OK           bool         `json:"ok"`
	AssignmentID uuid.UUID    `json:"assignment_id"`
	Question     QuestionView `json:"question"`
	TimerSeconds int          `json:"timer_seconds,omitempty"`
}

// NewQuestionResponse converts a Question model into an admin DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	return QuestionResponse{
		ID:          model.ID,
		Title:       model.Title,
		Qtype:       model.Qtype,
		Spec:        rawJSON(model.Spec),
		Rubric:      rawJSON(model.Rubric),
		Dataset:     rawJSON(model.Dataset),
		IdealAnswer: model.IdealAnswer,
		Version:     model.Version,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewQuestionResponseSlice converts question models into DTOs.
func NewQuestionResponseSlice(models []models.Question) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(models))
	for _, question := range models {
		responses = append(responses, NewQuestionResponse(question))
	}

	return responses
}

// NewQuestionLite builds the nested question summary.
func NewQuestionLite(model models.Question) QuestionLite {
	return QuestionLite{
		ID:      model.ID,
		Title:   model.Title,
		Qtype:   model.Qtype,
		Version: model.Version,
	}
}

// NewQuestionView builds the candidate-facing projection.
func NewQuestionView(model models.Question) QuestionView {
	return QuestionView{
		ID:     model.ID,
		Title:  model.Title,
		Spec:   rawJSON(model.Spec),
		Rubric: rawJSON(model.Rubric),
		Qtype:  model.Qtype,
	}
}

func rawJSON(value datatypes.JSON) json.RawMessage {
	if len(value) == 0 {
		return nil
	}
	return json.RawMessage(value)
}
