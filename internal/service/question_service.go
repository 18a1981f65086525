package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
	"github.com/caliper-hq/caliper-api/pkg/ai"
)

// ErrQuestionNotFound indicates a question could not be located.
var ErrQuestionNotFound = errors.New("question not found")

// ErrGeneratorUnavailable indicates question generation is not configured.
var ErrGeneratorUnavailable = errors.New("question generator unavailable")

// QuestionService exposes question authoring operations, including
// generator-assisted drafting and versioned edits.
type QuestionService interface {
	Create(ctx context.Context, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	Generate(ctx context.Context, payload dto.QuestionGenerateRequest) (dto.QuestionResponse, error)
	Update(ctx context.Context, id uuid.UUID, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (dto.QuestionResponse, error)
	List(ctx context.Context, filter dto.QuestionFilter) ([]dto.QuestionResponse, error)
}

type questionService struct {
	questions repository.QuestionRepository
	generator ai.Generator
	sanitizer *bluemonday.Policy
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewQuestionService constructs a QuestionService instance. The generator
// may be nil, which disables the generate operation.
func NewQuestionService(questionRepo repository.QuestionRepository, generator ai.Generator, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) QuestionService {
	return &questionService{
		questions: questionRepo,
		generator: generator,
		sanitizer: bluemonday.StrictPolicy(),
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "question_service").Logger(),
	}
}

func (s *questionService) Create(ctx context.Context, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question := models.Question{
		Title:       strings.TrimSpace(payload.Title),
		Qtype:       payload.Qtype,
		Spec:        datatypes.JSON(payload.Spec),
		Rubric:      datatypes.JSON(payload.Rubric),
		Dataset:     datatypes.JSON(payload.Dataset),
		IdealAnswer: payload.IdealAnswer,
		Version:     1,
	}

	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.recordActivity(ctx, "question.created", question)

	return dto.NewQuestionResponse(question), nil
}

// Generate drafts a question through the reasoning endpoint and persists
// it. Generated text passes through a strict HTML sanitizer first; the
// generator itself never fails, so neither does this beyond persistence.
func (s *questionService) Generate(ctx context.Context, payload dto.QuestionGenerateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}
	if s.generator == nil {
		return dto.QuestionResponse{}, ErrGeneratorUnavailable
	}

	prompt := strings.TrimSpace(payload.Prompt)
	if prompt == "" {
		prompt = "Default Excel interview question"
	}

	draft := s.generator.GenerateQuestion(ctx, prompt)

	question := models.Question{
		Title:       s.sanitizeText(draft.Title),
		Qtype:       draft.Type,
		Spec:        datatypes.JSON(draft.Spec),
		Rubric:      datatypes.JSON(draft.Rubric),
		IdealAnswer: s.sanitizeText(draft.IdealAnswer),
		Version:     draft.Version,
	}

	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.recordActivity(ctx, "question.generated", question)
	s.logger.Info().Str("question_id", question.ID.String()).Msg("question generated")

	return dto.NewQuestionResponse(question), nil
}

// Update edits a question. Questions already referenced by a pack item or
// submission are immutable; editing one writes a new row with the version
// bumped, leaving the referenced row untouched.
func (s *questionService) Update(ctx context.Context, id uuid.UUID, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}

	references, err := s.questions.CountReferences(ctx, id)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	applyQuestionPatch(&question, payload)

	if references > 0 {
		question.ID = uuid.Nil
		question.Version++
		question.CreatedAt = time.Time{}
		question.UpdatedAt = time.Time{}
		if err := s.questions.Create(ctx, &question); err != nil {
			return dto.QuestionResponse{}, err
		}
		s.recordActivity(ctx, "question.versioned", question)
		return dto.NewQuestionResponse(question), nil
	}

	if err := s.questions.Update(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.recordActivity(ctx, "question.updated", question)

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) Get(ctx context.Context, id uuid.UUID) (dto.QuestionResponse, error) {
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) List(ctx context.Context, filter dto.QuestionFilter) ([]dto.QuestionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	questions, err := s.questions.List(ctx, repository.QuestionFilter{Qtype: filter.Qtype})
	if err != nil {
		return nil, err
	}

	return dto.NewQuestionResponseSlice(questions), nil
}

func (s *questionService) sanitizeText(text string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(text))
}

func (s *questionService) recordActivity(ctx context.Context, action string, question models.Question) {
	if s.activity == nil {
		return
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      "admin",
		Action:     action,
		EntityType: "question",
		EntityID:   question.ID.String(),
		Metadata: map[string]interface{}{
			"title":   question.Title,
			"qtype":   question.Qtype,
			"version": question.Version,
		},
	})
}

func applyQuestionPatch(question *models.Question, payload dto.QuestionUpdateRequest) {
	if payload.Title != nil {
		question.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.Qtype != nil {
		question.Qtype = *payload.Qtype
	}
	if payload.Spec != nil {
		question.Spec = datatypes.JSON(payload.Spec)
	}
	if payload.Rubric != nil {
		question.Rubric = datatypes.JSON(payload.Rubric)
	}
	if payload.Dataset != nil {
		question.Dataset = datatypes.JSON(payload.Dataset)
	}
	if payload.IdealAnswer != nil {
		question.IdealAnswer = *payload.IdealAnswer
	}
}
