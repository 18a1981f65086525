package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
)

// ErrAssignmentNotFound indicates an assignment could not be located.
var ErrAssignmentNotFound = errors.New("assignment not found")

// AssignmentService exposes assignment lifecycle operations for both the
// admin and candidate surfaces.
type AssignmentService interface {
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Start(ctx context.Context, id uuid.UUID) (dto.AssignmentStartResponse, error)
	Finish(ctx context.Context, id uuid.UUID) (dto.AssignmentFinishResponse, error)
	Question(ctx context.Context, assignmentID, questionID uuid.UUID) (dto.AssignmentQuestionResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	candidates  repository.CandidateRepository
	packs       repository.PackRepository
	questions   repository.QuestionRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, candidateRepo repository.CandidateRepository, packRepo repository.PackRepository, questionRepo repository.QuestionRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		candidates:  candidateRepo,
		packs:       packRepo,
		questions:   questionRepo,
		validator:   validate,
		activity:    activity,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.candidates.GetByID(ctx, payload.CandidateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrCandidateNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.packs.GetByID(ctx, payload.PackID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrPackNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		CandidateID: payload.CandidateID,
		PackID:      payload.PackID,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	created, err := s.assignments.GetByID(ctx, assignment.ID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.recordActivity(ctx, "assignment.created", created, map[string]interface{}{
		"candidate_id": created.CandidateID,
		"pack_id":      created.PackID,
	})
	s.logger.Info().Str("assignment_id", created.ID.String()).Msg("assignment created")

	return dto.NewAssignmentResponse(created), nil
}

// Start stamps started_at on the first call; repeated starts keep the
// original timestamp.
func (s *assignmentService) Start(ctx context.Context, id uuid.UUID) (dto.AssignmentStartResponse, error) {
	assignment, err := s.getAssignment(ctx, id)
	if err != nil {
		return dto.AssignmentStartResponse{}, err
	}

	if !assignment.Started() {
		startedAt := s.now()
		assignment.StartedAt = &startedAt
		if err := s.assignments.Update(ctx, &assignment); err != nil {
			return dto.AssignmentStartResponse{}, err
		}
		s.recordActivity(ctx, "assignment.started", assignment, nil)
	}

	return dto.AssignmentStartResponse{
		OK:           true,
		AssignmentID: assignment.ID,
		Candidate:    assignment.Candidate.Name,
		Pack:         assignment.Pack.Name,
		StartedAt:    *assignment.StartedAt,
	}, nil
}

// Finish stamps finished_at on the first call; repeated finishes keep the
// original timestamp.
func (s *assignmentService) Finish(ctx context.Context, id uuid.UUID) (dto.AssignmentFinishResponse, error) {
	assignment, err := s.getAssignment(ctx, id)
	if err != nil {
		return dto.AssignmentFinishResponse{}, err
	}

	if !assignment.Finished() {
		finishedAt := s.now()
		assignment.FinishedAt = &finishedAt
		if err := s.assignments.Update(ctx, &assignment); err != nil {
			return dto.AssignmentFinishResponse{}, err
		}
		s.recordActivity(ctx, "assignment.finished", assignment, nil)
	}

	return dto.AssignmentFinishResponse{
		OK:           true,
		AssignmentID: assignment.ID,
		Status:       "finished",
		FinishedAt:   *assignment.FinishedAt,
	}, nil
}

// Question returns the candidate-facing view of one question. The timer
// comes from the assignment's pack item when the question is part of the
// pack; the ideal answer never leaves the service.
func (s *assignmentService) Question(ctx context.Context, assignmentID, questionID uuid.UUID) (dto.AssignmentQuestionResponse, error) {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentQuestionResponse{}, err
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentQuestionResponse{}, ErrQuestionNotFound
		}
		return dto.AssignmentQuestionResponse{}, err
	}

	timerSeconds := 0
	for _, item := range assignment.Pack.Items {
		if item.QuestionID == question.ID {
			timerSeconds = item.TimerSeconds
			break
		}
	}

	return dto.AssignmentQuestionResponse{
		OK:           true,
		AssignmentID: assignment.ID,
		Question:     dto.NewQuestionView(question),
		TimerSeconds: timerSeconds,
	}, nil
}

func (s *assignmentService) getAssignment(ctx context.Context, id uuid.UUID) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (s *assignmentService) recordActivity(ctx context.Context, action string, assignment models.Assignment, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      "admin",
		Action:     action,
		EntityType: "assignment",
		EntityID:   assignment.ID.String(),
		Metadata:   metadata,
	})
}
