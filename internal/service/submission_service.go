package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ReportInvalidator drops a cached assignment report after its contents
// change.
type ReportInvalidator interface {
	InvalidateReport(ctx context.Context, assignmentID uuid.UUID) error
}

// SubmissionService accepts candidate answers and drives them through the
// evaluation pipeline. Every submit produces a new submission row and a
// grade; resubmissions never overwrite earlier attempts.
type SubmissionService interface {
	Submit(ctx context.Context, payload dto.SubmissionSubmitRequest) (dto.GradeResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	questions   repository.QuestionRepository
	evaluator   EvaluationService
	events      GradeEventPublisher
	reports     ReportInvalidator
	activity    ActivityRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewSubmissionService constructs a SubmissionService instance. The events,
// reports and activity collaborators may be nil.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, questionRepo repository.QuestionRepository, evaluator EvaluationService, events GradeEventPublisher, reports ReportInvalidator, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		questions:   questionRepo,
		evaluator:   evaluator,
		events:      events,
		reports:     reports,
		activity:    activity,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

func (s *submissionService) Submit(ctx context.Context, payload dto.SubmissionSubmitRequest) (dto.GradeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, ErrAssignmentNotFound
		}
		return dto.GradeResponse{}, err
	}

	question, err := s.questions.GetByID(ctx, payload.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, ErrQuestionNotFound
		}
		return dto.GradeResponse{}, err
	}

	answer := payload.Answer
	if len(answer) == 0 {
		answer = []byte("{}")
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		QuestionID:   question.ID,
		Answer:       datatypes.JSON(answer),
		FileURL:      payload.FileURL,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.GradeResponse{}, err
	}

	outcome, err := s.evaluator.Evaluate(ctx, question, submission)
	if err != nil {
		return dto.GradeResponse{}, err
	}

	s.announceGrade(ctx, assignment, submission, outcome)

	return dto.GradeResponse{
		OK:           true,
		SubmissionID: submission.ID,
		GradeID:      outcome.Grade.ID,
		Score:        outcome.Grade.Score,
		Runner:       outcome.Runner,
		Judge:        outcome.Judge,
		FileURL:      submission.FileURL,
	}, nil
}

// announceGrade fans the recorded grade out to the event stream, the
// report cache and the activity log. All three are best effort; a failed
// side effect never fails the submit.
func (s *submissionService) announceGrade(ctx context.Context, assignment models.Assignment, submission models.Submission, outcome EvaluationOutcome) {
	if s.events != nil {
		event := GradeEvent{
			SubmissionID: submission.ID,
			GradeID:      outcome.Grade.ID,
			AssignmentID: assignment.ID,
			QuestionID:   submission.QuestionID,
			Score:        outcome.Grade.Score,
			RecordedAt:   outcome.Grade.CreatedAt,
		}
		if err := s.events.PublishGradeRecorded(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("grade_id", outcome.Grade.ID.String()).Msg("failed to publish grade event")
		}
	}

	if s.reports != nil {
		if err := s.reports.InvalidateReport(ctx, assignment.ID); err != nil {
			s.logger.Warn().Err(err).Str("assignment_id", assignment.ID.String()).Msg("failed to invalidate cached report")
		}
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			Actor:      "candidate",
			Action:     "submission.graded",
			EntityType: "submission",
			EntityID:   submission.ID.String(),
			Metadata: map[string]interface{}{
				"assignment_id": assignment.ID.String(),
				"question_id":   submission.QuestionID.String(),
				"score":         outcome.Grade.Score,
			},
		})
	}
}
