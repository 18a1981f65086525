package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/observability"
	"github.com/caliper-hq/caliper-api/internal/repository"
	"github.com/caliper-hq/caliper-api/internal/runner"
	"github.com/caliper-hq/caliper-api/pkg/judge"
)

const defaultSignTTL = 300 * time.Second

// ErrSubmissionAlreadyGraded indicates a grade already exists for the
// submission. The unique index on grades.submission_id enforces the same
// invariant at the database level.
var ErrSubmissionAlreadyGraded = errors.New("submission already graded")

// FileSigner produces short-lived signed URLs for stored attachments.
type FileSigner interface {
	Sign(ctx context.Context, ref string, ttl time.Duration) (string, error)
}

// EvaluationOutcome bundles the persisted grade with the typed results
// that produced it.
type EvaluationOutcome struct {
	Grade  models.Grade
	Runner runner.Result
	Judge  judge.Result
}

// EvaluationService runs the answer evaluation pipeline: deterministic
// checks plus the external judge, merged into a single persisted Grade.
type EvaluationService interface {
	Evaluate(ctx context.Context, question models.Question, submission models.Submission) (EvaluationOutcome, error)
}

type evaluationService struct {
	grades  repository.GradeRepository
	judge   judge.Judger
	signer  FileSigner
	signTTL time.Duration
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewEvaluationService constructs the evaluation pipeline service. The
// signer may be nil, in which case file references pass through unsigned.
func NewEvaluationService(grades repository.GradeRepository, answerJudge judge.Judger, signer FileSigner, signTTL time.Duration, logger zerolog.Logger) EvaluationService {
	if signTTL <= 0 {
		signTTL = defaultSignTTL
	}

	return &evaluationService{
		grades:  grades,
		judge:   answerJudge,
		signer:  signer,
		signTTL: signTTL,
		logger:  logger.With().Str("component", "evaluation_service").Logger(),
		tracer:  otel.Tracer("github.com/caliper-hq/caliper-api/internal/service/evaluation"),
	}
}

// Evaluate runs the deterministic runner first and hands its result to
// the judge, whose prompt embeds the question, the submission and the
// runner checks. The runner is an in-process pure function, so the only
// blocking leg is the judge call, bounded by the client timeout. The final
// score is the judge score alone; the runner result is stored on the Grade
// for audit but never weighted in.
func (s *evaluationService) Evaluate(ctx context.Context, question models.Question, submission models.Submission) (EvaluationOutcome, error) {
	spanCtx, span := s.tracer.Start(ctx, "evaluation.run", trace.WithAttributes(
		attribute.String("submission.id", submission.ID.String()),
		attribute.String("question.qtype", question.Qtype),
	))
	defer span.End()

	if _, err := s.grades.GetBySubmissionID(spanCtx, submission.ID); err == nil {
		span.SetStatus(codes.Error, "submission_already_graded")
		return EvaluationOutcome{}, ErrSubmissionAlreadyGraded
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return EvaluationOutcome{}, err
	}

	fileRef := s.signFileRef(spanCtx, submission.FileURL)

	judgeQuestion := judge.Question{
		Title:       question.Title,
		Qtype:       question.Qtype,
		Spec:        json.RawMessage(question.Spec),
		Rubric:      json.RawMessage(question.Rubric),
		IdealAnswer: question.IdealAnswer,
	}
	judgeSubmission := judge.Submission{
		Answer:  json.RawMessage(submission.Answer),
		FileURL: fileRef,
	}

	runnerResult := runner.Run(json.RawMessage(question.Spec), json.RawMessage(submission.Answer))
	judgeResult := s.judge.Judge(spanCtx, judgeQuestion, judgeSubmission, runnerResult)

	judgeJSON, err := json.Marshal(judgeResult)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "judge_result_encoding_failed")
		return EvaluationOutcome{}, fmt.Errorf("encode judge result: %w", err)
	}

	runnerJSON, err := json.Marshal(runnerResult)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "runner_result_encoding_failed")
		return EvaluationOutcome{}, fmt.Errorf("encode runner result: %w", err)
	}

	grade := models.Grade{
		SubmissionID: submission.ID,
		Judge:        datatypes.JSON(judgeJSON),
		Runner:       datatypes.JSON(runnerJSON),
		Score:        judgeResult.Score,
	}

	if err := s.grades.Create(spanCtx, &grade); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_persistence_failed")
		return EvaluationOutcome{}, err
	}

	observability.GradesRecorded().WithLabelValues(question.Qtype).Inc()
	span.SetAttributes(attribute.Float64("grade.score", grade.Score))
	s.logger.Info().
		Str("submission_id", submission.ID.String()).
		Str("grade_id", grade.ID.String()).
		Float64("score", grade.Score).
		Msg("grade recorded")

	return EvaluationOutcome{Grade: grade, Runner: runnerResult, Judge: judgeResult}, nil
}

// signFileRef swaps the stored reference for a short-lived signed URL.
// Signing failures fall back to the raw reference.
func (s *evaluationService) signFileRef(ctx context.Context, ref string) string {
	if ref == "" || s.signer == nil {
		return ref
	}

	signed, err := s.signer.Sign(ctx, ref, s.signTTL)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to sign file reference, using raw reference")
		return ref
	}

	return signed
}
