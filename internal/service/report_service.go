package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/observability"
	"github.com/caliper-hq/caliper-api/internal/repository"
)

// ReportService aggregates an assignment's submissions and grades into a
// hiring report.
type ReportService interface {
	AssignmentReport(ctx context.Context, assignmentID uuid.UUID) (dto.ReportResponse, error)
	InvalidateReport(ctx context.Context, assignmentID uuid.UUID) error
}

type reportService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	grades      repository.GradeRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewReportService builds the report aggregator. The cache client may be
// nil, in which case every report is computed from the database.
func NewReportService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, grades repository.GradeRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ReportService {
	return &reportService{
		assignments: assignments,
		submissions: submissions,
		grades:      grades,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "report_service").Logger(),
	}
}

func (s *reportService) AssignmentReport(ctx context.Context, assignmentID uuid.UUID) (dto.ReportResponse, error) {
	cacheKey := reportCacheKey(assignmentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ReportResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.ReportCache().WithLabelValues("hit").Inc()
				s.logger.Debug().Str("assignment_id", assignmentID.String()).Msg("report cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
		}
		observability.ReportCache().WithLabelValues("miss").Inc()
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReportResponse{}, ErrAssignmentNotFound
		}
		return dto.ReportResponse{}, err
	}

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	grades, err := s.grades.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	response := s.buildResponse(assignment, submissions, grades)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store report cache")
			}
		}
	}

	return response, nil
}

// InvalidateReport drops the cached report for an assignment. A nil cache
// makes this a no-op.
func (s *reportService) InvalidateReport(ctx context.Context, assignmentID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}

	return s.cache.Del(ctx, reportCacheKey(assignmentID)).Err()
}

func (s *reportService) buildResponse(assignment models.Assignment, submissions []models.Submission, grades []models.Grade) dto.ReportResponse {
	gradeBySubmission := make(map[uuid.UUID]models.Grade, len(grades))
	var scoreTotal float64
	for _, grade := range grades {
		gradeBySubmission[grade.SubmissionID] = grade
		scoreTotal += grade.Score
	}

	rows := make([]dto.ReportSubmission, 0, len(submissions))
	for _, submission := range submissions {
		var gradeRef *models.Grade
		if grade, graded := gradeBySubmission[submission.ID]; graded {
			gradeCopy := grade
			gradeRef = &gradeCopy
		}
		rows = append(rows, dto.NewReportSubmission(submission, gradeRef))
	}

	averageScore := 0.0
	if len(grades) > 0 {
		averageScore = scoreTotal / float64(len(grades))
	}

	return dto.ReportResponse{
		OK:           true,
		AssignmentID: assignment.ID,
		Candidate:    dto.NewCandidateLite(assignment.Candidate),
		Pack:         dto.NewPackLite(assignment.Pack),
		AverageScore: averageScore,
		Submissions:  rows,
	}
}

func reportCacheKey(assignmentID uuid.UUID) string {
	return fmt.Sprintf("report:assignment:%s", assignmentID)
}
