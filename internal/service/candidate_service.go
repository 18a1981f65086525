package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
)

// ErrCandidateNotFound indicates a candidate could not be located.
var ErrCandidateNotFound = errors.New("candidate not found")

// ErrCandidateEmailTaken indicates the email is already registered.
var ErrCandidateEmailTaken = errors.New("candidate email already registered")

// CandidateService exposes candidate management operations.
type CandidateService interface {
	Create(ctx context.Context, payload dto.CandidateCreateRequest) (dto.CandidateResponse, error)
	List(ctx context.Context) ([]dto.CandidateResponse, error)
}

type candidateService struct {
	candidates repository.CandidateRepository
	validator  *validator.Validate
	activity   ActivityRecorder
	logger     zerolog.Logger
}

// NewCandidateService constructs a CandidateService instance.
func NewCandidateService(candidateRepo repository.CandidateRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) CandidateService {
	return &candidateService{
		candidates: candidateRepo,
		validator:  validate,
		activity:   activity,
		logger:     logger.With().Str("component", "candidate_service").Logger(),
	}
}

func (s *candidateService) Create(ctx context.Context, payload dto.CandidateCreateRequest) (dto.CandidateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CandidateResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))

	if _, err := s.candidates.GetByEmail(ctx, email); err == nil {
		return dto.CandidateResponse{}, ErrCandidateEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.CandidateResponse{}, err
	}

	candidate := models.Candidate{
		Email: email,
		Name:  strings.TrimSpace(payload.Name),
	}

	if err := s.candidates.Create(ctx, &candidate); err != nil {
		return dto.CandidateResponse{}, err
	}

	s.recordActivity(ctx, candidate)
	s.logger.Info().Uint("candidate_id", candidate.ID).Msg("candidate created")

	return dto.NewCandidateResponse(candidate), nil
}

func (s *candidateService) List(ctx context.Context) ([]dto.CandidateResponse, error) {
	candidates, err := s.candidates.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewCandidateResponseSlice(candidates), nil
}

func (s *candidateService) recordActivity(ctx context.Context, candidate models.Candidate) {
	if s.activity == nil {
		return
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      "admin",
		Action:     "candidate.created",
		EntityType: "candidate",
		EntityID:   uintID(candidate.ID),
		Metadata: map[string]interface{}{
			"email": candidate.Email,
			"name":  candidate.Name,
		},
	})
}
