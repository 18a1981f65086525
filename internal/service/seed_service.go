package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

const (
	demoCandidateEmail = "demo@example.com"
	demoCandidateName  = "Demo User"
	demoQuestionTitle  = "VLOOKUP concept"
	demoPackName       = "Starter Pack"
)

// SeedService provisions the demo candidate, question, pack and assignment
// used for smoke runs. Every call is idempotent: existing rows are reused.
type SeedService interface {
	SeedDemo(ctx context.Context, token string) (dto.SeedResponse, error)
}

type seedService struct {
	candidates  repository.CandidateRepository
	questions   repository.QuestionRepository
	packs       repository.PackRepository
	assignments repository.AssignmentRepository
	enabled     bool
	token       string
	logger      zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(candidateRepo repository.CandidateRepository, questionRepo repository.QuestionRepository, packRepo repository.PackRepository, assignmentRepo repository.AssignmentRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		candidates:  candidateRepo,
		questions:   questionRepo,
		packs:       packRepo,
		assignments: assignmentRepo,
		enabled:     enabled,
		token:       token,
		logger:      logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedDemo(ctx context.Context, token string) (dto.SeedResponse, error) {
	if !s.enabled {
		return dto.SeedResponse{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedResponse{}, ErrSeedUnauthorized
	}

	candidate, err := s.demoCandidate(ctx)
	if err != nil {
		return dto.SeedResponse{}, err
	}

	question, err := s.demoQuestion(ctx)
	if err != nil {
		return dto.SeedResponse{}, err
	}

	pack, err := s.demoPack(ctx, question)
	if err != nil {
		return dto.SeedResponse{}, err
	}

	assignment, err := s.demoAssignment(ctx, candidate, pack)
	if err != nil {
		return dto.SeedResponse{}, err
	}

	s.logger.Info().
		Uint("candidate_id", candidate.ID).
		Str("assignment_id", assignment.ID.String()).
		Msg("demo data seeded")

	return dto.SeedResponse{
		OK:           true,
		CandidateID:  candidate.ID,
		QuestionID:   question.ID,
		PackID:       pack.ID,
		AssignmentID: assignment.ID,
	}, nil
}

func (s *seedService) demoCandidate(ctx context.Context) (models.Candidate, error) {
	candidate, err := s.candidates.GetByEmail(ctx, demoCandidateEmail)
	if err == nil {
		return candidate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Candidate{}, err
	}

	candidate = models.Candidate{Email: demoCandidateEmail, Name: demoCandidateName}
	if err := s.candidates.Create(ctx, &candidate); err != nil {
		return models.Candidate{}, err
	}

	return candidate, nil
}

func (s *seedService) demoQuestion(ctx context.Context) (models.Question, error) {
	title := demoQuestionTitle
	existing, err := s.questions.List(ctx, repository.QuestionFilter{Title: &title})
	if err != nil {
		return models.Question{}, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	question := models.Question{
		Title:   demoQuestionTitle,
		Qtype:   models.QuestionTypeTheory,
		Spec:    datatypes.JSON([]byte(`{"prompt":"Explain VLOOKUP vs INDEX/MATCH."}`)),
		Rubric:  datatypes.JSON([]byte(`{"key_points":["lookup mechanics","limitations","alternatives"]}`)),
		Version: 1,
	}
	if err := s.questions.Create(ctx, &question); err != nil {
		return models.Question{}, err
	}

	return question, nil
}

func (s *seedService) demoPack(ctx context.Context, question models.Question) (models.Pack, error) {
	pack, err := s.packs.GetByName(ctx, demoPackName)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Pack{}, err
		}

		pack = models.Pack{
			Name:    demoPackName,
			Version: 1,
			Items:   []models.PackItem{{QuestionID: question.ID, TimerSeconds: 180}},
		}
		if err := s.packs.Create(ctx, &pack); err != nil {
			return models.Pack{}, err
		}

		return pack, nil
	}

	for _, item := range pack.Items {
		if item.QuestionID == question.ID {
			return pack, nil
		}
	}

	item := models.PackItem{PackID: pack.ID, QuestionID: question.ID, TimerSeconds: 180}
	if err := s.packs.CreateItem(ctx, &item); err != nil {
		return models.Pack{}, err
	}
	pack.Items = append(pack.Items, item)

	return pack, nil
}

func (s *seedService) demoAssignment(ctx context.Context, candidate models.Candidate, pack models.Pack) (models.Assignment, error) {
	assignment, err := s.assignments.GetByCandidateAndPack(ctx, candidate.ID, pack.ID)
	if err == nil {
		return assignment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Assignment{}, err
	}

	assignment = models.Assignment{CandidateID: candidate.ID, PackID: pack.ID}
	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtleConstantTimeCompare(expected, strings.TrimSpace(token))
}

func subtleConstantTimeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	mismatch := byte(0)
	for i := 0; i < len(a); i++ {
		mismatch |= a[i] ^ b[i]
	}
	return mismatch == 0
}
