package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
)

type memoryCandidateRepo struct {
	candidates map[uint]models.Candidate
	nextID     uint
}

func newMemoryCandidateRepo() *memoryCandidateRepo {
	return &memoryCandidateRepo{
		candidates: make(map[uint]models.Candidate),
		nextID:     1,
	}
}

func (m *memoryCandidateRepo) List(ctx context.Context) ([]models.Candidate, error) {
	results := make([]models.Candidate, 0, len(m.candidates))
	for _, candidate := range m.candidates {
		results = append(results, candidate)
	}
	return results, nil
}

func (m *memoryCandidateRepo) GetByID(ctx context.Context, id uint) (models.Candidate, error) {
	candidate, ok := m.candidates[id]
	if !ok {
		return models.Candidate{}, gorm.ErrRecordNotFound
	}
	return candidate, nil
}

func (m *memoryCandidateRepo) GetByEmail(ctx context.Context, email string) (models.Candidate, error) {
	for _, candidate := range m.candidates {
		if candidate.Email == email {
			return candidate, nil
		}
	}
	return models.Candidate{}, gorm.ErrRecordNotFound
}

func (m *memoryCandidateRepo) Create(ctx context.Context, candidate *models.Candidate) error {
	candidate.ID = m.nextID
	candidate.CreatedAt = time.Now()
	m.candidates[m.nextID] = *candidate
	m.nextID++
	return nil
}

type stubActivityRecorder struct {
	entries []ActivityEntry
}

func (s *stubActivityRecorder) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	s.entries = append(s.entries, entry)
	return dto.ActivityResponse{}, nil
}

func TestCandidateServiceCreateNormalizesEmail(t *testing.T) {
	repo := newMemoryCandidateRepo()
	recorder := &stubActivityRecorder{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewCandidateService(repo, validate, recorder, testLogger())

	result, err := svc.Create(context.Background(), dto.CandidateCreateRequest{
		Email: "  Demo@Example.COM ",
		Name:  "Demo User",
	})
	require.NoError(t, err)
	require.Equal(t, "demo@example.com", result.Email)
	require.Equal(t, "Demo User", result.Name)
	require.Len(t, recorder.entries, 1)
	require.Equal(t, "candidate.created", recorder.entries[0].Action)
}

func TestCandidateServiceCreateRejectsDuplicateEmail(t *testing.T) {
	repo := newMemoryCandidateRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewCandidateService(repo, validate, nil, testLogger())

	payload := dto.CandidateCreateRequest{Email: "demo@example.com", Name: "Demo User"}

	_, err := svc.Create(context.Background(), payload)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), payload)
	require.ErrorIs(t, err, ErrCandidateEmailTaken)
}

func TestCandidateServiceCreateValidatesPayload(t *testing.T) {
	repo := newMemoryCandidateRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewCandidateService(repo, validate, nil, testLogger())

	_, err := svc.Create(context.Background(), dto.CandidateCreateRequest{
		Email: "not-an-email",
		Name:  "X",
	})
	require.Error(t, err)
	require.True(t, isValidationFailure(err))
}

func TestCandidateServiceList(t *testing.T) {
	repo := newMemoryCandidateRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewCandidateService(repo, validate, nil, testLogger())

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.Create(context.Background(), dto.CandidateCreateRequest{Email: email, Name: "Candidate"})
		require.NoError(t, err)
	}

	results, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func isValidationFailure(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
