package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksSensitiveMetadata(t *testing.T) {
	repo := &memoryActivityRepo{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewActivityService(repo, validate, testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		Actor:      "Admin",
		Action:     "Candidate.Created",
		EntityType: "candidate",
		EntityID:   "7",
		Metadata: map[string]interface{}{
			"email":      "candidate@example.com",
			"seed_token": "s3cret",
			"name":       "Ada",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "admin", entry.Actor)
	require.Equal(t, "candidate.created", entry.Action)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "***", entry.Metadata["seed_token"])
	require.Equal(t, "Ada", entry.Metadata["name"])
}

func TestActivityServiceRecordDefaultsActorToSystem(t *testing.T) {
	repo := &memoryActivityRepo{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewActivityService(repo, validate, testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		Action:     "grade.recorded",
		EntityType: "grade",
	})
	require.NoError(t, err)
	require.Equal(t, "system", entry.Actor)

	_, err = svc.Record(context.Background(), ActivityEntry{EntityType: "grade"})
	require.Error(t, err)
}

func TestActivityServiceListBuildsPagination(t *testing.T) {
	repo := &memoryActivityRepo{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewActivityService(repo, validate, testLogger())

	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{
			Action:     "pack.created",
			EntityType: "pack",
		})
		require.NoError(t, err)
	}

	result, err := svc.List(context.Background(), dto.ActivityListRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	require.Equal(t, int64(3), result.Pagination.TotalItems)
	require.Equal(t, 2, result.Pagination.TotalPages)
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
