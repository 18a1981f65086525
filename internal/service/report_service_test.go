package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
)

func reportTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Candidate{},
		&models.Question{},
		&models.Pack{},
		&models.PackItem{},
		&models.Assignment{},
		&models.Submission{},
		&models.Grade{},
	))
	return db
}

func seedGradedAssignment(t *testing.T, db *gorm.DB, email string) (models.Assignment, models.Submission, models.Submission) {
	t.Helper()

	candidate := models.Candidate{Email: email, Name: "Demo User"}
	require.NoError(t, db.Create(&candidate).Error)

	question := models.Question{Title: "VLOOKUP concept", Qtype: models.QuestionTypeTheory, Version: 1}
	require.NoError(t, db.Create(&question).Error)

	pack := models.Pack{
		Name:    "Report Pack " + email,
		Version: 1,
		Items:   []models.PackItem{{QuestionID: question.ID, TimerSeconds: 180}},
	}
	require.NoError(t, db.Create(&pack).Error)

	assignment := models.Assignment{CandidateID: candidate.ID, PackID: pack.ID}
	require.NoError(t, db.Create(&assignment).Error)

	graded := models.Submission{
		AssignmentID: assignment.ID,
		QuestionID:   question.ID,
		Answer:       datatypes.JSON([]byte(`"first answer"`)),
	}
	require.NoError(t, db.Create(&graded).Error)

	grade := models.Grade{
		SubmissionID: graded.ID,
		Judge:        datatypes.JSON([]byte(`{"score":80,"verdict":"good"}`)),
		Runner:       datatypes.JSON([]byte(`{"passed":true,"checks":[],"score_runner":100}`)),
		Score:        80,
	}
	require.NoError(t, db.Create(&grade).Error)

	ungraded := models.Submission{
		AssignmentID: assignment.ID,
		QuestionID:   question.ID,
		Answer:       datatypes.JSON([]byte(`"second answer"`)),
	}
	require.NoError(t, db.Create(&ungraded).Error)

	return assignment, graded, ungraded
}

func TestReportServiceAggregatesSubmissions(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := reportTestDB(t)
	assignment, graded, ungraded := seedGradedAssignment(t, db, "report-agg@example.com")

	svc := NewReportService(
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewGradeRepository(db),
		redisClient,
		time.Minute,
		testLogger(),
	)

	report, err := svc.AssignmentReport(context.Background(), assignment.ID)
	require.NoError(t, err)
	require.True(t, report.OK)
	require.Equal(t, assignment.ID, report.AssignmentID)
	require.Equal(t, "Demo User", report.Candidate.Name)
	require.InDelta(t, 80.0, report.AverageScore, 0.01)
	require.Len(t, report.Submissions, 2)

	rows := make(map[uuid.UUID]dto.ReportSubmission, len(report.Submissions))
	for _, row := range report.Submissions {
		rows[row.SubmissionID] = row
	}

	gradedRow := rows[graded.ID]
	require.NotNil(t, gradedRow.Score)
	require.InDelta(t, 80.0, *gradedRow.Score, 0.01)
	require.Equal(t, "good", gradedRow.Judge["verdict"])
	require.Equal(t, true, gradedRow.Runner["passed"])

	ungradedRow := rows[ungraded.ID]
	require.Nil(t, ungradedRow.Score)
	require.Nil(t, ungradedRow.Judge)
	require.Nil(t, ungradedRow.Runner)
}

func TestReportServiceServesCachedReport(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := reportTestDB(t)
	assignment, _, _ := seedGradedAssignment(t, db, "report-cache@example.com")

	svc := NewReportService(
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewGradeRepository(db),
		redisClient,
		time.Minute,
		testLogger(),
	)

	ctx := context.Background()
	first, err := svc.AssignmentReport(ctx, assignment.ID)
	require.NoError(t, err)

	// A new submission does not show until the cache entry expires or is
	// invalidated.
	extra := models.Submission{
		AssignmentID: assignment.ID,
		QuestionID:   first.Submissions[0].QuestionID,
		Answer:       datatypes.JSON([]byte(`"third answer"`)),
	}
	require.NoError(t, db.Create(&extra).Error)

	second, err := svc.AssignmentReport(ctx, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.NoError(t, svc.InvalidateReport(ctx, assignment.ID))

	third, err := svc.AssignmentReport(ctx, assignment.ID)
	require.NoError(t, err)
	require.Len(t, third.Submissions, len(first.Submissions)+1)
}

func TestReportServiceCacheHit(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := reportTestDB(t)

	svc := NewReportService(
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewGradeRepository(db),
		redisClient,
		time.Minute,
		testLogger(),
	)

	assignmentID := uuid.New()
	cached := dto.ReportResponse{OK: true, AssignmentID: assignmentID, AverageScore: 42}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	key := fmt.Sprintf("report:assignment:%s", assignmentID)
	require.NoError(t, redisClient.Set(context.Background(), key, payload, time.Minute).Err())

	report, err := svc.AssignmentReport(context.Background(), assignmentID)
	require.NoError(t, err)
	require.Equal(t, cached, report)
}

func TestReportServiceWithoutCache(t *testing.T) {
	db := reportTestDB(t)
	assignment, _, _ := seedGradedAssignment(t, db, "report-nocache@example.com")

	svc := NewReportService(
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewGradeRepository(db),
		nil,
		time.Minute,
		testLogger(),
	)

	report, err := svc.AssignmentReport(context.Background(), assignment.ID)
	require.NoError(t, err)
	require.Len(t, report.Submissions, 2)
	require.NoError(t, svc.InvalidateReport(context.Background(), assignment.ID))
}

func TestReportServiceMissingAssignment(t *testing.T) {
	db := reportTestDB(t)

	svc := NewReportService(
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewGradeRepository(db),
		nil,
		time.Minute,
		testLogger(),
	)

	_, err := svc.AssignmentReport(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
