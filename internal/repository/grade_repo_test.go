package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
)

func repoTestDB(t *testing.T) *gorm.DB {
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

func seedGradedSubmission(t *testing.T, db *gorm.DB, email string) models.Submission {
	t.Helper()

	candidate := models.Candidate{Email: email, Name: "Repo User"}
	require.NoError(t, db.Create(&candidate).Error)

	question := models.Question{Title: "VLOOKUP concept", Qtype: models.QuestionTypeTheory, Version: 1}
	require.NoError(t, db.Create(&question).Error)

	pack := models.Pack{
		Name:    "Pack " + email,
		Version: 1,
		Items:   []models.PackItem{{QuestionID: question.ID, TimerSeconds: 180}},
	}
	require.NoError(t, db.Create(&pack).Error)

	assignment := models.Assignment{CandidateID: candidate.ID, PackID: pack.ID}
	require.NoError(t, db.Create(&assignment).Error)

	submission := models.Submission{
		AssignmentID: assignment.ID,
		QuestionID:   question.ID,
		Answer:       datatypes.JSON([]byte(`"first attempt"`)),
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func TestGradeRepositoryUniqueSubmission(t *testing.T) {
	db := repoTestDB(t)
	repo := repository.NewGradeRepository(db)
	submission := seedGradedSubmission(t, db, "grade-unique@example.com")

	first := models.Grade{
		SubmissionID: submission.ID,
		Judge:        datatypes.JSON([]byte(`{"score":70,"verdict":"fine"}`)),
		Runner:       datatypes.JSON([]byte(`{"passed":true,"checks":[],"score_runner":100}`)),
		Score:        70,
	}
	require.NoError(t, repo.Create(context.Background(), &first))

	// The database index must reject the duplicate even when no caller
	// ran the service-level pre-check.
	second := models.Grade{
		SubmissionID: submission.ID,
		Judge:        datatypes.JSON([]byte(`{"score":95,"verdict":"better"}`)),
		Runner:       datatypes.JSON([]byte(`{"passed":true,"checks":[],"score_runner":100}`)),
		Score:        95,
	}
	require.Error(t, repo.Create(context.Background(), &second))

	var count int64
	require.NoError(t, db.Model(&models.Grade{}).Where("submission_id = ?", submission.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)

	stored, err := repo.GetBySubmissionID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, stored.ID)
	require.Equal(t, 70.0, stored.Score)
}
