package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/models"
)

// GradeRepository defines data operations for grades. Grades are written
// once; the unique index on submission_id backs the one-to-one invariant
// with submissions.
type GradeRepository interface {
	GetBySubmissionID(ctx context.Context, submissionID uuid.UUID) (models.Grade, error)
	ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository instantiates the repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) GetBySubmissionID(ctx context.Context, submissionID uuid.UUID) (models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&grade).Error; err != nil {
		return models.Grade{}, err
	}

	return grade, nil
}

func (r *gradeRepository) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Grade, error) {
	subQuery := r.db.Model(&models.Submission{}).
		Select("id").
		Where("assignment_id = ?", assignmentID)

	var grades []models.Grade
	if err := r.db.WithContext(ctx).Model(&models.Grade{}).
		Preload("Submission").
		Preload("Submission.Question").
		Where("submission_id IN (?)", subQuery).
		Order("created_at ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}

	return grades, nil
}

func (r *gradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	return r.db.WithContext(ctx).Create(grade).Error
}
