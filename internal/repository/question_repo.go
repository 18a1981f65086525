package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/models"
)

// QuestionFilter allows narrowing question queries.
type QuestionFilter struct {
	Qtype *string
	Title *string
}

// QuestionRepository defines data operations for the question catalog.
type QuestionRepository interface {
	List(ctx context.Context, filter QuestionFilter) ([]models.Question, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Question, error)
	Create(ctx context.Context, question *models.Question) error
	Update(ctx context.Context, question *models.Question) error
	CountReferences(ctx context.Context, id uuid.UUID) (int64, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) List(ctx context.Context, filter QuestionFilter) ([]models.Question, error) {
	query := r.db.WithContext(ctx).Model(&models.Question{})

	if filter.Qtype != nil {
		query = query.Where("qtype = ?", *filter.Qtype)
	}
	if filter.Title != nil {
		query = query.Where("title = ?", *filter.Title)
	}

	var questions []models.Question
	if err := query.Order("created_at DESC").Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&question).Error; err != nil {
		return models.Question{}, err
	}

	return question, nil
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Save(question).Error
}

// CountReferences reports how many pack items and submissions point at the
// question. A non-zero count makes the question immutable.
func (r *questionRepository) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var packItems int64
	if err := r.db.WithContext(ctx).Model(&models.PackItem{}).
		Where("question_id = ?", id).Count(&packItems).Error; err != nil {
		return 0, err
	}

	var submissions int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("question_id = ?", id).Count(&submissions).Error; err != nil {
		return 0, err
	}

	return packItems + submissions, nil
}
