package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/models"
)

// UploadRepository records metadata for every stored attachment so grades
// can be audited against the exact file the candidate handed in.
type UploadRepository interface {
	Create(ctx context.Context, record *models.UploadRecord) error
}

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository constructs the attachment metadata repository.
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return uploadRepository{db: db}
}

func (r uploadRepository) Create(ctx context.Context, record *models.UploadRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}
