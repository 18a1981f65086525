package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/models"
)

// PackRepository defines data operations for question packs.
type PackRepository interface {
	List(ctx context.Context) ([]models.Pack, error)
	GetByID(ctx context.Context, id uint) (models.Pack, error)
	GetByName(ctx context.Context, name string) (models.Pack, error)
	Create(ctx context.Context, pack *models.Pack) error
	CreateItem(ctx context.Context, item *models.PackItem) error
}

type packRepository struct {
	db *gorm.DB
}

// NewPackRepository instantiates the repository.
func NewPackRepository(db *gorm.DB) PackRepository {
	return &packRepository{db: db}
}

func (r *packRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Pack{}).
		Preload("Items").
		Preload("Items.Question")
}

func (r *packRepository) List(ctx context.Context) ([]models.Pack, error) {
	var packs []models.Pack
	if err := r.baseQuery(ctx).Order("created_at DESC").Find(&packs).Error; err != nil {
		return nil, err
	}

	return packs, nil
}

func (r *packRepository) GetByID(ctx context.Context, id uint) (models.Pack, error) {
	var pack models.Pack
	if err := r.baseQuery(ctx).First(&pack, id).Error; err != nil {
		return models.Pack{}, err
	}

	return pack, nil
}

func (r *packRepository) GetByName(ctx context.Context, name string) (models.Pack, error) {
	var pack models.Pack
	if err := r.baseQuery(ctx).Where("name = ?", name).First(&pack).Error; err != nil {
		return models.Pack{}, err
	}

	return pack, nil
}

// Create persists the pack together with its items in one transaction.
func (r *packRepository) Create(ctx context.Context, pack *models.Pack) error {
	return r.db.WithContext(ctx).Create(pack).Error
}

func (r *packRepository) CreateItem(ctx context.Context, item *models.PackItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

