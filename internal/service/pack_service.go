package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/repository"
)

// ErrPackNotFound indicates a pack could not be located.
var ErrPackNotFound = errors.New("pack not found")

// PackService exposes question pack operations.
type PackService interface {
	Create(ctx context.Context, payload dto.PackCreateRequest) (dto.PackResponse, error)
	Get(ctx context.Context, id uint) (dto.PackResponse, error)
}

type packService struct {
	packs     repository.PackRepository
	questions repository.QuestionRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewPackService constructs a PackService instance.
func NewPackService(packRepo repository.PackRepository, questionRepo repository.QuestionRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) PackService {
	return &packService{
		packs:     packRepo,
		questions: questionRepo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "pack_service").Logger(),
	}
}

func (s *packService) Create(ctx context.Context, payload dto.PackCreateRequest) (dto.PackResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PackResponse{}, err
	}

	items := make([]models.PackItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		if _, err := s.questions.GetByID(ctx, item.QuestionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.PackResponse{}, ErrQuestionNotFound
			}
			return dto.PackResponse{}, err
		}

		timer := item.TimerSeconds
		if timer == 0 {
			timer = 180
		}

		items = append(items, models.PackItem{
			QuestionID:   item.QuestionID,
			TimerSeconds: timer,
		})
	}

	version := payload.Version
	if version == 0 {
		version = 1
	}

	pack := models.Pack{
		Name:    payload.Name,
		Version: version,
		Items:   items,
	}

	if err := s.packs.Create(ctx, &pack); err != nil {
		return dto.PackResponse{}, err
	}

	created, err := s.packs.GetByID(ctx, pack.ID)
	if err != nil {
		return dto.PackResponse{}, err
	}

	s.recordActivity(ctx, created)
	s.logger.Info().Uint("pack_id", created.ID).Int("items", len(created.Items)).Msg("pack created")

	return dto.NewPackResponse(created), nil
}

func (s *packService) Get(ctx context.Context, id uint) (dto.PackResponse, error) {
	pack, err := s.packs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PackResponse{}, ErrPackNotFound
		}
		return dto.PackResponse{}, err
	}

	return dto.NewPackResponse(pack), nil
}

func (s *packService) recordActivity(ctx context.Context, pack models.Pack) {
	if s.activity == nil {
		return
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      "admin",
		Action:     "pack.created",
		EntityType: "pack",
		EntityID:   uintID(pack.ID),
		Metadata: map[string]interface{}{
			"name":  pack.Name,
			"items": len(pack.Items),
		},
	})
}
