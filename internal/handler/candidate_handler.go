package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/service"
	"github.com/caliper-hq/caliper-api/internal/utils"
)

// CandidateHandler manages admin candidate endpoints.
type CandidateHandler struct {
	service service.CandidateService
	logger  zerolog.Logger
}

// NewCandidateHandler builds a candidate handler instance.
func NewCandidateHandler(service service.CandidateService, logger zerolog.Logger) *CandidateHandler {
	return &CandidateHandler{
		service: service,
		logger:  logger.With().Str("component", "candidate_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *CandidateHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
}

func (h *CandidateHandler) create(c *fiber.Ctx) error {
	var payload dto.CandidateCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	candidate, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OKWithStatus(c, fiber.StatusCreated, candidate, "candidate created", nil)
}

func (h *CandidateHandler) list(c *fiber.Ctx) error {
	candidates, err := h.service.List(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, candidates, "candidates retrieved", nil)
}

func (h *CandidateHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCandidateEmailTaken):
		return utils.Fail(c, fiber.StatusConflict, "candidate email already registered", nil)
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
	}
}
