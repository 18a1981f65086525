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

// PackHandler manages admin pack endpoints.
type PackHandler struct {
	service service.PackService
	logger  zerolog.Logger
}

// NewPackHandler builds a pack handler instance.
func NewPackHandler(service service.PackService, logger zerolog.Logger) *PackHandler {
	return &PackHandler{
		service: service,
		logger:  logger.With().Str("component", "pack_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *PackHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
}

func (h *PackHandler) create(c *fiber.Ctx) error {
	var payload dto.PackCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	pack, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OKWithStatus(c, fiber.StatusCreated, pack, "pack created", nil)
}

func (h *PackHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid pack id", nil)
	}

	pack, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, pack, "pack retrieved", nil)
}

func (h *PackHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrPackNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "pack not found", nil)
	case errors.Is(err, service.ErrQuestionNotFound):
		return utils.Fail(c, fiber.StatusBadRequest, "pack references an unknown question", nil)
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
	}
}
