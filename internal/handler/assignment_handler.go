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

// AssignmentHandler manages admin assignment endpoints, including the
// aggregated hiring report.
type AssignmentHandler struct {
	service service.AssignmentService
	reports service.ReportService
	logger  zerolog.Logger
}

// NewAssignmentHandler builds an assignment handler instance.
func NewAssignmentHandler(service service.AssignmentService, reports service.ReportService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		reports: reports,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id/report", h.report)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	assignment, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OKWithStatus(c, fiber.StatusCreated, assignment, "assignment created", nil)
}

// report returns the flat aggregation shape consumed by hiring tooling;
// it bypasses the admin envelope.
func (h *AssignmentHandler) report(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid assignment id", nil)
	}

	report, err := h.reports.AssignmentReport(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(report)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "assignment not found", nil)
	case errors.Is(err, service.ErrCandidateNotFound):
		return utils.Fail(c, fiber.StatusBadRequest, "candidate not found", nil)
	case errors.Is(err, service.ErrPackNotFound):
		return utils.Fail(c, fiber.StatusBadRequest, "pack not found", nil)
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
	}
}
