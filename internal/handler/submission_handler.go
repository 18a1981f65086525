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

// SubmissionHandler accepts candidate answers and returns the grading
// outcome in the flat shape consumed by the interview client.
type SubmissionHandler struct {
	service     service.SubmissionService
	development bool
	logger      zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, development bool, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service:     service,
		development: development,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
}

// submit grades an answer synchronously. The judge debug bag never leaves
// the API outside development.
func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmissionSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	result, err := h.service.Submit(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	if !h.development {
		result.Judge.Debug = nil
	}

	return c.JSON(result)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "assignment not found", nil)
	case errors.Is(err, service.ErrQuestionNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "question not found", nil)
	case errors.Is(err, service.ErrSubmissionAlreadyGraded):
		return utils.Fail(c, fiber.StatusConflict, "submission already graded", nil)
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
	}
}
