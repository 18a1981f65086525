package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/caliper-hq/caliper-api/internal/service"
	"github.com/caliper-hq/caliper-api/internal/utils"
)

// CandidateFlowHandler serves the candidate-facing assignment surface:
// starting and finishing an assignment and viewing its questions. Success
// responses use the flat shapes consumed by the interview client.
type CandidateFlowHandler struct {
	assignments service.AssignmentService
	logger      zerolog.Logger
}

// NewCandidateFlowHandler builds a candidate flow handler instance.
func NewCandidateFlowHandler(assignments service.AssignmentService, logger zerolog.Logger) *CandidateFlowHandler {
	return &CandidateFlowHandler{
		assignments: assignments,
		logger:      logger.With().Str("component", "candidate_flow_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *CandidateFlowHandler) Register(router fiber.Router) {
	router.Post("/assignments/:id/start", h.start)
	router.Get("/assignments/:id/questions/:qid", h.question)
	router.Post("/assignments/:id/finish", h.finish)
}

func (h *CandidateFlowHandler) start(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid assignment id", nil)
	}

	result, err := h.assignments.Start(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(result)
}

func (h *CandidateFlowHandler) question(c *fiber.Ctx) error {
	assignmentID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid assignment id", nil)
	}

	questionID, err := parseUUIDParam(c, "qid")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid question id", nil)
	}

	result, err := h.assignments.Question(c.Context(), assignmentID, questionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(result)
}

func (h *CandidateFlowHandler) finish(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid assignment id", nil)
	}

	result, err := h.assignments.Finish(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(result)
}

func (h *CandidateFlowHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "assignment not found", nil)
	case errors.Is(err, service.ErrQuestionNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "question not found", nil)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
	}
}
