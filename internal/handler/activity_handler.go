package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/service"
	"github.com/caliper-hq/caliper-api/internal/utils"
)

// ActivityHandler exposes the audit trail to operators.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler builds an activity handler instance.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	req := dto.ActivityListRequest{}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid page", nil)
	}
	req.Page = page

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid page_size", nil)
	}
	req.PageSize = pageSize

	if actor := strings.TrimSpace(c.Query("actor")); actor != "" {
		req.Actor = actor
	}
	if action := strings.TrimSpace(c.Query("action")); action != "" {
		req.Action = action
	}
	if entityType := strings.TrimSpace(c.Query("entity_type")); entityType != "" {
		req.EntityType = entityType
	}

	activities, err := h.service.List(c.Context(), req)
	if err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
	}

	return utils.OK(c, activities.Items, "activity retrieved", activities.Pagination)
}
