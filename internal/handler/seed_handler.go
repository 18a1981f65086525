package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/caliper-hq/caliper-api/internal/service"
	"github.com/caliper-hq/caliper-api/internal/utils"
)

// SeedHandler exposes the demo data seeding endpoint.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("", h.seed)
}

func (h *SeedHandler) seed(c *fiber.Ctx) error {
	token := c.Get("X-Seed-Token")

	result, err := h.service.SeedDemo(c.Context(), token)
	if err != nil {
		return h.seedError(c, err)
	}

	return c.JSON(result)
}

func (h *SeedHandler) seedError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSeedDisabled):
		return utils.Fail(c, fiber.StatusForbidden, "seeding disabled", nil)
	case errors.Is(err, service.ErrSeedUnauthorized):
		return utils.Fail(c, fiber.StatusForbidden, "invalid token", nil)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("seed operation failed")
		return utils.Fail(c, fiber.StatusInternalServerError, "seed operation failed", nil)
	}
}
