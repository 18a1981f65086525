package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/pkg/judge"
)

const judgeHealthTimeout = 8 * time.Second

// JudgeHandler exposes the judge liveness probe for operators.
type JudgeHandler struct {
	pinger      judge.Pinger
	development bool
	logger      zerolog.Logger
}

// NewJudgeHandler builds a judge handler instance.
func NewJudgeHandler(pinger judge.Pinger, development bool, logger zerolog.Logger) *JudgeHandler {
	return &JudgeHandler{
		pinger:      pinger,
		development: development,
		logger:      logger.With().Str("component", "judge_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *JudgeHandler) Register(router fiber.Router) {
	router.Get("/health", h.health)
}

// health reports judge endpoint liveness. Raw reply excerpts stay inside
// development environments.
func (h *JudgeHandler) health(c *fiber.Ctx) error {
	ok, info := h.pinger.Ping(c.Context(), judgeHealthTimeout)

	if !h.development && info != nil {
		delete(info, "raw_excerpt")
	}

	if !ok {
		requestLogger(h.logger, c).Warn().Msg("judge health probe failed")
	}

	return c.JSON(dto.JudgeHealthResponse{OK: ok, Info: info})
}
