package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/caliper-hq/caliper-api/internal/config"
	"github.com/caliper-hq/caliper-api/internal/utils"
)

var processStart = time.Now()

// HealthResponse is the liveness payload. It reports the process, not its
// dependencies; judge reachability has its own endpoint.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Service       string    `json:"service"`
	Environment   string    `json:"environment"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

// HealthCheck reports process liveness.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.OK(c, HealthResponse{
			Status:        "ok",
			Timestamp:     time.Now().UTC(),
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			UptimeSeconds: int64(time.Since(processStart).Seconds()),
		}, "service healthy", nil)
	}
}
