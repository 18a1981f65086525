package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/caliper-hq/caliper-api/internal/observability"
)

const adminPrefix = "/api/admin"

// Observability records Prometheus metrics and a structured log line for
// every admin endpoint hit. Candidate-facing routes are excluded so load
// from interview sessions does not drown the admin signal.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		if strings.HasPrefix(c.Path(), adminPrefix) {
			elapsed := time.Since(start)
			route := routeTemplate(c)
			method := c.Method()
			status := c.Response().StatusCode()

			recordAdminMetrics(method, route, status, elapsed)
			logAdminRequest(logger, c, method, route, status, elapsed)
		}

		return err
	}
}

func recordAdminMetrics(method, route string, status int, elapsed time.Duration) {
	label := strconv.Itoa(status)
	observability.AdminRequests().WithLabelValues(method, route, label).Inc()
	observability.AdminLatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
	if status >= fiber.StatusBadRequest {
		observability.AdminErrors().WithLabelValues(method, route, label).Inc()
	}
}

func logAdminRequest(logger zerolog.Logger, c *fiber.Ctx, method, route string, status int, elapsed time.Duration) {
	entry := logger.With().
		Str("correlation_id", GetCorrelationID(c)).
		Str("route", route).
		Str("method", method).
		Int("status", status).
		Dur("latency", elapsed).
		Logger()

	switch {
	case status >= fiber.StatusInternalServerError:
		entry.Error().Msg("admin request failed")
	case status >= fiber.StatusBadRequest:
		entry.Warn().Msg("admin request completed with client error")
	default:
		entry.Info().Msg("admin request completed")
	}
}

// routeTemplate prefers the registered route pattern over the raw path so
// metrics do not explode on per-entity cardinality.
func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return route.Path
	}
	return c.Path()
}
