package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/caliper-hq/caliper-api/internal/config"
	"github.com/caliper-hq/caliper-api/internal/handler"
	"github.com/caliper-hq/caliper-api/internal/middleware"
	"github.com/caliper-hq/caliper-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CandidateHandler     *handler.CandidateHandler
	QuestionHandler      *handler.QuestionHandler
	PackHandler          *handler.PackHandler
	AssignmentHandler    *handler.AssignmentHandler
	JudgeHandler         *handler.JudgeHandler
	ActivityHandler      *handler.ActivityHandler
	SeedHandler          *handler.SeedHandler
	CandidateFlowHandler *handler.CandidateFlowHandler
	SubmissionHandler    *handler.SubmissionHandler
	UploadHandler        *handler.UploadHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Admin surface; request metrics come from the observability middleware
	// keyed on the /api/admin prefix.
	admin := app.Group("/api/admin")
	if deps.CandidateHandler != nil {
		deps.CandidateHandler.Register(admin.Group("/candidates"))
	}
	if deps.QuestionHandler != nil {
		deps.QuestionHandler.Register(admin.Group("/questions"))
	}
	if deps.PackHandler != nil {
		deps.PackHandler.Register(admin.Group("/packs"))
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(admin.Group("/assignments"))
	}
	if deps.JudgeHandler != nil {
		deps.JudgeHandler.Register(admin.Group("/judge"))
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(admin.Group("/activity"))
	}
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(admin.Group("/seed"))
	}

	// Candidate surface
	candidate := app.Group("/api/candidate")
	if deps.CandidateFlowHandler != nil {
		deps.CandidateFlowHandler.Register(candidate)
	}
	if deps.SubmissionHandler != nil {
		submissions := candidate.Group("/submissions",
			middleware.RateLimit("candidate_submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow))
		deps.SubmissionHandler.Register(submissions)
	}
	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(candidate.Group("/uploads"))
	}
}
