package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/caliper-hq/caliper-api/internal/service"
	"github.com/caliper-hq/caliper-api/internal/utils"
)

// UploadHandler handles attachment uploads from candidates.
type UploadHandler struct {
	service service.UploadService
	logger  zerolog.Logger
}

// NewUploadHandler constructs an upload handler.
func NewUploadHandler(service service.UploadService, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Register wires upload routes.
func (h *UploadHandler) Register(router fiber.Router) {
	router.Post("", h.upload)
}

func (h *UploadHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "file is required", nil)
	}

	result, err := h.service.Upload(c.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadTooLarge):
			return utils.Fail(c, fiber.StatusRequestEntityTooLarge, err.Error(), nil)
		case errors.Is(err, service.ErrUploadTypeNotAllowed), errors.Is(err, service.ErrUploadScanFailed):
			return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrUploadUnavailable):
			return utils.Fail(c, fiber.StatusServiceUnavailable, err.Error(), nil)
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("upload failed")
			return utils.Fail(c, fiber.StatusInternalServerError, "upload failed", nil)
		}
	}

	return utils.OK(c, result, "upload successful", nil)
}
