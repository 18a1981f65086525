package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the common JSON envelope for admin endpoints. Candidate
// flow endpoints return their own flat shapes and bypass it.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// OK sends a success envelope wrapping data and optional meta.
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	return OKWithStatus(c, fiber.StatusOK, data, message, meta)
}

// OKWithStatus sends a success envelope using the provided HTTP status code.
func OKWithStatus(c *fiber.Ctx, status int, data interface{}, message string, meta interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

// Fail sends an error envelope with the given status code. Details carries
// field-level validation errors when present.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
		Details: details,
	})
}
