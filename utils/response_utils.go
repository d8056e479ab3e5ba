package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"clipstudio/editor-gateway/models"
)

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// RespondWithSessionError maps the session error taxonomy onto HTTP codes:
// in-flight conflicts and unmet preconditions are 409, dangling clip
// references are 404, backend failures are 502 with the backend's own status
// carried in the body.
func RespondWithSessionError(c *fiber.Ctx, err error) error {
	var stateErr *models.InvalidStateError
	if errors.As(err, &stateErr) {
		return RespondWithError(c, fiber.StatusConflict, stateErr.Error())
	}
	if errors.Is(err, models.ErrInvalidReference) {
		return RespondWithError(c, fiber.StatusNotFound, err.Error())
	}
	var transportErr *models.TransportError
	if errors.As(err, &transportErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"status":         "error",
			"message":        transportErr.Message,
			"backend_status": transportErr.StatusCode,
		})
	}
	return RespondWithError(c, fiber.StatusInternalServerError, err.Error())
}

// FormatValidationErrors formats validation errors from validator/v10.
func FormatValidationErrors(err error) []string {
	var msgs []string
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, fe := range vErrs {
			msg := fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
			if fe.Param() != "" {
				msg = fmt.Sprintf("%s (value: %s)", msg, fe.Param())
			}
			msgs = append(msgs, msg)
		}
	}
	return msgs
}
