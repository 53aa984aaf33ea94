package handlers

import (
	"errors"
	"fmt"

	"easyhomes/internal/middleware"
	"easyhomes/internal/repositories"
	"easyhomes/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps service and repository errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrConflict), errors.Is(err, repositories.ErrDuplicate):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrTooLarge):
		return fiber.StatusRequestEntityTooLarge
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError logs err and writes {"message", "error"} with the mapped status.
func respondError(c *fiber.Ctx, base *zap.Logger, message string, err error) error {
	status := statusFor(err)
	log := middleware.Logger(c, base)
	if status >= fiber.StatusInternalServerError {
		log.Error(message, zap.Error(err))
	} else {
		log.Info(message, zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// respondValidation answers 400 with one message per failing field.
func respondValidation(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Namespace()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

func respondBadBody(c *fiber.Ctx, base *zap.Logger, err error) error {
	middleware.Logger(c, base).Info("error parsing request body", zap.Error(err))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}
